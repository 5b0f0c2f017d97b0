package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "exports")

	conn, err := NewLocalAdapter(base, "export")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Upload(ctx, "dt=2026-10-14/ledger.parquet", strings.NewReader("PAR1"), "application/octet-stream"))

	r, err := conn.Download(ctx, "dt=2026-10-14/ledger.parquet")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "dt=", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"dt=2026-10-14/ledger.parquet"}, names)

	require.NoError(t, conn.DeleteObject(ctx, "dt=2026-10-14/ledger.parquet"))
	assert.NoError(t, conn.DeleteObject(ctx, "dt=2026-10-14/ledger.parquet"))
}

func TestLocalAdapterRejectsEscapingNames(t *testing.T) {
	conn, err := NewLocalAdapter(t.TempDir(), "export")
	require.NoError(t, err)

	err = conn.Upload(context.Background(), "../outside.parquet", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestNewLocalAdapterRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewLocalAdapter(path, "export")
	assert.Error(t, err)

	_, err = NewLocalAdapter("", "export")
	assert.Error(t, err)
}
