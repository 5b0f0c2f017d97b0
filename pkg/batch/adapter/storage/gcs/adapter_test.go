package gcs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewGCSAdapterRequiresBucket(t *testing.T) {
	_, err := NewGCSAdapter(context.Background(), "", "export", option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestCredentialsOption(t *testing.T) {
	assert.Nil(t, CredentialsOption(""))
	assert.Len(t, CredentialsOption("/etc/key.json"), 1)
}

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/b/ledgers/o"):
			fmt.Fprint(w, `{"kind":"storage#objects","items":[{"name":"idbatch/a.parquet","bucket":"ledgers"},{"name":"idbatch/b.parquet","bucket":"ledgers"}]}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":404,"message":"No such object"}}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGCSAdapterAgainstFakeServer(t *testing.T) {
	srv := newFakeServer(t)
	ctx := context.Background()

	conn, err := NewGCSAdapter(ctx, "ledgers", "export",
		option.WithoutAuthentication(), option.WithEndpoint(srv.URL+"/storage/v1/"))
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, ProviderType, conn.Type())

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "idbatch/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"idbatch/a.parquet", "idbatch/b.parquet"}, names)

	assert.NoError(t, conn.DeleteObject(ctx, "idbatch/missing.parquet"), "deleting a missing object is not an error")
}
