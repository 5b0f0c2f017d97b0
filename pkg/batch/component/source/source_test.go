package source_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/tigerroll/idbatch/pkg/batch/component/source"
	_ "github.com/tigerroll/idbatch/pkg/batch/component/source/drivers"
	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

func TestExplicitOr(t *testing.T) {
	ctx := context.Background()
	s := source.ExplicitOr(source.NewStaticItemSource(model.Identifiers("1", "2", "3")...))

	ids, err := s.GetAllItemIDs(ctx, model.JobArguments{})
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("1", "2", "3"), ids)

	ids, err = s.GetAllItemIDs(ctx, model.JobArguments{IDs: model.Identifiers("9", "8")})
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("9", "8"), ids)

	ids, err = s.GetAllItemIDs(ctx, model.JobArguments{IDs: []model.Identifier{}})
	require.NoError(t, err)
	assert.Empty(t, ids, "an explicit empty list is not a request for the full source")
}

func TestStaticItemSourceReturnsCopies(t *testing.T) {
	s := source.NewStaticItemSource(model.Identifiers("a", "b")...)
	first, _ := s.GetAllItemIDs(context.Background(), model.JobArguments{})
	first[0] = "changed"

	second, _ := s.GetAllItemIDs(context.Background(), model.JobArguments{})
	assert.Equal(t, model.Identifiers("a", "b"), second)
}

func TestSQLItemSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nid FROM node ORDER BY nid").
		WillReturnRows(sqlmock.NewRows([]string{"nid"}).AddRow(int64(10)).AddRow(nil).AddRow("11"))

	ids, err := source.NewSQLItemSource(db, "SELECT nid FROM node ORDER BY nid").
		GetAllItemIDs(context.Background(), model.JobArguments{})
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("10", "11"), ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLItemSourceErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT nid").WillReturnError(errors.New("connection reset"))
	_, err = source.NewSQLItemSource(db, "SELECT nid FROM node").GetAllItemIDs(context.Background(), model.JobArguments{})
	assert.True(t, exception.IsSourceError(err))

	mock.ExpectQuery("SELECT nid").
		WillReturnRows(sqlmock.NewRows([]string{"nid"}).AddRow("1").RowError(0, errors.New("broken row")))
	_, err = source.NewSQLItemSource(db, "SELECT nid FROM node").GetAllItemIDs(context.Background(), model.JobArguments{})
	assert.True(t, exception.IsSourceError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLItemSourceOnSQLite(t *testing.T) {
	src, err := source.OpenSQLItemSource("sqlite3", ":memory:", "SELECT 'x' UNION ALL SELECT 'y'")
	require.NoError(t, err)
	defer src.Close()

	ids, err := src.GetAllItemIDs(context.Background(), model.JobArguments{})
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("x", "y"), ids)
}

func TestNewItemSourceFromConfig(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	s, err := source.NewItemSourceFromConfig(lc, &config.SourceConfig{Type: "static", IDs: []string{"5", "6"}})
	require.NoError(t, err)
	ids, err := s.GetAllItemIDs(context.Background(), model.JobArguments{})
	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("5", "6"), ids)

	_, err = source.NewItemSourceFromConfig(lc, &config.SourceConfig{Type: "sql", Driver: "sqlite3", DSN: ":memory:", Query: "SELECT 1"})
	require.NoError(t, err)

	_, err = source.NewItemSourceFromConfig(lc, &config.SourceConfig{Type: "ldap"})
	assert.Error(t, err)

	lc.RequireStart().RequireStop()
}
