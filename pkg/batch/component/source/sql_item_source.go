package source

import (
	"context"
	"database/sql"
	"fmt"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// SQLItemSource resolves identifiers with a query returning one column.
// The query must order its rows so a resumed job sees the same sequence.
type SQLItemSource struct {
	db    *sql.DB
	query string
	args  []any
}

// NewSQLItemSource creates a SQLItemSource running query with args on db.
func NewSQLItemSource(db *sql.DB, query string, args ...any) *SQLItemSource {
	return &SQLItemSource{db: db, query: query, args: args}
}

// OpenSQLItemSource opens a database/sql connection for driver and dsn.
// The caller owns the source and must Close it.
func OpenSQLItemSource(driver, dsn, query string) (*SQLItemSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, exception.NewSourceError(moduleName, fmt.Sprintf("failed to open %s database", driver), err)
	}
	return NewSQLItemSource(db, query), nil
}

// GetAllItemIDs runs the query and returns the first column of every row.
// NULL values are skipped.
func (s *SQLItemSource) GetAllItemIDs(ctx context.Context, args model.JobArguments) ([]model.Identifier, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, exception.NewSourceError(moduleName, "failed to execute identifier query", err)
	}
	defer rows.Close()

	ids := []model.Identifier{}
	skipped := 0
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, exception.NewSourceError(moduleName, "failed to scan identifier", err)
		}
		if !v.Valid {
			skipped++
			continue
		}
		ids = append(ids, model.Identifier(v.String))
	}
	if err := rows.Err(); err != nil {
		return nil, exception.NewSourceError(moduleName, "error during identifier iteration", err)
	}
	if skipped > 0 {
		logger.Warnf("Source: skipped %d NULL identifiers.", skipped)
	}
	logger.Debugf("Source: query returned %d identifiers.", len(ids))
	return ids, nil
}

// Close closes the underlying database handle.
func (s *SQLItemSource) Close() error {
	return s.db.Close()
}

var _ port.ItemSource = (*SQLItemSource)(nil)
