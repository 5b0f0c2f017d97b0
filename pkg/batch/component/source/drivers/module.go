package drivers

import (
	"go.uber.org/fx"

	// Blank imports register the database/sql drivers named by source.driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Module carries the driver registrations into the application graph.
var Module = fx.Options()
