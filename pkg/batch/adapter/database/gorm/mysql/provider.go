// Package mysql provides a GORM DBProvider implementation for MySQL databases.
package mysql

import (
	"fmt"

	"github.com/tigerroll/idbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/idbatch/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/idbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/idbatch/pkg/batch/core/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// init registers the MySQL dialector factory with the gorm adapter.
func init() {
	gormadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the go-sql-driver DSN for MySQL connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	authPart := c.User
	if c.Password != "" {
		authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
	}
	if authPart != "" {
		authPart += "@"
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		authPart, c.Host, c.Port, c.Database)
}

// NewProvider creates a new MySQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, "mysql")
}
