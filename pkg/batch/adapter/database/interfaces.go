// Package database declares how named database connections are provided to the engine.
package database

import (
	"context"

	"gorm.io/gorm"
)

// DBProvider opens and caches the connections of one database type.
type DBProvider interface {
	// Type returns the database type handled by this provider (e.g., "sqlite", "mysql").
	Type() string
	// GetConnection returns the connection configured under name, opening it on first use.
	GetConnection(name string) (*gorm.DB, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
}

// DBConnectionResolver resolves a configured connection name to an open connection,
// choosing the provider by the configured database type.
type DBConnectionResolver interface {
	ResolveDB(ctx context.Context, name string) (*gorm.DB, error)
}

// DBProviderGroup is an Fx tag used to group all DBProvider implementations.
const DBProviderGroup = `group:"db_providers"`
