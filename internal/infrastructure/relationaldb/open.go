// Package relationaldb selects and opens the configured relational backend.
package relationaldb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/connexions/internal/domain/ports"
	"github.com/ersonp/connexions/internal/infrastructure/config"
	"github.com/ersonp/connexions/internal/infrastructure/relationaldb/postgres"
	"github.com/ersonp/connexions/internal/infrastructure/relationaldb/sqlite"
)

// Open connects to the backend named by cfg and applies pending migrations.
// basePath resolves a relative SQLite path.
func Open(ctx context.Context, cfg *config.Config, basePath string) (ports.RelationalDB, error) {
	var db ports.RelationalDB
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		path := cfg.SQLitePath(basePath)
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		repo, err := sqlite.NewRepository(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		db = repo
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		db = repo
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return db, nil
}
