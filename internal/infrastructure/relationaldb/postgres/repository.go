// Package postgres provides a PostgreSQL implementation of the RelationalDB interface.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/ersonp/connexions/internal/infrastructure/relationaldb/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository implements ports.RelationalDB using PostgreSQL.
type Repository struct {
	*sqlstore.Store
	db  *sql.DB
	url string
}

// NewRepository connects to the database at url and checks the connection.
func NewRepository(ctx context.Context, url string) (*Repository, error) {
	if url == "" {
		return nil, errors.New("postgres url is required")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return &Repository{
		Store: sqlstore.New(db, sqlstore.Postgres),
		db:    db,
		url:   url,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureSchema applies pending migrations over a dedicated connection.
func (r *Repository) EnsureSchema(_ context.Context) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, r.url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
