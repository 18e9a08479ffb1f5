package relationaldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/connexions/internal/infrastructure/config"
	"github.com/ersonp/connexions/internal/infrastructure/relationaldb/sqlite"
)

func TestOpen_SQLiteResolvesRelativePath(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()

	db, err := Open(context.Background(), cfg, base)
	require.NoError(t, err)
	defer db.Close()

	repo, ok := db.(*sqlite.Repository)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, config.DefaultConfigDir, config.DefaultDatabaseFile), repo.Path())

	count, err := db.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "mysql"

	_, err := Open(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverPostgres

	_, err := Open(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
