package db

import (
	"context"
	"testing"

	"ruralsite/internal/config"
	"ruralsite/internal/models"
	console "ruralsite/internal/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig() config.DatabaseConfig {
	cfg := config.LoadTestConfig().Database
	cfg.URL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	return cfg
}

func TestDialectorSelection(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite", ""} {
		d, err := Dialector(config.DatabaseConfig{Driver: driver, URL: "x"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectMigrateClose(t *testing.T) {
	restore := console.Discard()
	defer restore()

	conn, err := Connect(context.Background(), sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	for _, m := range models.AllModels() {
		assert.True(t, conn.Migrator().HasTable(m))
	}

	require.NoError(t, Close(conn))
	assert.NoError(t, Close(nil))
}

func TestConnectGivesUpWhenContextEnds(t *testing.T) {
	restore := console.Discard()
	defer restore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DatabaseConfig{Driver: DriverSQLite, URL: "file:/nonexistent-dir/" + uuid.NewString() + "/x.db?mode=ro"}
	_, err := Connect(ctx, cfg)
	assert.Error(t, err)
}
