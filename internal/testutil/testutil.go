// Package testutil builds the in-memory fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"ruralsite/internal/config"
	"ruralsite/internal/db"
	"ruralsite/internal/models"
	console "ruralsite/internal/utils/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Config returns the test configuration with a private SQLite database.
func Config() *config.Config {
	cfg := config.LoadTestConfig()
	cfg.Database.URL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	return cfg
}

// NewDB opens a migrated in-memory database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewDBWithConfig(t, Config())
}

func NewDBWithConfig(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	restore := console.Discard()
	defer restore()

	conn, err := db.Connect(context.Background(), cfg.Database)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}

// CreatePrincipal inserts a principal with a cheap bcrypt hash.
func CreatePrincipal(t *testing.T, conn *gorm.DB, email, password string, role models.Role, active bool) *models.AdminPrincipal {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	p := &models.AdminPrincipal{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}
