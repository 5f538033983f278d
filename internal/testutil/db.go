// Package testutil opens migrated, seeded in-memory databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// SeedPassword is the password of the seeded admin, tech and user accounts.
const SeedPassword = "123456"

// OpenDB returns an in-memory SQLite database with the schema applied and seed data loaded.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	database, err := persistence.OpenDatabase(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, persistence.RunMigrations(ctx, database.Handle(), database.Driver, logger))
	require.NoError(t, persistence.Seed(ctx, database.Handle(), persistence.SeedOptions{
		DefaultPassword: SeedPassword,
		BcryptCost:      bcrypt.MinCost,
	}, logger))
	return database.Handle()
}

// UserID returns the id of the account with the given login.
func UserID(t *testing.T, db *sqlx.DB, login string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, db.Rebind(`SELECT id FROM users WHERE login=?`), login))
	return id
}

// CategoryID returns the id of the named category.
func CategoryID(t *testing.T, db *sqlx.DB, name string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, db.Rebind(`SELECT id FROM categories WHERE name=?`), name))
	return id
}

// StatusID returns the id of the named status.
func StatusID(t *testing.T, db *sqlx.DB, name string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, db.Rebind(`SELECT id FROM statuses WHERE name=?`), name))
	return id
}
