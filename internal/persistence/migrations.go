package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

//go:embed migrations
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// RunMigrations applies the embedded migrations for the database dialect, each at most once.
func RunMigrations(ctx context.Context, db *sqlx.DB, driver string, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no database available; skipping migrations")
		return nil
	}
	return applyMigrations(ctx, db, migrationFS, migrationDir(driver), logger)
}

func migrationDir(driver string) string {
	if driver == config.DriverPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

func applyMigrations(ctx context.Context, db *sqlx.DB, source fs.FS, dir string, logger *zap.Logger) error {
	entries, err := fs.ReadDir(source, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at BIGINT NOT NULL)`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	applied := 0
	for _, name := range filenames {
		var count int
		if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(1) FROM `+migrationTable+` WHERE name = ?`), name); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(source, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`), name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
		applied++
	}

	logger.Info("migrations applied", zap.Int("count", applied), zap.Int("known", len(filenames)))
	return nil
}
