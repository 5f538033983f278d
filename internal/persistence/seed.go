package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	defaultCategories = []string{"Software", "Hardware", "Network", "Other"}
	defaultStatuses   = []string{domain.StatusNew, domain.StatusInProgress, domain.StatusClosed, domain.StatusCancelled}
	defaultUsers      = []struct {
		Login string
		Role  domain.Role
	}{
		{"admin", domain.RoleAdmin},
		{"tech", domain.RoleTech},
		{"user", domain.RoleUser},
	}
)

// SeedOptions controls initial data.
type SeedOptions struct {
	DefaultPassword string
	BcryptCost      int
}

// Seed fills empty reference tables and creates the default accounts.
// Tables that already hold rows are left untouched.
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions, logger *zap.Logger) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := seedNames(ctx, tx, "categories", defaultCategories)
	if err != nil {
		return err
	}
	if inserted > 0 {
		logger.Info("seeded categories", zap.Int("count", inserted))
	}

	inserted, err = seedNames(ctx, tx, "statuses", defaultStatuses)
	if err != nil {
		return err
	}
	if inserted > 0 {
		logger.Info("seeded statuses", zap.Int("count", inserted))
	}

	empty, err := tableEmpty(ctx, tx, "users")
	if err != nil {
		return err
	}
	if empty {
		hash, err := auth.HashPassword(opts.DefaultPassword, opts.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		now := time.Now().UTC().UnixMilli()
		query := tx.Rebind(`INSERT INTO users (login, password_hash, display_name, role, created_at) VALUES (?, ?, ?, ?, ?)`)
		for _, u := range defaultUsers {
			if _, err := tx.ExecContext(ctx, query, u.Login, hash, u.Login, u.Role, now); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Login, err)
			}
		}
		logger.Info("seeded users", zap.Int("count", len(defaultUsers)))
	}

	return tx.Commit()
}

func seedNames(ctx context.Context, tx *sqlx.Tx, table string, names []string) (int, error) {
	empty, err := tableEmpty(ctx, tx, table)
	if err != nil || !empty {
		return 0, err
	}
	query := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (name) VALUES (?)`, table))
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, query, name); err != nil {
			return 0, fmt.Errorf("seed %s %q: %w", table, name, err)
		}
	}
	return len(names), nil
}

func tableEmpty(ctx context.Context, tx *sqlx.Tx, table string) (bool, error) {
	var count int
	if err := tx.GetContext(ctx, &count, fmt.Sprintf(`SELECT COUNT(1) FROM %s`, table)); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return count == 0, nil
}
