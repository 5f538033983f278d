package persistence

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// UnicodeLowerFunc is the SQLite scalar function folding case beyond ASCII.
// SQLite's built-in LOWER only folds A-Z.
const UnicodeLowerFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(UnicodeLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Database wraps the sqlx handle shared by all repositories.
type Database struct {
	DB     *sqlx.DB
	Driver string
}

// OpenDatabase connects to SQLite or PostgreSQL depending on cfg.Driver.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	driverName := cfg.Driver
	if driverName == "" {
		driverName = config.DriverSQLite
	}

	dsn := cfg.DSN
	if driverName == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	if driverName == config.DriverSQLite {
		// SQLite allows one writer; a single connection also keeps :memory: databases intact.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		}
		if cfg.MinConns > 0 {
			db.SetMaxIdleConns(cfg.MinConns)
		}
		if cfg.ConnMaxIdleSec > 0 {
			db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleSec) * time.Second)
		}
		if cfg.ConnMaxLifeSec > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeSec) * time.Second)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	logger.Info("connected to database", zap.String("driver", driverName))
	return &Database{DB: db, Driver: driverName}, nil
}

// Close releases pool resources.
func (d *Database) Close() {
	if d != nil && d.DB != nil {
		_ = d.DB.Close()
	}
}

// Handle returns the underlying sqlx handle.
func (d *Database) Handle() *sqlx.DB {
	if d == nil {
		return nil
	}
	return d.DB
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database not configured")
	}
	return d.DB.PingContext(ctx)
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
