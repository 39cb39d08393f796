package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/config"
)

// DB holds database connections
type DB struct {
	Postgres *sqlx.DB
}

// NewDB creates new database connections using config
func NewDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DB, error) {
	// Connect to PostgreSQL
	postgres, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	postgres.SetMaxOpenConns(cfg.Database.MaxConns)
	postgres.SetMaxIdleConns(cfg.Database.MinConns)
	postgres.SetConnMaxLifetime(time.Hour)

	// Test PostgreSQL connection
	if err := postgres.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))

	return &DB{
		Postgres: postgres,
	}, nil
}

// schema is applied on startup. Statements are idempotent so repeated
// deployments are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS partners (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL DEFAULT '',
		phone           TEXT NOT NULL DEFAULT '',
		partner_id      CHAR(6) UNIQUE,
		status          TEXT NOT NULL DEFAULT 'pending',
		plan            TEXT,
		payment_status  TEXT,
		last_payment_id TEXT,
		plan_updated_at TIMESTAMPTZ,
		approved_at     TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 TEXT PRIMARY KEY,
		category           TEXT NOT NULL DEFAULT '',
		account_type       TEXT NOT NULL DEFAULT '',
		plan               TEXT,
		promotion_end_date TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS promotion_counters (
		name  TEXT PRIMARY KEY,
		count INT NOT NULL DEFAULT 0 CHECK (count >= 0)
	)`,
}

// Migrate creates the tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Postgres.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes all database connections
func (db *DB) Close() error {
	if err := db.Postgres.Close(); err != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", err)
	}

	return nil
}
