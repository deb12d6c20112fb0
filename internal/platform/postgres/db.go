package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "pgx" driver with database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/docgen-api/internal/config"
)

// Open creates a connection pool for cfg. It does not verify connectivity;
// use Ping for that.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Ping checks that the database answers within the context deadline.
func Ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return MapError(fmt.Errorf("database ping failed: %w", err))
	}
	return nil
}
