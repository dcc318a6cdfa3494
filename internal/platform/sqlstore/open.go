package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/redact"
)

const pingTimeout = 5 * time.Second

// Open establishes a connection pool for cfg and verifies it with a ping.
// SQLite pragmas such as foreign_keys are set per connection through the URL,
// e.g. "file:taskman.db?_pragma=foreign_keys(1)".
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, Dialect, error) {
	dialect, err := DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.URL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if dialect == SQLite && strings.Contains(cfg.URL, ":memory:") {
		// Every connection to :memory: is a separate database.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	if logger != nil {
		logger.Info("database connection established",
			slog.String("dialect", string(dialect)),
			slog.Int("max_open_conns", maxOpen))
	}
	return db, dialect, nil
}
