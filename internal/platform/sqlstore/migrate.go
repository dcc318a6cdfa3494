package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// MigrationStatus describes one migration as reported by the status command.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

// Migrate applies command to db using the embedded migrations for dialect.
// "up" applies all pending migrations, "down" rolls back the latest one and
// "status" changes nothing. The status of every migration after the command
// is returned.
func Migrate(
	ctx context.Context,
	db *sql.DB,
	dialect Dialect,
	command string,
	logger *slog.Logger,
) ([]MigrationStatus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("dialect", string(dialect)),
	)

	fsys, err := fs.Sub(migrationsFS, dialect.migrationsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations for %s: %w", dialect, err)
	}
	provider, err := goose.NewProvider(dialect.gooseDialect(), db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	var results []*goose.MigrationResult
	switch command {
	case MigrateUp:
		results, err = provider.Up(ctx)
	case MigrateDown:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	case MigrateStatus:
	default:
		return nil, fmt.Errorf(
			"unknown migration command: %s (expected %s, %s or %s)",
			command, MigrateUp, MigrateDown, MigrateStatus,
		)
	}
	for _, r := range results {
		log.Info("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("source", r.Source.Path),
			slog.String("direction", r.Direction),
			slog.Duration("duration", r.Duration))
	}
	if err != nil {
		log.Error("migration command failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Source:  s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	log.Info("migration command finished", slog.Int("migrations", len(out)))
	return out, nil
}
