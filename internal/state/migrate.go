package state

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// The build cache schema (runs and content_hashes) ships inside the binary
// as numbered goose migrations.
//
//go:embed migrations/*.sql
var cacheSchema embed.FS

const cacheSchemaDir = "migrations"

func useCacheSchema() error {
	goose.SetBaseFS(cacheSchema)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// latestSchema is the newest cache schema version this build knows.
func latestSchema() (int64, error) {
	all, err := goose.CollectMigrations(cacheSchemaDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache schema: %w", err)
	}
	last, err := all.Last()
	if err != nil {
		return 0, fmt.Errorf("failed to read cache schema: %w", err)
	}
	return last.Version, nil
}

// Migrate brings the build cache up to the schema of this tasty build.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if err := MigrateWithDB(s.db); err != nil {
		return err
	}
	s.logger.Debug("build cache schema ready", slog.String("path", s.path))
	return nil
}

// MigrateWithDB applies the cache schema to db. A cache written by a newer
// tasty is rejected rather than rolled back; delete the cache file to rebuild it.
func MigrateWithDB(db *sql.DB) error {
	if err := useCacheSchema(); err != nil {
		return err
	}
	latest, err := latestSchema()
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read cache schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("build cache schema v%d is newer than this tasty supports (v%d)", current, latest)
	}
	if err := goose.Up(db, cacheSchemaDir); err != nil {
		return fmt.Errorf("failed to migrate build cache: %w", err)
	}
	return nil
}

// GetMigrationVersion reports the cache schema version; doctor prints it.
func (s *SQLiteStore) GetMigrationVersion() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if err := useCacheSchema(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db)
}
