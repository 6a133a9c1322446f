// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the SQL files under data/migrations at startup so
// the content tables, the chapter number constraint and the like relation exist
// before traffic is served.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunUp brings the schema to the newest version found under migrationsPath.
//
// A dirty schema (a previous run died mid-file) stops startup; it needs a
// manual fix and a forced version before the server may run again.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, toPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &migrateLogger{logger: logger}

	from, err := schemaVersion(migrator)
	if err != nil {
		return err
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("schema_up_to_date", slog.Uint64("version", uint64(from)))
		return nil
	case err != nil:
		return fmt.Errorf("migration: up from version %d failed: %w", from, err)
	}

	to, err := schemaVersion(migrator)
	if err != nil {
		return err
	}

	logger.Info("schema_migrated",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)
	return nil
}

// schemaVersion returns the applied version, 0 for an empty database.
func schemaVersion(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migration: failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migration: schema is dirty at version %d", version)
	}
	return version, nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Error("migration_close_failed", slog.Any("error", err))
	}
}

// toPgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// golang-migrate expects. Other strings pass through unchanged.
func toPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger routes golang-migrate's progress lines to slog at debug level.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug("migration_log", slog.String("message", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
