// Package database keeps an archive of parsed chat exports in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// NewDB opens the SQLite file at dbPath, applies pending migrations and
// returns the connection pool.
func NewDB(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, errs.NewDatabaseError("failed to connect to database", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ApplyMigrations(db.DB, ExtractDBNameFromPath(dbPath)); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, err
	}

	slog.Debug("Database connected and migrations applied", "path", dbPath)
	return db, nil
}

// CloseDB closes the connection pool, logging any failure.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	}
}

// ApplyMigrations runs the embedded migrations against db.
func ApplyMigrations(db *sql.DB, dbName string) error {
	if db == nil {
		return errs.NewDatabaseError("database connection is nil, cannot apply migrations", nil)
	}
	if dbName == "" {
		return errs.NewDatabaseError("database name for migration driver is empty", nil)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return errs.NewDatabaseError("failed to open embedded migrations", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: dbName})
	if err != nil {
		return errs.NewDatabaseError("failed to create sqlite migration driver", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return errs.NewDatabaseError("failed to create migrate instance", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("No database migrations to apply")
			return nil
		}
		return errs.NewDatabaseError("failed to apply migrations", err)
	}

	slog.Info("Database migrations applied", "database", dbName)
	return nil
}

// ExtractDBNameFromPath strips the "file:" scheme and query parameters from
// a SQLite DSN, leaving the file path.
func ExtractDBNameFromPath(path string) string {
	path = strings.TrimPrefix(path, "file:")

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}

func wrapf(err error, format string, args ...any) error {
	return errs.NewDatabaseError(fmt.Sprintf(format, args...), err)
}
