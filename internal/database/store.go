package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/logger"
	"github.com/edgard/chatstats/internal/record"
)

// insertBatchSize bounds the rows of one multi-row INSERT, keeping the bound
// parameters well below SQLite's limit.
const insertBatchSize = 500

// Store defines the archive operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveImport stores imp and its records, replacing any previous import
	// of the same source. imp.ID and imp.RecordCount are filled in.
	SaveImport(ctx context.Context, imp *Import, records []record.Record) error

	// GetImport returns the import of source. Returns nil, nil if not found.
	GetImport(ctx context.Context, source string) (*Import, error)

	// ListImports returns every import ordered by source.
	ListImports(ctx context.Context) ([]Import, error)

	// GetRecords returns the records of an import in their original order.
	GetRecords(ctx context.Context, importID int64) ([]record.Record, error)

	// DeleteImport removes source and its records. It reports whether the
	// source existed.
	DeleteImport(ctx context.Context, source string) (bool, error)

	// RunSQLMaintenance compacts the database file.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore returns a Store backed by db.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.NewDatabaseError("database ping failed", err)
	}
	return nil
}

func (s *sqlxStore) SaveImport(ctx context.Context, imp *Import, records []record.Record) error {
	if imp == nil {
		return errs.NewValidationError("cannot save nil import", nil)
	}
	if imp.Source == "" {
		return errs.NewValidationError("import must have a source", nil)
	}
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now().UTC()
	}
	imp.RecordCount = len(records)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapf(err, "failed to begin transaction")
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if _, err := deleteSource(ctx, tx, imp.Source); err != nil {
		return err
	}

	result, err := tx.NamedExecContext(ctx, `
        INSERT INTO imports (source, marker, case_insensitive, lines_read, record_count, imported_at)
        VALUES (:source, :marker, :case_insensitive, :lines_read, :record_count, :imported_at);
    `, imp)
	if err != nil {
		return wrapf(err, "failed to save import %q", imp.Source)
	}
	if imp.ID, err = result.LastInsertId(); err != nil {
		return wrapf(err, "failed to read import id of %q", imp.Source)
	}

	rows := make([]StoredRecord, 0, min(len(records), insertBatchSize))
	for start := 0; start < len(records); start += insertBatchSize {
		rows = rows[:0]
		for _, r := range records[start:min(start+insertBatchSize, len(records))] {
			rows = append(rows, StoredRecord{ImportID: imp.ID, Date: r.Date, Time: r.Time, Name: r.Name})
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO records (import_id, date, time, name) VALUES (:import_id, :date, :time, :name)`,
			rows); err != nil {
			return wrapf(err, "failed to save records of %q", imp.Source)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapf(err, "failed to commit transaction")
	}
	tx = nil

	s.logger.DebugContext(ctx, "Import saved", "source", imp.Source, "id", imp.ID, "records", imp.RecordCount)
	return nil
}

// deleteSource removes the import of source and its records inside tx.
func deleteSource(ctx context.Context, tx *sqlx.Tx, source string) (bool, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `SELECT id FROM imports WHERE source = ?`, source)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, wrapf(err, "failed to look up import %q", source)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE import_id = ?`, id); err != nil {
		return false, wrapf(err, "failed to delete records of %q", source)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM imports WHERE id = ?`, id); err != nil {
		return false, wrapf(err, "failed to delete import %q", source)
	}
	return true, nil
}

func (s *sqlxStore) GetImport(ctx context.Context, source string) (*Import, error) {
	var imp Import
	err := s.db.GetContext(ctx, &imp, `
        SELECT id, source, marker, case_insensitive, lines_read, record_count, imported_at
        FROM imports WHERE source = ?`, source)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "Import not found", "source", source)
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err
	case err != nil:
		return nil, wrapf(err, "failed to get import %q", source)
	}
	return &imp, nil
}

func (s *sqlxStore) ListImports(ctx context.Context) ([]Import, error) {
	var imports []Import
	err := s.db.SelectContext(ctx, &imports, `
        SELECT id, source, marker, case_insensitive, lines_read, record_count, imported_at
        FROM imports ORDER BY source`)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, wrapf(err, "failed to list imports")
	}
	return imports, nil
}

func (s *sqlxStore) GetRecords(ctx context.Context, importID int64) ([]record.Record, error) {
	var rows []StoredRecord
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, import_id, date, time, name FROM records WHERE import_id = ? ORDER BY id`, importID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, wrapf(err, "failed to get records of import %d", importID)
	}

	records := make([]record.Record, len(rows))
	for i, r := range rows {
		records[i] = record.Record{Date: r.Date, Time: r.Time, Name: r.Name}
	}
	return records, nil
}

func (s *sqlxStore) DeleteImport(ctx context.Context, source string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, wrapf(err, "failed to begin transaction")
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	found, err := deleteSource(ctx, tx, source)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, wrapf(err, "failed to commit transaction")
	}
	tx = nil

	s.logger.InfoContext(ctx, "Import deleted", "source", source, "found", found)
	return found, nil
}

// RunSQLMaintenance runs VACUUM, which SQLite refuses inside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return wrapf(err, "VACUUM failed")
	}
	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
