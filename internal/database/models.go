package database

import "time"

// Import is one archived chat export. Source is unique: archiving the same
// source again replaces its records.
type Import struct {
	ID              int64     `db:"id"`
	Source          string    `db:"source"`
	Marker          string    `db:"marker"`
	CaseInsensitive bool      `db:"case_insensitive"`
	LinesRead       int       `db:"lines_read"`
	RecordCount     int       `db:"record_count"`
	ImportedAt      time.Time `db:"imported_at"`
}

// StoredRecord is one filtered chat line belonging to an Import.
type StoredRecord struct {
	ID       int64  `db:"id"`
	ImportID int64  `db:"import_id"`
	Date     string `db:"date"`
	Time     string `db:"time"`
	Name     string `db:"name"`
}
