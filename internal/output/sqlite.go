package output

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reqsift/reqsift/internal/model"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	datetime   TEXT NOT NULL,
	datacenter TEXT NOT NULL,
	request    TEXT NOT NULL,
	filename   TEXT NOT NULL,
	status     TEXT NOT NULL,
	seconds    REAL NOT NULL
);`

// SQLiteWriter inserts records into a `records` table mirroring the CSV
// columns. All inserts run in one transaction committed on Close, so a
// failed extraction leaves no partial summary behind.
type SQLiteWriter struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

// NewSQLiteWriter opens (creating if needed) the database at path and
// prepares the insert.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := tx.Prepare("INSERT INTO records (datetime, datacenter, request, filename, status, seconds) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback() // nolint
		db.Close()
		return nil, err
	}
	return &SQLiteWriter{db: db, tx: tx, stmt: stmt}, nil
}

func (w *SQLiteWriter) Write(rec *model.Record) error {
	_, err := w.stmt.Exec(rec.StartText(), rec.Datacenter, rec.Request, rec.Filename, rec.Status, rec.Seconds)
	return err
}

// Close commits the pending inserts and releases the database.
func (w *SQLiteWriter) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return err
	}
	return w.db.Close()
}
