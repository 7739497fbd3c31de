package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout sorts lexically in time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	upload_time TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore is a MetadataStore backed by an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dsn, e.g.
// "analytics.db" or "file:analytics.db?_pragma=busy_timeout(5000)".
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Single connection: SQLite serializes writers anyway, and ":memory:"
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create files table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InsertFile stores rec. A zero UploadTime is replaced with the current time.
func (s *SQLiteStore) InsertFile(ctx context.Context, rec FileRecord) error {
	if rec.UploadTime.IsZero() {
		rec.UploadTime = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, original_name, row_count, column_count, upload_time) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.OriginalName, rec.RowCount, rec.ColumnCount,
		rec.UploadTime.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert file %s: %w", rec.ID, err)
	}
	return nil
}

// GetFile returns the record for id or ErrNotFound.
func (s *SQLiteStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, original_name, row_count, column_count, upload_time FROM files WHERE id = ?`, id)

	rec, err := scanSQLiteFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("sqlite: get file %s: %w", id, err)
	}
	return rec, nil
}

// ListFiles returns all records, newest first.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_name, row_count, column_count, upload_time FROM files ORDER BY upload_time DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list files: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		rec, err := scanSQLiteFile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan file: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list files: %w", err)
	}
	return files, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteFile(row rowScanner) (FileRecord, error) {
	var (
		rec      FileRecord
		uploaded string
	)
	if err := row.Scan(&rec.ID, &rec.OriginalName, &rec.RowCount, &rec.ColumnCount, &uploaded); err != nil {
		return FileRecord{}, err
	}
	rec.UploadTime = parseSQLiteTime(uploaded)
	return rec, nil
}

// parseSQLiteTime accepts our own layout and SQLite's CURRENT_TIMESTAMP form.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{sqliteTimeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
