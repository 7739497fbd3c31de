package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvstats/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	upload_time TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is a MetadataStore backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects using cfg.URL and the pool sizing in cfg.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create files table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// InsertFile stores rec. A zero UploadTime lets the database stamp it.
func (s *PostgresStore) InsertFile(ctx context.Context, rec FileRecord) error {
	var err error
	if rec.UploadTime.IsZero() {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO files (id, original_name, row_count, column_count) VALUES ($1, $2, $3, $4)`,
			rec.ID, rec.OriginalName, rec.RowCount, rec.ColumnCount)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO files (id, original_name, row_count, column_count, upload_time) VALUES ($1, $2, $3, $4, $5)`,
			rec.ID, rec.OriginalName, rec.RowCount, rec.ColumnCount, rec.UploadTime)
	}
	if err != nil {
		return fmt.Errorf("postgres: insert file %s: %w", rec.ID, err)
	}
	return nil
}

// GetFile returns the record for id or ErrNotFound.
func (s *PostgresStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	var rec FileRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, original_name, row_count, column_count, upload_time FROM files WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.OriginalName, &rec.RowCount, &rec.ColumnCount, &rec.UploadTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("postgres: get file %s: %w", id, err)
	}
	return rec, nil
}

// ListFiles returns all records, newest first.
func (s *PostgresStore) ListFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, original_name, row_count, column_count, upload_time FROM files ORDER BY upload_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list files: %w", err)
	}

	files, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (FileRecord, error) {
		var rec FileRecord
		err := row.Scan(&rec.ID, &rec.OriginalName, &rec.RowCount, &rec.ColumnCount, &rec.UploadTime)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list files: %w", err)
	}
	if files == nil {
		files = []FileRecord{}
	}
	return files, nil
}

// Ping checks pool connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
