// Package store persists analysis metadata and caches finished analysis
// results.
//
// Metadata (one row per analyzed file) lives in SQLite or PostgreSQL and is
// kept indefinitely. Full results live in a TTL cache (Redis, or an
// in-process map when no Redis address is configured) and expire.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/csvstats/internal/config"
	"github.com/JonMunkholm/csvstats/internal/profile"
)

// ErrNotFound is returned when a file record or cached result does not exist.
var ErrNotFound = errors.New("not found")

// FileRecord describes one analyzed upload.
type FileRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	RowCount     int       `json:"row_count"`
	ColumnCount  int       `json:"column_count"`
	UploadTime   time.Time `json:"upload_time"`
}

// MetadataStore records analyzed files.
type MetadataStore interface {
	InsertFile(ctx context.Context, rec FileRecord) error
	GetFile(ctx context.Context, id string) (FileRecord, error)
	// ListFiles returns all records, newest first.
	ListFiles(ctx context.Context) ([]FileRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// ResultCache holds finished results until they expire.
type ResultCache interface {
	Set(ctx context.Context, id string, result *profile.AnalysisResult) error
	// Get returns ErrNotFound for missing or expired entries.
	Get(ctx context.Context, id string) (*profile.AnalysisResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the metadata store selected by cfg.Driver and makes sure
// the files table exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (MetadataStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		return NewSQLiteStore(ctx, cfg.URL)
	case "postgres":
		return NewPostgresStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// OpenCache returns a Redis cache when cfg.RedisAddr is set, otherwise an
// in-process cache.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (ResultCache, error) {
	if cfg.RedisAddr == "" {
		return NewMemoryCache(cfg.TTL), nil
	}
	return NewRedisCache(ctx, RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.Prefix,
		TTL:      cfg.TTL,
		Timeout:  cfg.Timeout,
	})
}
