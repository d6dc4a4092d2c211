package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the state document as one row of a key-value table.
type SQLiteStore struct {
	db      *sql.DB
	queries *Queries
	key     string
}

func NewSQLiteStore(dbPath, key string) (*SQLiteStore, error) {
	if key == "" {
		return nil, errors.New("state key cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteStore{
		db:      db,
		queries: New(db),
		key:     key,
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements Backend.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	value, err := s.queries.GetState(ctx, s.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("get state %s: %w", s.key, err)
	}
	return []byte(value), nil
}

// Save implements Backend.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	if err := s.queries.UpsertState(ctx, s.key, string(data), time.Now()); err != nil {
		return fmt.Errorf("upsert state %s: %w", s.key, err)
	}
	slog.DebugContext(ctx, "State saved to SQLite", "key", s.key, "bytes", len(data))
	return nil
}

// Clear implements Backend.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.queries.DeleteState(ctx, s.key); err != nil {
		return fmt.Errorf("delete state %s: %w", s.key, err)
	}
	slog.InfoContext(ctx, "State cleared from SQLite", "key", s.key)
	return nil
}
