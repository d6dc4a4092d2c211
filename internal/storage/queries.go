package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const getState = `SELECT value FROM app_state WHERE key = ?`

func (q *Queries) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getState, key).Scan(&value)
	return value, err
}

const upsertState = `
INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) UpsertState(ctx context.Context, key, value string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertState, key, value, updatedAt.UTC().Format(time.RFC3339))
	return err
}

const deleteState = `DELETE FROM app_state WHERE key = ?`

func (q *Queries) DeleteState(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteState, key)
	return err
}
