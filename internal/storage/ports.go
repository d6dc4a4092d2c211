package storage

import (
	"context"
	"errors"
)

// ErrNoData is returned by Backend.Load when nothing has been saved yet.
var ErrNoData = errors.New("no persisted state")

// Backend stores one opaque document. Every call is all-or-nothing.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
