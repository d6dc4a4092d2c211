package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dompet.db")

	store, err := NewSQLiteStore(path, "dompet.state")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData on empty store, got %v", err)
	}

	if err := store.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil || string(got) != `{"a":2}` {
		t.Fatalf("load: %s %v", got, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData after clear, got %v", err)
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dompet.db")

	first, err := NewSQLiteStore(path, "k")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo := NewRepository(first, quietLogger())
	if err := repo.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	first.Close()

	second, err := NewSQLiteStore(path, "k")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	state, err := NewRepository(second, quietLogger()).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Transactions) != 3 {
		t.Fatalf("expected 3 transactions after reopen, got %d", len(state.Transactions))
	}
}

func TestSQLiteStoreRejectsEmptyKey(t *testing.T) {
	if _, err := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"), ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
