package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "state.json")

	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := fs.Load(ctx); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if err := fs.Save(ctx, []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil || string(got) != "{}" {
		t.Fatalf("load: %q %v", got, err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if _, err := fs.Load(ctx); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData after clear, got %v", err)
	}
}

func TestFileStoreCorruptFileLoadsDefault(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	state, err := NewRepository(fs, quietLogger()).Load(ctx)
	if err != nil {
		t.Fatalf("corrupt file should not be an error: %v", err)
	}
	if len(state.Transactions) != 0 {
		t.Fatalf("expected default state")
	}
}
