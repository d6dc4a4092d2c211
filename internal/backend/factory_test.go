package backend

import (
	"context"
	"path/filepath"
	"testing"

	"dompet/internal/config"
	"dompet/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
		check   func(t *testing.T, b storage.Backend)
	}{
		{
			name:   "sqlite",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "dompet.db"), StateKey: "dompet.state"},
			check: func(t *testing.T, b storage.Backend) {
				if _, ok := b.(*storage.SQLiteStore); !ok {
					t.Errorf("expected *storage.SQLiteStore, got %T", b)
				}
			},
		},
		{
			name:   "file",
			config: Config{Type: FileBackend, StateFilePath: filepath.Join(dir, "state.json")},
			check: func(t *testing.T, b storage.Backend) {
				if _, ok := b.(*storage.FileStore); !ok {
					t.Errorf("expected *storage.FileStore, got %T", b)
				}
			},
		},
		{
			name:   "memory",
			config: Config{Type: MemoryBackend},
			check: func(t *testing.T, b storage.Backend) {
				if _, ok := b.(*storage.MemoryStore); !ok {
					t.Errorf("expected *storage.MemoryStore, got %T", b)
				}
			},
		},
		{name: "unknown type", config: Config{Type: "sheets"}, wantErr: true},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend, StateKey: "k"}, wantErr: true},
		{name: "file without path", config: Config{Type: FileBackend}, wantErr: true},
	}

	factory := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := factory.CreateBackend(context.Background(), tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()
			tt.check(t, res.Backend)

			ctx := context.Background()
			if err := res.Backend.Save(ctx, []byte(`{}`)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if data, err := res.Backend.Load(ctx); err != nil || string(data) != `{}` {
				t.Fatalf("load: %q %v", data, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{StorageBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{StorageBackend: "file", StateFilePath: "x.json", StateKey: "k"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != FileBackend || cfg.StateFilePath != "x.json" || cfg.StateKey != "k" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" || got[1] != "file" || got[2] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
