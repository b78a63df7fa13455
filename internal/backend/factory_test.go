package backend

import (
	"context"
	"path/filepath"
	"testing"

	"finhealth/internal/config"
	"finhealth/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{StateBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{StateBackend: "file", StateFile: "/tmp/s.json", StateKey: "k"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != FileBackend || cfg.StateFile != "/tmp/s.json" || cfg.StateKey != "k" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCreateBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "state.db"), StateKey: "test_state"}},
		{"file", Config{Type: FileBackend, StateFile: filepath.Join(dir, "state.json")}},
		{"memory", Config{Type: MemoryBackend}},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := f.CreateBackend(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			if res.Cleanup != nil {
				t.Cleanup(func() { _ = res.Cleanup() })
			}
			if err := res.Ready(ctx); err != nil {
				t.Fatalf("Ready: %v", err)
			}

			if _, ok, err := res.Store.Load(ctx); err != nil || ok {
				t.Fatalf("fresh store should be empty: ok=%v err=%v", ok, err)
			}
			st := core.NewAppState()
			st.HealthPoints = 215
			if err := res.Store.Save(ctx, st); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, ok, err := res.Store.Load(ctx)
			if err != nil || !ok || got.HealthPoints != 215 {
				t.Fatalf("Load = %+v ok=%v err=%v", got.HealthPoints, ok, err)
			}
		})
	}
}

func TestCreateBackendValidates(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected error for missing sqlite path")
	}
	if _, err := f.CreateBackend(context.Background(), Config{Type: "redis"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
