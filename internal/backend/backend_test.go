package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budgetshop/internal/config"
)

func TestKindValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{Memory, true},
		{SQLite, true},
		{Postgres, true},
		{Kind(""), false},
		{Kind("mysql"), false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("Kind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{DBBackend: "memory"}
	res, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if res.Store == nil {
		t.Fatal("Open returned nil store")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("memory cleanup: %v", err)
	}
}

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DBBackend:    "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	}
	res, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("ping opened store: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("sqlite cleanup: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := &config.Config{DBBackend: "cassandra"}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("Open accepted unknown backend")
	}
}
