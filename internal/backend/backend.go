// Package backend opens the store implementation selected by
// configuration. The API server, the workers and the admin CLI share
// this one switch so every binary resolves DB_BACKEND the same way.
package backend

import (
	"context"
	"fmt"

	"budgetshop/internal/config"
	"budgetshop/internal/log"
	"budgetshop/internal/store"
	"budgetshop/internal/store/memory"
	"budgetshop/internal/store/postgres"
	"budgetshop/internal/store/sqlite"
)

// Kind names a store implementation.
type Kind string

const (
	Memory   Kind = "memory"
	SQLite   Kind = "sqlite"
	Postgres Kind = "postgres"
)

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	switch k {
	case Memory, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// Kinds returns every supported backend kind.
func Kinds() []Kind {
	return []Kind{Memory, SQLite, Postgres}
}

// Result bundles an opened store with its cleanup. Cleanup is never
// nil; the memory store gets a no-op.
type Result struct {
	Store   store.Store
	Cleanup func() error
}

// Open builds the store selected by cfg.DBBackend. SQLite and Postgres
// run their embedded migrations before returning, so a freshly opened
// store is always at the current schema.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	kind := Kind(cfg.DBBackend)
	switch kind {
	case Memory:
		logger.InfoContext(ctx, "Opened in-memory store, data is lost on exit")
		return &Result{Store: memory.New(), Cleanup: func() error { return nil }}, nil

	case SQLite:
		st, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.InfoContext(ctx, "Opened SQLite store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: st, Cleanup: st.Close}, nil

	case Postgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.InfoContext(ctx, "Opened Postgres store")
		return &Result{Store: st, Cleanup: st.Close}, nil

	default:
		return nil, fmt.Errorf("unknown db backend %q, want one of %v", cfg.DBBackend, Kinds())
	}
}
