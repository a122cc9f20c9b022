package main

import (
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/bit-badger/myWebLog-sub005/internal/common"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
	"github.com/bit-badger/myWebLog-sub005/internal/store/postgres"
	"github.com/bit-badger/myWebLog-sub005/internal/store/sqlite"
	"github.com/bit-badger/myWebLog-sub005/internal/store/surreal"
)

// openData selects and connects the configured backend. This is the only
// place in the program that knows which backend is running; everything
// downstream works through the store interfaces.
func openData(cfg *Config) (*store.Data, error) {
	switch cfg.Backend {
	case BackendPostgres:
		db, err := common.NewPostgresDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User,
			cfg.DB.Password, cfg.DB.Name, 10, 5, 15*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewData(db), nil

	case BackendSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "./data/myweblog.db"
		}
		db, err := common.NewSQLiteDB(path, 10, 5, 15*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.NewData(db), nil

	case BackendSurreal:
		db, err := common.NewSurrealDB(cfg.Surreal.URL, cfg.Surreal.User,
			cfg.Surreal.Password, cfg.Surreal.Namespace, cfg.Surreal.Database)
		if err != nil {
			return nil, fmt.Errorf("connect surrealdb: %w", err)
		}
		return surreal.NewData(db), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
