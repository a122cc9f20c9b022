// Package postgres implements the storage contract against PostgreSQL,
// leaning on its native array and JSONB columns: tags live in a TEXT[]
// matched with = ANY, scoped filters use array parameters instead of
// interpolated IN lists, and structured fields are JSONB.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bit-badger/myWebLog-sub005/internal/store"
	"github.com/bit-badger/myWebLog-sub005/internal/store/postgres/migrations"
)

// NewData assembles the Postgres backend over an open connection pool.
// Connections are acquired per operation from the pool and released on
// completion; nothing is shared between concurrent requests.
func NewData(db *sql.DB) *store.Data {
	return &store.Data{
		WebLogs:     &webLogStore{db},
		Categories:  &categoryStore{db},
		Pages:       &pageStore{db},
		Posts:       &postStore{db},
		Users:       &userStore{db},
		Themes:      &themeStore{db},
		ThemeAssets: &themeAssetStore{db},
		TagMaps:     &tagMapStore{db},
		Uploads:     &uploadStore{db},
		Lifecycle:   &lifecycle{db},
	}
}

type lifecycle struct {
	db *sql.DB
}

func (l *lifecycle) StartUp(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return err
	}
	return migrations.MigrateUp(l.db)
}

func (l *lifecycle) Close() error {
	return l.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func fromJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// nilOnNoRows turns the driver's no-rows error into the contract's nil result.
func nilOnNoRows[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// inTx runs fn inside a transaction, committing on success.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
