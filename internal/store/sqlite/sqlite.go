// Package sqlite implements the storage contract against SQLite. Child
// collections live in their own tables and are synchronized through the
// collection diff; multi-valued scalar fields (tags, metadata) are stored as
// JSON text since SQLite has no array columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bit-badger/myWebLog-sub005/internal/store"
	"github.com/bit-badger/myWebLog-sub005/internal/store/sqlite/migrations"
)

// timeFormat is fixed-width so stored timestamps sort lexicographically and
// round-trip with full fractional-second precision.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// NewData assembles the SQLite backend over an open connection pool.
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

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

func fmtNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fromJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// placeholders builds the "?, ?, ?" fragment for an IN clause.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
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
