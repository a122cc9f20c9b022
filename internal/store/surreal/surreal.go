// Package surreal implements the storage contract against SurrealDB. Each
// aggregate is one document: revisions, prior permalinks, and category links
// live embedded in their page or post, and saves replace the whole document.
// Scoped queries filter on the webLogId field; multi-step operations run as
// a single multi-statement transaction over the shared websocket connection.
package surreal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/marshal"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// NewData assembles the SurrealDB backend over the signed-in connection.
func NewData(db *surrealdb.DB) *store.Data {
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
	db *surrealdb.DB
}

// StartUp defines the tables and indexes. Every DEFINE is idempotent, so
// running it against an already-initialized database is harmless.
func (l *lifecycle) StartUp(ctx context.Context) error {
	const schema = `
		DEFINE TABLE web_log SCHEMALESS;
		DEFINE INDEX idx_web_log_url ON TABLE web_log COLUMNS urlBase;
		DEFINE TABLE category SCHEMALESS;
		DEFINE INDEX idx_category_web_log ON TABLE category COLUMNS webLogId;
		DEFINE TABLE web_log_user SCHEMALESS;
		DEFINE INDEX idx_user_web_log ON TABLE web_log_user COLUMNS webLogId, email;
		DEFINE TABLE page SCHEMALESS;
		DEFINE INDEX idx_page_web_log ON TABLE page COLUMNS webLogId;
		DEFINE INDEX idx_page_permalink ON TABLE page COLUMNS webLogId, permalink;
		DEFINE TABLE post SCHEMALESS;
		DEFINE INDEX idx_post_web_log ON TABLE post COLUMNS webLogId;
		DEFINE INDEX idx_post_permalink ON TABLE post COLUMNS webLogId, permalink;
		DEFINE TABLE tag_map SCHEMALESS;
		DEFINE INDEX idx_tag_map_web_log ON TABLE tag_map COLUMNS webLogId, urlValue;
		DEFINE TABLE theme SCHEMALESS;
		DEFINE TABLE theme_asset SCHEMALESS;
		DEFINE INDEX idx_theme_asset ON TABLE theme_asset COLUMNS themeId, path;
		DEFINE TABLE upload SCHEMALESS;
		DEFINE INDEX idx_upload_web_log ON TABLE upload COLUMNS webLogId, path;`

	_, err := l.db.Query(schema, nil)
	return err
}

func (l *lifecycle) Close() error {
	l.db.Close()
	return nil
}

// plainID strips the table prefix and any escaping brackets from a record id
// the database hands back, leaving the entity's own identifier.
func plainID(raw string) string {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.Trim(raw, "⟨⟩`")
}

// queryAll runs a single SELECT statement and unmarshals its result set.
func queryAll[T any](db *surrealdb.DB, query string, vars map[string]any) ([]T, error) {
	res, err := db.Query(query, vars)
	return marshal.SmartUnmarshal[T](res, err)
}

// queryOne returns the first result of a SELECT, or nil on a miss.
func queryOne[T any](db *surrealdb.DB, query string, vars map[string]any) (*T, error) {
	results, err := queryAll[T](db, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

type countResult struct {
	Count int `json:"count"`
}

// queryCount runs a "SELECT count() ... GROUP ALL" statement. No matching
// rows yields an empty result set, which counts as zero.
func queryCount(db *surrealdb.DB, query string, vars map[string]any) (int, error) {
	result, err := queryOne[countResult](db, query, vars)
	if err != nil || result == nil {
		return 0, err
	}
	return result.Count, nil
}

// querySteps runs a multi-statement query and returns the raw per-statement
// results so callers can inspect each step of a transaction.
func querySteps(db *surrealdb.DB, query string, vars map[string]any) ([]marshal.RawQuery[json.RawMessage], error) {
	res, err := db.Query(query, vars)
	if err != nil {
		return nil, err
	}

	var steps []marshal.RawQuery[json.RawMessage]
	if err := marshal.UnmarshalRaw(res, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// stepLen reports how many records one statement of a transaction returned.
func stepLen(steps []marshal.RawQuery[json.RawMessage], idx int) (int, error) {
	if idx >= len(steps) {
		return 0, fmt.Errorf("transaction returned %d results, wanted at least %d", len(steps), idx+1)
	}

	var records []json.RawMessage
	if len(steps[idx].Result) > 0 {
		if err := json.Unmarshal(steps[idx].Result, &records); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// deleteScoped removes one record after confirming it belongs to the web log.
func deleteScoped(db *surrealdb.DB, table, webLogID, id string) (store.DeleteOutcome, error) {
	steps, err := querySteps(db,
		`DELETE type::thing($tb, $id) WHERE webLogId = $webLogId RETURN BEFORE`,
		map[string]any{"tb": table, "id": id, "webLogId": webLogID})
	if err != nil {
		return store.NotDeleted, err
	}

	n, err := stepLen(steps, 0)
	if err != nil {
		return store.NotDeleted, err
	}
	if n == 0 {
		return store.NotDeleted, nil
	}
	return store.Deleted, nil
}

// upsert replaces the whole document under a deterministic record id.
func upsert(db *surrealdb.DB, table, id string, doc any) error {
	data, err := content(doc)
	if err != nil {
		return err
	}
	_, err = db.Query(
		`UPDATE type::thing($tb, $id) CONTENT $data`,
		map[string]any{"tb": table, "id": id, "data": data})
	return err
}

// utcRevisions copies a revision list with every AsOf in UTC. Documents
// store UTC instants so the same data serializes identically no matter
// which wall clock built it.
func utcRevisions(revs []model.Revision) []model.Revision {
	if revs == nil {
		return nil
	}
	out := make([]model.Revision, len(revs))
	for i, rev := range revs {
		rev.AsOf = rev.AsOf.UTC()
		out[i] = rev
	}
	return out
}

// content renders a document for storage. The id field is dropped; the
// record id named in the statement is authoritative.
func content(doc any) (map[string]any, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(encoded, &data); err != nil {
		return nil, err
	}
	delete(data, "id")
	return data, nil
}
