// Package cache holds the five process-wide caches backing hot-path reads.
// The set is constructed once at startup and passed by reference; each
// cache replaces values atomically per key, so readers see the old value or
// the new one but never a partial write, and refreshing one tenant or theme
// never blocks reads for another.
package cache

import (
	"context"

	"github.com/bit-badger/myWebLog-sub005/internal/hierarchy"
	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// Caches bundles every cache the engine runs with.
type Caches struct {
	WebLogs     *WebLogCache
	PageLists   *KeyedCache[[]model.Page]
	Categories  *KeyedCache[[]hierarchy.DisplayCategory]
	ThemeAssets *ThemeAssetCache
	Templates   *TemplateCache
}

// NewCaches wires the cache set to its backing stores.
func NewCaches(data *store.Data) *Caches {
	return &Caches{
		WebLogs:     NewWebLogCache(data.WebLogs),
		PageLists:   NewPageListCache(data.Pages),
		Categories:  NewCategoryCache(data.Categories, data.Posts),
		ThemeAssets: NewThemeAssetCache(data.ThemeAssets),
		Templates:   NewTemplateCache(data.Themes),
	}
}

// NewPageListCache lazily holds each web log's page-list navigation entries.
func NewPageListCache(pages store.PageStore) *KeyedCache[[]model.Page] {
	return NewKeyedCache(pages.FindAllInPageList)
}

// NewCategoryCache lazily holds each web log's resolved category tree with
// rolled-up post counts.
func NewCategoryCache(categories store.CategoryStore, posts store.PostStore) *KeyedCache[[]hierarchy.DisplayCategory] {
	return NewKeyedCache(func(ctx context.Context, webLogID string) ([]hierarchy.DisplayCategory, error) {
		cats, err := categories.FindAllByWebLog(ctx, webLogID)
		if err != nil {
			return nil, err
		}
		return hierarchy.Resolve(ctx, cats, func(ctx context.Context, categoryIDs []string) (int, error) {
			return posts.CountByCategory(ctx, webLogID, categoryIDs)
		})
	})
}
