// Package store defines the capability interfaces every storage backend
// implements. Handler, cache, and backup code reaches storage only through
// these interfaces; the concrete backend is chosen once at startup.
//
// Contract notes that apply to every backend identically:
//
//   - Find operations report a miss as a nil result with a nil error.
//     Not-found is a normal outcome, never an error value.
//   - Paged listings fetch pageSize+1 rows so has-next can be derived
//     without a second count query, and return all of them. Callers strip
//     the sentinel row with TrimPage before display.
//   - Mutations that can fail in expected ways return a DeleteOutcome or a
//     typed error such as ErrUserHasContent; only unexpected backend faults
//     surface as plain errors.
//   - Restore* operations are idempotent bulk upserts keyed by ID, safe to
//     re-run over a partially restored graph.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

// ErrUserHasContent is returned when deleting a user who still authors
// extant pages or posts. Detected by an explicit pre-check, not by a
// database constraint.
var ErrUserHasContent = errors.New("user has authored pages or posts")

// DeleteOutcome distinguishes the expected results of a delete.
type DeleteOutcome int

const (
	// NotDeleted means no entity matched.
	NotDeleted DeleteOutcome = iota
	// Deleted means the entity was removed with no side effects.
	Deleted
	// DeletedWithChildrenReassigned means a category was removed and its
	// children were reattached to the category's own parent.
	DeletedWithChildrenReassigned
)

// TrimPage strips the has-next sentinel row from a pageSize+1 listing,
// returning the rows to display and whether a further page exists.
func TrimPage[T any](items []T, pageSize int) ([]T, bool) {
	if len(items) > pageSize {
		return items[:pageSize], true
	}
	return items, false
}

// PageOffset converts a 1-based page number into the offset and fetch limit
// (pageSize+1) for the paged-listing contract.
func PageOffset(pageNbr, pageSize int) (offset, limit int) {
	if pageNbr < 1 {
		pageNbr = 1
	}
	return (pageNbr - 1) * pageSize, pageSize + 1
}

// WebLogStore manages tenants.
type WebLogStore interface {
	Add(ctx context.Context, webLog *model.WebLog) error
	All(ctx context.Context) ([]model.WebLog, error)
	FindByID(ctx context.Context, id string) (*model.WebLog, error)
	FindByHost(ctx context.Context, urlBase string) (*model.WebLog, error)
	Update(ctx context.Context, webLog *model.WebLog) error
	// Save is the idempotent upsert used by restore.
	Save(ctx context.Context, webLog *model.WebLog) error
}

// CategoryStore manages one web log's category forest.
type CategoryStore interface {
	Add(ctx context.Context, cat *model.Category) error
	CountAll(ctx context.Context, webLogID string) (int, error)
	CountTopLevel(ctx context.Context, webLogID string) (int, error)
	FindAllByWebLog(ctx context.Context, webLogID string) ([]model.Category, error)
	FindByID(ctx context.Context, webLogID, id string) (*model.Category, error)
	Update(ctx context.Context, cat *model.Category) error
	// Delete reassigns the category's children to its own parent and strips
	// the category from every post referencing it, in the same logical
	// operation as the removal.
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	Restore(ctx context.Context, cats []model.Category) error
}

// PageStore manages pages and their revisions and prior permalinks.
type PageStore interface {
	Add(ctx context.Context, page *model.Page) error
	All(ctx context.Context, webLogID string) ([]model.Page, error)
	CountAll(ctx context.Context, webLogID string) (int, error)
	CountInPageList(ctx context.Context, webLogID string) (int, error)
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	FindByID(ctx context.Context, webLogID, id string) (*model.Page, error)
	FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Page, error)
	// FindCurrentPermalink resolves a set of candidate prior permalinks to
	// the single current permalink, or "" when no candidate matches.
	FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error)
	FindAllInPageList(ctx context.Context, webLogID string) ([]model.Page, error)
	// FindFullByWebLog loads every page with revisions and prior
	// permalinks attached; used by backup.
	FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Page, error)
	FindPage(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Page, error)
	// Update writes changed scalar fields and synchronizes revisions and
	// prior permalinks through the collection diff.
	Update(ctx context.Context, page *model.Page) error
	Restore(ctx context.Context, pages []model.Page) error
}

// PostStore manages posts, their revisions, category links, and episodes.
type PostStore interface {
	Add(ctx context.Context, post *model.Post) error
	// CountByCategory counts distinct published posts whose category list
	// intersects the given IDs. Callers pass a category plus its
	// descendants to roll counts up the hierarchy.
	CountByCategory(ctx context.Context, webLogID string, categoryIDs []string) (int, error)
	CountByStatus(ctx context.Context, webLogID string, status model.PostStatus) (int, error)
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	FindByID(ctx context.Context, webLogID, id string) (*model.Post, error)
	FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Post, error)
	FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error)
	// FindFullByWebLog loads every post with revisions, category links,
	// and episode attached; used by backup.
	FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Post, error)
	FindPageOfPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error)
	FindPageOfPublishedPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error)
	FindPageOfCategorizedPosts(ctx context.Context, webLogID string, categoryIDs []string, pageNbr, pageSize int) ([]model.Post, error)
	FindPageOfTaggedPosts(ctx context.Context, webLogID, tag string, pageNbr, pageSize int) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Restore(ctx context.Context, posts []model.Post) error
}

// UserStore manages web log users.
type UserStore interface {
	Add(ctx context.Context, user *model.WebLogUser) error
	FindAll(ctx context.Context, webLogID string) ([]model.WebLogUser, error)
	FindByEmail(ctx context.Context, webLogID, email string) (*model.WebLogUser, error)
	FindByID(ctx context.Context, webLogID, id string) (*model.WebLogUser, error)
	SetLastSeen(ctx context.Context, webLogID, id string, at time.Time) error
	Update(ctx context.Context, user *model.WebLogUser) error
	// Delete fails with ErrUserHasContent when the user authors any extant
	// page or post.
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	Restore(ctx context.Context, users []model.WebLogUser) error
}

// ThemeStore manages themes and their templates.
type ThemeStore interface {
	All(ctx context.Context) ([]model.Theme, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Theme, error)
	Save(ctx context.Context, theme *model.Theme) error
	Delete(ctx context.Context, id string) (DeleteOutcome, error)
}

// ThemeAssetStore manages binary theme assets keyed by (themeID, path).
type ThemeAssetStore interface {
	// All returns every asset without its binary data.
	All(ctx context.Context) ([]model.ThemeAsset, error)
	FindByPath(ctx context.Context, themeID, path string) (*model.ThemeAsset, error)
	FindByTheme(ctx context.Context, themeID string) ([]model.ThemeAsset, error)
	FindByThemeWithData(ctx context.Context, themeID string) ([]model.ThemeAsset, error)
	Save(ctx context.Context, asset *model.ThemeAsset) error
	DeleteByTheme(ctx context.Context, themeID string) error
}

// TagMapStore manages per-web-log tag URL overrides.
type TagMapStore interface {
	FindAll(ctx context.Context, webLogID string) ([]model.TagMap, error)
	FindByID(ctx context.Context, webLogID, id string) (*model.TagMap, error)
	FindByURLValue(ctx context.Context, webLogID, urlValue string) (*model.TagMap, error)
	FindMappingForTags(ctx context.Context, webLogID string, tags []string) ([]model.TagMap, error)
	Save(ctx context.Context, tagMap *model.TagMap) error
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	Restore(ctx context.Context, tagMaps []model.TagMap) error
}

// UploadStore manages uploaded files.
type UploadStore interface {
	Add(ctx context.Context, upload *model.Upload) error
	Delete(ctx context.Context, webLogID, id string) (DeleteOutcome, error)
	FindByPath(ctx context.Context, webLogID, path string) (*model.Upload, error)
	// FindByWebLog returns uploads without their binary data.
	FindByWebLog(ctx context.Context, webLogID string) ([]model.Upload, error)
	FindByWebLogWithData(ctx context.Context, webLogID string) ([]model.Upload, error)
	Restore(ctx context.Context, uploads []model.Upload) error
}

// Lifecycle is the connection-level surface of a backend.
type Lifecycle interface {
	// StartUp verifies connectivity and ensures schema presence (additive
	// create-if-missing only).
	StartUp(ctx context.Context) error
	Close() error
}

// Data bundles one backend's capability implementations. It is constructed
// once at process start and injected everywhere storage is needed.
type Data struct {
	WebLogs     WebLogStore
	Categories  CategoryStore
	Pages       PageStore
	Posts       PostStore
	Users       UserStore
	Themes      ThemeStore
	ThemeAssets ThemeAssetStore
	TagMaps     TagMapStore
	Uploads     UploadStore

	Lifecycle Lifecycle
}

// StartUp delegates to the backend's lifecycle.
func (d *Data) StartUp(ctx context.Context) error {
	return d.Lifecycle.StartUp(ctx)
}

// Close delegates to the backend's lifecycle.
func (d *Data) Close() error {
	return d.Lifecycle.Close()
}
