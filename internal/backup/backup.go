// Package backup round-trips one web log's entire content graph through a
// single self-contained JSON document. Restore applies aggregates in
// dependency order using the stores' upsert operations, so re-running a
// partially applied restore completes it instead of failing; the same
// mechanism seeds test fixtures.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// ArchiveUser carries the password hash the model's JSON form withholds;
// a restored user must be able to sign in with their old password.
type ArchiveUser struct {
	model.WebLogUser
	PasswordHash string `json:"passwordHash"`
}

// Archive is the backup document for one web log. Binary payloads are
// base64 inside the JSON; timestamps are RFC 3339 with fractional seconds.
type Archive struct {
	WebLog     model.WebLog       `json:"webLog"`
	Users      []ArchiveUser      `json:"users"`
	Theme      *model.Theme       `json:"theme,omitempty"`
	Assets     []model.ThemeAsset `json:"assets,omitempty"`
	Categories []model.Category   `json:"categories,omitempty"`
	TagMaps    []model.TagMap     `json:"tagMappings,omitempty"`
	Pages      []model.Page       `json:"pages,omitempty"`
	Posts      []model.Post       `json:"posts,omitempty"`
	Uploads    []model.Upload     `json:"uploads,omitempty"`
}

// Export reads the full graph for one web log. It goes straight to storage,
// bypassing every cache.
func Export(ctx context.Context, data *store.Data, webLogID string) (*Archive, error) {
	webLog, err := data.WebLogs.FindByID(ctx, webLogID)
	if err != nil {
		return nil, err
	}
	if webLog == nil {
		return nil, fmt.Errorf("web log %s not found", webLogID)
	}

	archive := &Archive{WebLog: *webLog}

	users, err := data.Users.FindAll(ctx, webLogID)
	if err != nil {
		return nil, err
	}
	for i := range users {
		archive.Users = append(archive.Users, ArchiveUser{
			WebLogUser:   users[i],
			PasswordHash: users[i].PasswordHash,
		})
	}

	if archive.Theme, err = data.Themes.FindByID(ctx, webLog.ThemeID); err != nil {
		return nil, err
	}
	if archive.Theme != nil {
		if archive.Assets, err = data.ThemeAssets.FindByThemeWithData(ctx, webLog.ThemeID); err != nil {
			return nil, err
		}
	}

	if archive.Categories, err = data.Categories.FindAllByWebLog(ctx, webLogID); err != nil {
		return nil, err
	}
	if archive.TagMaps, err = data.TagMaps.FindAll(ctx, webLogID); err != nil {
		return nil, err
	}
	if archive.Pages, err = data.Pages.FindFullByWebLog(ctx, webLogID); err != nil {
		return nil, err
	}
	if archive.Posts, err = data.Posts.FindFullByWebLog(ctx, webLogID); err != nil {
		return nil, err
	}
	if archive.Uploads, err = data.Uploads.FindByWebLogWithData(ctx, webLogID); err != nil {
		return nil, err
	}

	return archive, nil
}

// Restore writes the archive into storage in dependency order: theme, the
// web log itself, users, categories, tag mappings, pages, posts, uploads.
// Every step is an upsert; restoring over existing data replaces it.
func Restore(ctx context.Context, data *store.Data, archive *Archive) error {
	if archive.Theme != nil {
		if err := data.Themes.Save(ctx, archive.Theme); err != nil {
			return fmt.Errorf("restore theme: %w", err)
		}
		for i := range archive.Assets {
			if err := data.ThemeAssets.Save(ctx, &archive.Assets[i]); err != nil {
				return fmt.Errorf("restore theme asset %s: %w", archive.Assets[i].Path, err)
			}
		}
	}

	if err := data.WebLogs.Save(ctx, &archive.WebLog); err != nil {
		return fmt.Errorf("restore web log: %w", err)
	}

	users := make([]model.WebLogUser, 0, len(archive.Users))
	for i := range archive.Users {
		user := archive.Users[i].WebLogUser
		user.PasswordHash = archive.Users[i].PasswordHash
		users = append(users, user)
	}
	if err := data.Users.Restore(ctx, users); err != nil {
		return fmt.Errorf("restore users: %w", err)
	}

	if err := data.Categories.Restore(ctx, archive.Categories); err != nil {
		return fmt.Errorf("restore categories: %w", err)
	}
	if err := data.TagMaps.Restore(ctx, archive.TagMaps); err != nil {
		return fmt.Errorf("restore tag mappings: %w", err)
	}
	if err := data.Pages.Restore(ctx, archive.Pages); err != nil {
		return fmt.Errorf("restore pages: %w", err)
	}
	if err := data.Posts.Restore(ctx, archive.Posts); err != nil {
		return fmt.Errorf("restore posts: %w", err)
	}
	if err := data.Uploads.Restore(ctx, archive.Uploads); err != nil {
		return fmt.Errorf("restore uploads: %w", err)
	}

	return nil
}

// Write renders the archive as indented JSON.
func (a *Archive) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// Read parses an archive document.
func Read(r io.Reader) (*Archive, error) {
	var archive Archive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return nil, err
	}
	return &archive, nil
}
