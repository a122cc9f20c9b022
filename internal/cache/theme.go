package cache

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/bit-badger/myWebLog-sub005/internal/common"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// ThemeAssetCache holds every theme's binary assets in memory, keyed
// themeID/path. It is filled whole at startup and refreshed per theme when
// a theme is reinstalled; entries never expire on their own.
type ThemeAssetCache struct {
	cache  *common.Cache
	assets store.ThemeAssetStore
}

func NewThemeAssetCache(assets store.ThemeAssetStore) *ThemeAssetCache {
	return &ThemeAssetCache{
		cache:  common.NewCache(0, 0),
		assets: assets,
	}
}

// Fill loads the assets of every installed theme. Runs at startup.
func (c *ThemeAssetCache) Fill(ctx context.Context) error {
	all, err := c.assets.All(ctx)
	if err != nil {
		return err
	}

	themes := make(map[string]struct{})
	for _, asset := range all {
		themes[asset.ThemeID] = struct{}{}
	}
	for themeID := range themes {
		if err := c.RefreshTheme(ctx, themeID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the asset bytes, or false when the theme has no such asset.
func (c *ThemeAssetCache) Get(themeID, path string) ([]byte, bool) {
	value, ok := c.cache.Get(common.CacheKeyThemeAsset(themeID, path))
	if !ok {
		return nil, false
	}
	return value.([]byte), true
}

// RefreshTheme reloads one theme's assets. Entries are overwritten in place
// and only keys absent from the fresh load are removed, so a concurrent Get
// always sees either the prior value or the new one, never a gap.
func (c *ThemeAssetCache) RefreshTheme(ctx context.Context, themeID string) error {
	assets, err := c.assets.FindByThemeWithData(ctx, themeID)
	if err != nil {
		return err
	}

	fresh := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		key := common.CacheKeyThemeAsset(asset.ThemeID, asset.Path)
		fresh[key] = struct{}{}
		c.cache.Set(key, asset.Data)
	}

	prefix := common.CacheKeyThemePrefix(themeID)
	for _, key := range c.cache.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok := fresh[key]; !ok {
			c.cache.Delete(key)
		}
	}
	return nil
}

// RemoveTheme drops a deleted theme's assets.
func (c *ThemeAssetCache) RemoveTheme(themeID string) {
	c.cache.DeletePrefix(common.CacheKeyThemePrefix(themeID))
}

// TemplateCache holds parsed templates keyed themeID/name. Templates parse
// lazily on first render and are dropped per theme when it changes.
type TemplateCache struct {
	cache  *common.Cache
	themes store.ThemeStore
}

func NewTemplateCache(themes store.ThemeStore) *TemplateCache {
	return &TemplateCache{
		cache:  common.NewCache(0, 0),
		themes: themes,
	}
}

// Get returns the parsed template for themeID/name, parsing and caching it
// on first use. Concurrent first uses may both parse; each stores a whole
// parsed template, so readers never see a partial one.
func (c *TemplateCache) Get(ctx context.Context, themeID, name string) (*template.Template, error) {
	key := common.CacheKeyTemplate(themeID, name)
	if value, ok := c.cache.Get(key); ok {
		return value.(*template.Template), nil
	}

	theme, err := c.themes.FindByID(ctx, themeID)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		return nil, fmt.Errorf("theme %s not found", themeID)
	}

	for _, tmpl := range theme.Templates {
		if tmpl.Name != name {
			continue
		}
		parsed, err := template.New(name).Parse(tmpl.Text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", key, err)
		}
		c.cache.Set(key, parsed)
		return parsed, nil
	}

	return nil, fmt.Errorf("template %s not found", key)
}

// InvalidateTheme drops every parsed template for the theme; subsequent
// renders re-parse from storage.
func (c *TemplateCache) InvalidateTheme(themeID string) {
	c.cache.DeletePrefix(common.CacheKeyThemePrefix(themeID))
}
