package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

func TestWebLogCacheResolvesLongestBase(t *testing.T) {
	c := NewWebLogCache(nil)
	c.Set(&model.WebLog{ID: "root", URLBase: "http://example.com"})
	c.Set(&model.WebLog{ID: "sub", URLBase: "http://example.com/blog"})
	c.Set(&model.WebLog{ID: "other", URLBase: "http://other.example.com"})

	found, ok := c.Resolve("http://example.com/blog/2024/post.html")
	require.True(t, ok)
	assert.Equal(t, "sub", found.ID, "the deeper base path wins")

	found, ok = c.Resolve("http://example.com/about.html")
	require.True(t, ok)
	assert.Equal(t, "root", found.ID)

	found, ok = c.Resolve("http://example.com/bloggers/index.html")
	require.True(t, ok)
	assert.Equal(t, "root", found.ID, "prefix match respects path boundaries")

	_, ok = c.Resolve("http://unknown.example.com/")
	assert.False(t, ok)

	c.Remove("http://example.com/blog")
	found, ok = c.Resolve("http://example.com/blog/2024/post.html")
	require.True(t, ok)
	assert.Equal(t, "root", found.ID)
}

func TestKeyedCachePopulatesLazily(t *testing.T) {
	var loads atomic.Int32
	c := NewKeyedCache(func(ctx context.Context, key string) (string, error) {
		loads.Add(1)
		return "value-" + key, nil
	})
	ctx := context.Background()

	_, ok := c.TryGet("a")
	assert.False(t, ok, "TryGet never populates")
	assert.False(t, c.Exists("a"))

	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", v)
	assert.Equal(t, int32(1), loads.Load())

	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load(), "second read is a cache hit")

	c.Remove("a")
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load(), "removed keys repopulate")
}

func TestKeyedCacheRefreshDoesNotBlockOtherKeys(t *testing.T) {
	release := make(chan struct{})
	c := NewKeyedCache(func(ctx context.Context, key string) (string, error) {
		if key == "slow" {
			<-release
		}
		return "value-" + key, nil
	})
	ctx := context.Background()

	_, err := c.Get(ctx, "fast")
	require.NoError(t, err)

	refreshing := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(refreshing)
		_ = c.Refresh(ctx, "slow")
		close(done)
	}()
	<-refreshing

	// reads of another key complete while the slow refresh is in flight
	fastRead := make(chan struct{})
	go func() {
		_, err := c.Get(ctx, "fast")
		assert.NoError(t, err)
		close(fastRead)
	}()

	select {
	case <-fastRead:
	case <-time.After(2 * time.Second):
		t.Fatal("read of an unrelated key blocked behind a refresh")
	}

	close(release)
	<-done
}

// Concurrent readers must see the pre-refresh or post-refresh list whole,
// never a mix.
func TestKeyedCacheReadsAreNeverTorn(t *testing.T) {
	generation := atomic.Int32{}
	c := NewKeyedCache(func(ctx context.Context, key string) ([]string, error) {
		gen := fmt.Sprintf("gen-%d", generation.Load())
		list := make([]string, 50)
		for i := range list {
			list[i] = gen
		}
		return list, nil
	})
	ctx := context.Background()

	_, err := c.Get(ctx, "tenant")
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := atomic.Bool{}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				list, err := c.Get(ctx, "tenant")
				if err != nil || len(list) != 50 {
					torn.Store(true)
					return
				}
				for _, v := range list {
					if v != list[0] {
						torn.Store(true)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		generation.Add(1)
		require.NoError(t, c.Refresh(ctx, "tenant"))
	}
	close(stop)
	wg.Wait()

	assert.False(t, torn.Load(), "a reader observed a partially refreshed value")
}

type fakeAssetStore struct {
	mu     sync.Mutex
	assets []model.ThemeAsset
}

func (f *fakeAssetStore) All(ctx context.Context) ([]model.ThemeAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ThemeAsset, len(f.assets))
	for i, a := range f.assets {
		a.Data = nil
		out[i] = a
	}
	return out, nil
}

func (f *fakeAssetStore) FindByPath(ctx context.Context, themeID, path string) (*model.ThemeAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assets {
		if a.ThemeID == themeID && a.Path == path {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAssetStore) FindByTheme(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	assets, err := f.FindByThemeWithData(ctx, themeID)
	for i := range assets {
		assets[i].Data = nil
	}
	return assets, err
}

func (f *fakeAssetStore) FindByThemeWithData(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ThemeAsset
	for _, a := range f.assets {
		if a.ThemeID == themeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssetStore) Save(ctx context.Context, asset *model.ThemeAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.assets {
		if f.assets[i].ThemeID == asset.ThemeID && f.assets[i].Path == asset.Path {
			f.assets[i] = *asset
			return nil
		}
	}
	f.assets = append(f.assets, *asset)
	return nil
}

func (f *fakeAssetStore) DeleteByTheme(ctx context.Context, themeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.assets[:0]
	for _, a := range f.assets {
		if a.ThemeID != themeID {
			kept = append(kept, a)
		}
	}
	f.assets = kept
	return nil
}

func TestThemeAssetCacheFillAndRefresh(t *testing.T) {
	assets := &fakeAssetStore{assets: []model.ThemeAsset{
		{ThemeID: "default", Path: "style.css", Data: []byte("body{}")},
		{ThemeID: "dark", Path: "style.css", Data: []byte("body{background:#000}")},
	}}
	c := NewThemeAssetCache(assets)
	ctx := context.Background()

	require.NoError(t, c.Fill(ctx))

	data, ok := c.Get("default", "style.css")
	require.True(t, ok)
	assert.Equal(t, []byte("body{}"), data)

	// reinstalling a theme replaces its assets without touching others
	require.NoError(t, assets.Save(ctx, &model.ThemeAsset{
		ThemeID: "default", Path: "style.css", Data: []byte("body{margin:0}"),
	}))
	require.NoError(t, c.RefreshTheme(ctx, "default"))

	data, ok = c.Get("default", "style.css")
	require.True(t, ok)
	assert.Equal(t, []byte("body{margin:0}"), data)

	data, ok = c.Get("dark", "style.css")
	require.True(t, ok)
	assert.Equal(t, []byte("body{background:#000}"), data)

	c.RemoveTheme("dark")
	_, ok = c.Get("dark", "style.css")
	assert.False(t, ok)
}

// A refresh overwrites entries in place, so a concurrent read sees the old
// bytes or the new bytes but never a miss; assets dropped from the theme
// still leave the cache.
func TestThemeAssetCacheRefreshNeverDropsReads(t *testing.T) {
	assets := &fakeAssetStore{assets: []model.ThemeAsset{
		{ThemeID: "default", Path: "app.js", Data: []byte("v0")},
		{ThemeID: "default", Path: "old.css", Data: []byte("removed on reinstall")},
	}}
	c := NewThemeAssetCache(assets)
	ctx := context.Background()
	require.NoError(t, c.Fill(ctx))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	missed := atomic.Bool{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, ok := c.Get("default", "app.js"); !ok {
					missed.Store(true)
					return
				}
			}
		}()
	}

	require.NoError(t, assets.DeleteByTheme(ctx, "default"))
	require.NoError(t, assets.Save(ctx, &model.ThemeAsset{
		ThemeID: "default", Path: "app.js", Data: []byte("v1"),
	}))
	for i := 0; i < 500; i++ {
		require.NoError(t, c.RefreshTheme(ctx, "default"))
	}
	close(stop)
	wg.Wait()

	assert.False(t, missed.Load(), "a reader observed a miss during a refresh")
	_, ok := c.Get("default", "old.css")
	assert.False(t, ok, "assets absent from the fresh load are removed")
	data, ok := c.Get("default", "app.js")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), data)
}

type fakeThemeStore struct {
	themes map[string]*model.Theme
	loads  atomic.Int32
}

func (f *fakeThemeStore) All(ctx context.Context) ([]model.Theme, error) { return nil, nil }

func (f *fakeThemeStore) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.themes[id]
	return ok, nil
}

func (f *fakeThemeStore) FindByID(ctx context.Context, id string) (*model.Theme, error) {
	f.loads.Add(1)
	return f.themes[id], nil
}

func (f *fakeThemeStore) Save(ctx context.Context, theme *model.Theme) error {
	f.themes[theme.ID] = theme
	return nil
}

func (f *fakeThemeStore) Delete(ctx context.Context, id string) (store.DeleteOutcome, error) {
	delete(f.themes, id)
	return store.Deleted, nil
}

func TestTemplateCacheParsesLazilyAndInvalidatesPerTheme(t *testing.T) {
	themes := &fakeThemeStore{themes: map[string]*model.Theme{
		"default": {ID: "default", Name: "Default", Version: "1.0", Templates: []model.ThemeTemplate{
			{Name: "single-post", Text: "<h1>{{.Title}}</h1>"},
		}},
	}}
	c := NewTemplateCache(themes)
	ctx := context.Background()

	tmpl, err := c.Get(ctx, "default", "single-post")
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, int32(1), themes.loads.Load())

	_, err = c.Get(ctx, "default", "single-post")
	require.NoError(t, err)
	assert.Equal(t, int32(1), themes.loads.Load(), "second render hits the cache")

	_, err = c.Get(ctx, "default", "no-such-template")
	assert.Error(t, err)

	c.InvalidateTheme("default")
	_, err = c.Get(ctx, "default", "single-post")
	require.NoError(t, err)
	assert.Equal(t, int32(3), themes.loads.Load(), "invalidation forces a re-parse")
}
