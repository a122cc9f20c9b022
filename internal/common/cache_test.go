package common

import "testing"

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	// Set up the test environment
	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_Set(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")

	if _, ok := cache.Get("key"); !ok {
		t.Error("expected key to be set")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Delete("key")

	if _, ok := cache.Get("key"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyThemeAsset("default", "style.css"), []byte("a"))
	cache.Set(CacheKeyThemeAsset("default", "logo.png"), []byte("b"))
	cache.Set(CacheKeyThemeAsset("other", "style.css"), []byte("c"))

	cache.DeletePrefix(CacheKeyThemePrefix("default"))

	if _, ok := cache.Get(CacheKeyThemeAsset("default", "style.css")); ok {
		t.Error("expected default theme assets to be deleted")
	}
	if _, ok := cache.Get(CacheKeyThemeAsset("other", "style.css")); !ok {
		t.Error("expected other theme assets to survive")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Flush()

	if _, ok := cache.Get("key"); ok {
		t.Error("expected cache to be flushed")
	}
}
