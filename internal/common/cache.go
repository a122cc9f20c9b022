package common

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

// NewCache wraps go-cache. Pass zero durations for entries that never expire;
// the theme asset and template caches are invalidated explicitly, never by TTL.
func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Delete(key string) {
	c.Cache.Delete(key)
}

// DeletePrefix removes every entry whose key starts with the prefix. Used to
// drop all assets or templates for one theme without touching other themes.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

func (c *Cache) Keys() []string {
	items := c.Cache.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	return keys
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

func CacheKeyThemeAsset(themeID, path string) string {
	return themeID + "/" + path
}

func CacheKeyTemplate(themeID, name string) string {
	return themeID + "/" + name
}

func CacheKeyThemePrefix(themeID string) string {
	return themeID + "/"
}
