package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// WebLogCache maps URL bases to their web logs. It is filled whole at
// startup and kept current by the settings handlers; requests resolve
// against it on every hit, so reads take only a shared lock.
type WebLogCache struct {
	mu      sync.RWMutex
	byBase  map[string]model.WebLog
	webLogs store.WebLogStore
}

func NewWebLogCache(webLogs store.WebLogStore) *WebLogCache {
	return &WebLogCache{
		byBase:  make(map[string]model.WebLog),
		webLogs: webLogs,
	}
}

// Fill replaces the whole map from storage. Runs at startup, before any
// request is accepted.
func (c *WebLogCache) Fill(ctx context.Context) error {
	all, err := c.webLogs.All(ctx)
	if err != nil {
		return err
	}

	byBase := make(map[string]model.WebLog, len(all))
	for _, webLog := range all {
		byBase[strings.TrimSuffix(webLog.URLBase, "/")] = webLog
	}

	c.mu.Lock()
	c.byBase = byBase
	c.mu.Unlock()
	return nil
}

// Resolve finds the web log serving the given request URL. A tenant may be
// scoped to a sub-path of its host, so the longest matching URL base wins.
func (c *WebLogCache) Resolve(requestURL string) (*model.WebLog, bool) {
	requestURL = strings.TrimSuffix(requestURL, "/")

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best    model.WebLog
		bestLen = -1
	)
	for base, webLog := range c.byBase {
		if requestURL != base && !strings.HasPrefix(requestURL, base+"/") {
			continue
		}
		if len(base) > bestLen {
			best, bestLen = webLog, len(base)
		}
	}

	if bestLen < 0 {
		return nil, false
	}
	return &best, true
}

// Set stores or replaces one web log after a settings mutation.
func (c *WebLogCache) Set(webLog *model.WebLog) {
	c.mu.Lock()
	c.byBase[strings.TrimSuffix(webLog.URLBase, "/")] = *webLog
	c.mu.Unlock()
}

func (c *WebLogCache) Remove(urlBase string) {
	c.mu.Lock()
	delete(c.byBase, strings.TrimSuffix(urlBase, "/"))
	c.mu.Unlock()
}

func (c *WebLogCache) Exists(urlBase string) bool {
	c.mu.RLock()
	_, ok := c.byBase[strings.TrimSuffix(urlBase, "/")]
	c.mu.RUnlock()
	return ok
}
