package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shrek82/keyquery/core"
)

// MemoryCacheMiddleware caches SELECT results in memory.
// Only queries whose context carries core.WithCacheTTL are cached.
type MemoryCacheMiddleware struct {
	// DefaultTTL applies when the context asks for the default lifetime.
	// Zero keeps such entries until Shutdown.
	DefaultTTL time.Duration

	items     map[string]memoryCacheEntry
	mu        sync.RWMutex
	stopClean chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

type memoryCacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
}

func NewMemoryCache(defaultTTL ...time.Duration) *MemoryCacheMiddleware {
	ttl := 5 * time.Minute
	if len(defaultTTL) > 0 {
		ttl = defaultTTL[0]
	}
	return &MemoryCacheMiddleware{
		DefaultTTL: ttl,
		items:      make(map[string]memoryCacheEntry),
		stopClean:  make(chan struct{}),
		now:        time.Now,
	}
}

func (m *MemoryCacheMiddleware) Name() string {
	return "MemoryCache"
}

func (m *MemoryCacheMiddleware) Init(db *core.DB) error {
	go m.cleanupLoop(time.Minute)
	return nil
}

func (m *MemoryCacheMiddleware) Shutdown() error {
	m.stopOnce.Do(func() { close(m.stopClean) })
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *MemoryCacheMiddleware) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryCacheMiddleware) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopClean:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryCacheMiddleware) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.items {
		if !v.ExpiresAt.IsZero() && now.After(v.ExpiresAt) {
			delete(m.items, k)
		}
	}
}

func (m *MemoryCacheMiddleware) Process(ctx context.Context, query *core.Query, next core.QueryFunc) (*core.Result, error) {
	ttl, ok := cacheTTL(ctx, m.DefaultTTL)
	if !ok {
		return next(ctx, query)
	}

	key := cacheKey(query)

	m.mu.RLock()
	entry, found := m.items[key]
	m.mu.RUnlock()

	if found {
		if entry.ExpiresAt.IsZero() || m.now().Before(entry.ExpiresAt) {
			if res, ok := restore(query, entry.Data); ok {
				return res, nil
			}
		} else {
			m.mu.Lock()
			delete(m.items, key)
			m.mu.Unlock()
		}
	}

	res, err := next(ctx, query)
	if err != nil {
		return res, err
	}

	if res != nil && res.Data != nil {
		if data, err := json.Marshal(res.Data); err == nil {
			var expires time.Time
			if ttl > 0 {
				expires = m.now().Add(ttl)
			}
			m.mu.Lock()
			m.items[key] = memoryCacheEntry{Data: data, ExpiresAt: expires}
			m.mu.Unlock()
		}
	}

	return res, nil
}
