// Package cache: реализации availability.SlotCache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	slots   []string
	expires time.Time
}

// MemoryCache: кэш внутри процесса; используется без Redis и в тестах.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	gens  map[uuid.UUID]int64
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryEntry),
		gens:  make(map[uuid.UUID]int64),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.items, key)
		return nil, false, nil
	}
	return append([]string(nil), e.slots...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, slots []string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = memoryEntry{
		slots:   append([]string(nil), slots...),
		expires: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Generation(_ context.Context, companyID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[companyID], nil
}

// Invalidate поднимает поколение и сразу выбрасывает ключи компании.
func (c *MemoryCache) Invalidate(_ context.Context, companyID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[companyID]++
	prefix := "slots:" + companyID.String() + ":"
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}
