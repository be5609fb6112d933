package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"autoinject/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryEntries = 1024

// Cache fronts an optional Store with an in-memory LRU. Store failures
// degrade to misses.
type Cache struct {
	memory *lru.Cache[string, Entry]
	store  *Store
}

// New builds a cache with size in-memory entries. store may be nil.
func New(store *Store, size int) (*Cache, error) {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	memory, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{memory: memory, store: store}, nil
}

func (c *Cache) Store() *Store { return c.store }

func (c *Cache) Get(key Key) (Entry, bool) {
	if entry, ok := c.memory.Get(key.String()); ok {
		observability.CacheLookupsTotal.WithLabelValues("memory").Inc()
		return entry, true
	}
	if c.store != nil {
		entry, ok, err := c.store.Get(key)
		if err != nil {
			slog.Warn("cache lookup failed", "path", key.Path, "error", err)
		} else if ok {
			observability.CacheLookupsTotal.WithLabelValues("disk").Inc()
			c.memory.Add(key.String(), entry)
			return entry, true
		}
	}
	observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
	return Entry{}, false
}

func (c *Cache) Put(key Key, entry Entry) {
	c.memory.Add(key.String(), entry)
	if c.store == nil {
		return
	}
	if err := c.store.Put(key, entry); err != nil {
		slog.Warn("cache write failed", "path", key.Path, "error", err)
	}
}

func (c *Cache) Len() int { return c.memory.Len() }

// Purge drops the in-memory entries. Persisted rows stay valid since they
// are keyed by content.
func (c *Cache) Purge() { c.memory.Purge() }

// Hash returns the hex SHA-256 of the given parts, separated by NUL.
func Hash(parts ...string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
