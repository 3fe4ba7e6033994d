package services

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

const defaultCacheSize = 8

// tableCache keeps the most recently used decoded datasets in memory. Tables are
// immutable, so entries are shared freely.
type tableCache struct {
	entries *lru.Cache[string, *domain.Dataset]
}

func newTableCache(size int) *tableCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, *domain.Dataset](size)
	if err != nil {
		// lru.New only rejects a non-positive size.
		panic(err)
	}
	return &tableCache{entries: entries}
}

func (c *tableCache) get(id string) (*domain.Dataset, bool) {
	return c.entries.Get(id)
}

func (c *tableCache) put(d *domain.Dataset) {
	c.entries.Add(d.ID, d)
}
