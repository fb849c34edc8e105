package store

import (
	"context"
	"sync"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
)

type InMemoryRenderCache struct {
	cacheMutex *sync.RWMutex
	cacheMap   map[string]extractionModel.RenderResult
}

func InitInMemoryRenderCache() *InMemoryRenderCache {
	return &InMemoryRenderCache{
		cacheMutex: new(sync.RWMutex),
		cacheMap:   make(map[string]extractionModel.RenderResult),
	}
}

func (c *InMemoryRenderCache) Put(ctx context.Context, key string, result extractionModel.RenderResult) error {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cacheMap[key] = result
	return nil
}

func (c *InMemoryRenderCache) Get(ctx context.Context, key string) (extractionModel.RenderResult, bool, error) {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()
	result, found := c.cacheMap[key]
	return result, found, nil
}

func (c *InMemoryRenderCache) Len() int {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()
	return len(c.cacheMap)
}
