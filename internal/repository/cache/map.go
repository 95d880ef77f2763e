package cache

import (
	"sync"

	"github.com/vecmap/tilecore/internal/tilecoord"
)

// MapCache is an in-process, disk-free TileCache backed by sync.Map.
// It backs TileLoader's "dummy" construction flavor (spec §4.2) used
// by tests that want a disk tier without touching the filesystem.
type MapCache struct {
	m *TypedSyncMap
}

// TypedSyncMap wraps sync.Map with tile-coord/byte-slice typed
// accessors, avoiding interface{} assertions at every call site.
type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k tilecoord.Coord) (Value, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(Value), exists
}

func (c *TypedSyncMap) Store(k tilecoord.Coord, v Value) {
	c.m.Store(k, v)
}

func NewMapCache() *MapCache {
	return &MapCache{
		m: &TypedSyncMap{},
	}
}

var _ TileCache = (*MapCache)(nil)

func (c *MapCache) Get(k tilecoord.Coord) (Value, bool, error) {
	v, exists := c.m.Load(k)
	return v, exists, nil
}

func (c *MapCache) Set(k tilecoord.Coord, v Value) error {
	c.m.Store(k, v)
	return nil
}
