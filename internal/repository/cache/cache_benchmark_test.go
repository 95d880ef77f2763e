package cache

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/pkg/logger"
)

// benchTileSize approximates a decoded MVT payload on disk.
const benchTileSize = 10 * 1024

func benchKey(i int) tilecoord.Coord {
	return tilecoord.New(uint8(i%17), uint32(i%1000), uint32(i%1000))
}

// benchBackends covers the two disk tiers a deployment actually
// chooses between (config.Cache.Backend: "filesystem" or "sqlite").
// MapCache is a bare sync.Map with nothing interesting to measure, and
// RedisCache needs a live server, so neither is benchmarked here.
func benchBackends(b *testing.B) map[string]TileCache {
	b.Helper()

	sqlite, err := NewSQLiteCache(filepath.Join(b.TempDir(), "bench.db"), logger.Noop())
	if err != nil {
		b.Fatalf("sqlite cache: %v", err)
	}
	b.Cleanup(func() { sqlite.Close() })

	return map[string]TileCache{
		"filesystem": NewFilesystemCache(b.TempDir()),
		"sqlite":     sqlite,
	}
}

func BenchmarkSet(b *testing.B) {
	data := make([]byte, benchTileSize)
	rand.Read(data)

	for name, c := range benchBackends(b) {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := c.Set(benchKey(i), data); err != nil {
					b.Fatalf("Set: %v", err)
				}
			}
		})
	}
}

func BenchmarkGet(b *testing.B) {
	data := make([]byte, benchTileSize)
	rand.Read(data)

	for name, c := range benchBackends(b) {
		for i := 0; i < 100; i++ {
			c.Set(benchKey(i), data)
		}
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, _, err := c.Get(benchKey(i % 100)); err != nil {
					b.Fatalf("Get: %v", err)
				}
			}
		})
	}
}

// BenchmarkMixed approximates the loader's steady-state access
// pattern: mostly reads, with one in five calls refreshing an entry.
func BenchmarkMixed(b *testing.B) {
	data := make([]byte, benchTileSize)
	rand.Read(data)

	for name, c := range benchBackends(b) {
		for i := 0; i < 50; i++ {
			c.Set(benchKey(i), data)
		}
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				k := benchKey(i % 100)
				if i%5 == 0 {
					c.Set(k, data)
				} else {
					c.Get(k)
				}
			}
		})
	}
}

func BenchmarkConcurrent(b *testing.B) {
	data := make([]byte, benchTileSize)
	rand.Read(data)

	for name, c := range benchBackends(b) {
		b.Run(name, func(b *testing.B) {
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					k := benchKey(i % 100)
					if i%5 == 0 {
						c.Set(k, data)
					} else {
						c.Get(k)
					}
					i++
				}
			})
		})
	}
}
