// Package cache implements the disk tier of the tile loader's
// three-tier cache behind a swappable TileCache interface. Four
// interchangeable backends are provided: FilesystemCache (the
// <root>/<z>/<x>/<y>.mvt layout, the default), SQLiteCache and
// RedisCache (alternate disk tiers for single-file or shared-cache
// deployments), and MapCache (backs TileLoader's dummy construction
// flavor used by tests).
package cache

import "github.com/vecmap/tilecore/internal/tilecoord"

// Value is the raw bytes of one tile's server/disk response.
type Value []byte

// TileCache is the disk-tier contract the loader's background jobs
// consult after a memory-cache miss. Get's second return reports
// presence; a disk-tier miss is not an error, it causes the loader to
// fall through to the network tier.
type TileCache interface {
	Get(tilecoord.Coord) (Value, bool, error)
	Set(tilecoord.Coord, Value) error
}
