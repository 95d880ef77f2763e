package loader

import (
	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/internal/vectortile"
)

// Result is the scoped read handle RequestTiles returns: a snapshot of
// every requested coord whose state was Ok at call time. The source
// returns a scope-owning pointer so the renderer cannot hold tile
// references past an eviction point; Go's garbage collector gives the
// same guarantee for free since the underlying VectorTile values are
// immutable and reachable only through this map, so Release is
// provided purely for symmetry with the source's RAII handle and does
// nothing.
type Result struct {
	tiles map[tilecoord.Coord]*vectortile.Tile
}

// Get returns the decoded tile for coord if it was Ok at the time the
// handle was produced.
func (r *Result) Get(coord tilecoord.Coord) (*vectortile.Tile, bool) {
	t, ok := r.tiles[coord]
	return t, ok
}

// Coords returns every coord present in the handle.
func (r *Result) Coords() []tilecoord.Coord {
	out := make([]tilecoord.Coord, 0, len(r.tiles))
	for c := range r.tiles {
		out = append(out, c)
	}
	return out
}

// Len reports how many tiles the handle carries.
func (r *Result) Len() int { return len(r.tiles) }

// Release is a no-op; see Result's doc comment.
func (r *Result) Release() {}
