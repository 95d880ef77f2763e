// Package tilecoord identifies tiles in the XYZ web-mercator grid and
// provides the arithmetic needed to use a tile coordinate as a map key.
package tilecoord

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the highest zoom level the loader will ever request.
const MaxZoom = 16

// Coord identifies one cell in the tile grid at a given zoom level.
// X and Y are always in [0, 2^Zoom). The zero value is the single tile
// covering the whole world at zoom 0.
type Coord struct {
	Zoom uint8
	X    uint32
	Y    uint32
}

// New constructs a Coord, clamping zoom to the supported range and
// wrapping x/y into the valid grid for that zoom. Out-of-range input is
// a programmer error in the rest of the core; New exists so the one
// place coordinates arrive from the outside world (HTTP path params,
// viewport math) can normalize them once.
func New(zoom uint8, x, y uint32) Coord {
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	n := uint32(1) << zoom
	return Coord{Zoom: zoom, X: x % n, Y: y % n}
}

// Compare gives Coord a total ordering: zoom, then x, then y.
func (c Coord) Compare(other Coord) int {
	switch {
	case c.Zoom != other.Zoom:
		return int(c.Zoom) - int(other.Zoom)
	case c.X != other.X:
		if c.X < other.X {
			return -1
		}
		return 1
	case c.Y != other.Y:
		if c.Y < other.Y {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (c Coord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Zoom, c.X, c.Y)
}

// Maptile converts to the shape used by github.com/paulmach/orb/maptile,
// letting the decode path hand coordinates straight to orb without
// re-deriving Web Mercator projection math.
func (c Coord) Maptile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Zoom))
}

// TileCount returns the number of tiles per side of the grid at this
// coordinate's zoom level: N = 2^zoom.
func (c Coord) TileCount() uint32 {
	return uint32(1) << c.Zoom
}
