// Package viewport computes the set of tiles a viewport configuration
// needs to paint, grounded on original_source/lib/Rendering_Math.cpp's
// calcVisibleTiles/calcViewportSizeNorm and
// original_source/app/MapWidget.cpp's pan-step convention.
package viewport

import (
	"math"

	"github.com/vecmap/tilecore/internal/tilecoord"
)

// panStepConstant is the fixed integer the source uses in its pan-step
// formula (0.1 == 1/10).
const panStepConstant = 10

// MapZoomOffset lets debug builds override the floor(vz)->mz mapping;
// it is 0 in release, matching spec §4.1's "offset is 0 in release but
// overridable for debugging".
var MapZoomOffset = 0.0

// ClampMapZoom maps a floating viewport zoom to the integer map zoom
// used to pick a tile grid: mz = clamp(floor(vz + offset), 0, MaxZoom).
func ClampMapZoom(viewportZoom float64) int {
	mz := int(math.Floor(viewportZoom + MapZoomOffset))
	if mz < 0 {
		return 0
	}
	if mz > tilecoord.MaxZoom {
		return tilecoord.MaxZoom
	}
	return mz
}

// SizeNorm returns the viewport's width and height as fractions of the
// world map at viewport zoom vpZoom, aspect-ratio aware: at vz=0 the
// largest dimension covers the full map; each integer increase of vz
// halves the covered extent.
func SizeNorm(vpZoom, aspect float64) (width, height float64) {
	scale := 1 / math.Pow(2, vpZoom)
	return scale * math.Min(1, aspect), scale * math.Min(1, 1/aspect)
}

// PanStep returns the normalized distance one pan keystroke moves the
// viewport center: 1 / (2^vz * C), using the exact (unfloored) viewport
// zoom per MapWidget.cpp's getPanStepAmount.
func PanStep(viewportZoom float64) float64 {
	return 1.0 / (math.Pow(2, viewportZoom) * panStepConstant)
}

// VisibleTiles computes the set of (mapZoom, x, y) tiles whose unit
// square intersects the viewport's normalized rectangle centered at
// (vpX, vpY).
func VisibleTiles(vpX, vpY, aspect, vpZoom float64, mapZoom int) []tilecoord.Coord {
	if mapZoom < 0 {
		mapZoom = 0
	}

	widthNorm, heightNorm := SizeNorm(vpZoom, aspect)

	minX := vpX - widthNorm/2
	maxX := vpX + widthNorm/2
	minY := vpY - heightNorm/2
	maxY := vpY + heightNorm/2

	tileCount := 1 << mapZoom

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > tileCount-1 {
			return tileCount - 1
		}
		return i
	}

	left := clamp(int(math.Floor(minX * float64(tileCount))))
	right := clamp(int(math.Floor(maxX * float64(tileCount))))
	top := clamp(int(math.Floor(minY * float64(tileCount))))
	bottom := clamp(int(math.Floor(maxY * float64(tileCount))))

	if mapZoom == 0 && right-left == 0 && bottom-top == 0 {
		return []tilecoord.Coord{tilecoord.New(0, 0, 0)}
	}

	tiles := make([]tilecoord.Coord, 0, (right-left+1)*(bottom-top+1))
	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			tiles = append(tiles, tilecoord.New(uint8(mapZoom), uint32(x), uint32(y)))
		}
	}
	return tiles
}

// NormalizeToZeroOne rescales value from [min, max] into [0, 1],
// returning 0 when the range is degenerate (avoids a division blowup
// when min and max nearly coincide).
func NormalizeToZeroOne(value, min, max float64) float64 {
	const epsilon = 0.0001
	if max-min < epsilon {
		return 0.0
	}
	return (value - min) / (max - min)
}

// ZoomForTileSizePixels picks the map zoom that keeps rendered tiles as
// close as possible to desiredTileWidth pixels, an alternate strategy
// to ClampMapZoom supplementing spec §4.1 from
// Rendering_Math.cpp's calcMapZoomLevelForTileSizePixels. Not wired
// into the default pipeline; callers that want pixel-density-driven
// zoom selection instead of the fixed vz+offset mapping use this.
func ZoomForTileSizePixels(vpWidth, vpHeight int, vpZoom float64, desiredTileWidth int) int {
	currentTileSize := vpWidth
	if vpHeight > currentTileSize {
		currentTileSize = vpHeight
	}
	desiredScale := float64(desiredTileWidth) / float64(currentTileSize)
	newMapZoomLevel := vpZoom - math.Log2(desiredScale)

	mz := int(math.Round(newMapZoomLevel))
	if mz < 0 {
		return 0
	}
	if mz > tilecoord.MaxZoom {
		return tilecoord.MaxZoom
	}
	return mz
}
