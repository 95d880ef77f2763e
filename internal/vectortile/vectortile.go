// Package vectortile is the in-memory representation of a decoded
// Mapbox Vector Tile: an ordered collection of named layers, each
// owning an ordered sequence of features classified as point, line, or
// polygon, carrying metadata the style evaluator consults. Decoding is
// grounded on github.com/paulmach/orb/encoding/mvt, the same decoder
// used by the pack's OSM vector-tile extraction example.
package vectortile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"

	"github.com/vecmap/tilecore/internal/evaluator"
	"github.com/vecmap/tilecore/internal/tilecoord"
)

// Feature is one decoded feature: its geometry kind, the raw geometry
// (left opaque to callers other than a renderer, per spec), and its
// metadata table. Implements evaluator.Feature so style expressions
// can be resolved against it directly.
type Feature struct {
	Kind     evaluator.GeometryKind
	Geometry orb.Geometry
	Meta     map[string]evaluator.Value
}

func (f *Feature) Metadata(key string) (evaluator.Value, bool) {
	v, ok := f.Meta[key]
	return v, ok
}

func (f *Feature) GeometryKind() evaluator.GeometryKind { return f.Kind }

// Layer is a named layer of a tile: its declared extent (used to scale
// tile-local coordinates) and its ordered features.
type Layer struct {
	Name     string
	Version  uint32
	Extent   uint32
	Features []*Feature
}

// Tile is the decoded vector tile: constructed once from an immutable
// byte buffer by Decode, immutable thereafter. The loader has no
// eviction, so a Tile it stores stays in memory for the loader's
// lifetime.
type Tile struct {
	Layers []Layer
}

// LayerByName returns the layer with the given name, used by the
// evaluator/painter to resolve a style layer's source-layer reference.
func (t *Tile) LayerByName(name string) (Layer, bool) {
	for _, l := range t.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Decode parses the Mapbox Vector Tile binary payload for coord into a
// Tile. The decoder is fed the full byte buffer; it does not stream.
func Decode(data []byte, coord tilecoord.Coord) (*Tile, error) {
	mt := coord.Maptile()
	layers, err := mvt.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("vectortile: decode: %w", err)
	}

	// Project back from tile-local integer coordinates into WGS84
	// longitude/latitude (orb's ProjectToTile is the inverse of this and
	// is what encoders use; decoders conventionally project to WGS84 so
	// geometry is usable independent of tile extent).
	layers.ProjectToWGS84(mt)

	out := &Tile{Layers: make([]Layer, 0, len(layers))}
	for _, l := range layers {
		layer := Layer{
			Name:     l.Name,
			Version:  uint32(l.Version),
			Extent:   uint32(l.Extent),
			Features: make([]*Feature, 0, len(l.Features)),
		}
		for _, f := range l.Features {
			layer.Features = append(layer.Features, convertFeature(f))
		}
		out.Layers = append(out.Layers, layer)
	}
	return out, nil
}

func convertFeature(f *geojson.Feature) *Feature {
	meta := make(map[string]evaluator.Value, len(f.Properties))
	for k, v := range f.Properties {
		meta[k] = evaluator.FromInterface(v)
	}

	return &Feature{
		Kind:     classify(f.Geometry),
		Geometry: f.Geometry,
		Meta:     meta,
	}
}

func classify(g orb.Geometry) evaluator.GeometryKind {
	switch g.GeoJSONType() {
	case "Point", "MultiPoint":
		return evaluator.GeometryPoint
	case "LineString", "MultiLineString":
		return evaluator.GeometryLine
	case "Polygon", "MultiPolygon":
		return evaluator.GeometryPolygon
	default:
		return evaluator.GeometryUnknown
	}
}

