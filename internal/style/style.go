// Package style models a parsed vector-tile stylesheet: an ordered list
// of style layers, each carrying a filter expression and paint/layout
// expression maps, built on top of internal/evaluator's Expression
// type. Mirrors the JSON shape used by khanmap's vectorTileStyle model
// and maplibre/mapbox style documents: {version, sources, sprite,
// layers: [...]}.
package style

import (
	"encoding/json"
	"fmt"

	"github.com/vecmap/tilecore/internal/evaluator"
)

// Layer is a single entry of the stylesheet's "layers" array. Paint
// order equals declaration order, so Sheet.Layers preserves JSON
// array order rather than indexing by ID.
type Layer struct {
	ID            string
	Type          string
	SourceLayer   string
	MinZoom       int
	MaxZoom       int
	HasMinZoom    bool
	HasMaxZoom    bool
	Filter        *evaluator.Expression
	Paint         map[string]evaluator.Expression
	Layout        map[string]evaluator.Expression
}

// InZoomRange reports whether zoom falls within the layer's optional
// [minzoom, maxzoom) window. A layer with no zoom bounds matches every
// zoom.
func (l Layer) InZoomRange(zoom int) bool {
	if l.HasMinZoom && zoom < l.MinZoom {
		return false
	}
	if l.HasMaxZoom && zoom >= l.MaxZoom {
		return false
	}
	return true
}

// Sheet is the decoded stylesheet: version, optional sprite/glyphs URLs
// (out of scope for evaluation, kept for fidelity with the source
// format), and the ordered layer list the evaluator walks at paint
// time.
type Sheet struct {
	Version int
	Sprite  string
	Glyphs  string
	Layers  []Layer
}

type rawSheet struct {
	Version int               `json:"version"`
	Sprite  string            `json:"sprite"`
	Glyphs  string            `json:"glyphs"`
	Layers  []json.RawMessage `json:"layers"`
}

type rawLayer struct {
	ID          string                     `json:"id"`
	Type        string                     `json:"type"`
	SourceLayer string                     `json:"source-layer"`
	MinZoom     *int                       `json:"minzoom,omitempty"`
	MaxZoom     *int                       `json:"maxzoom,omitempty"`
	Filter      json.RawMessage            `json:"filter,omitempty"`
	Paint       map[string]json.RawMessage `json:"paint,omitempty"`
	Layout      map[string]json.RawMessage `json:"layout,omitempty"`
}

// Parse decodes a stylesheet document. Expression-valued fields
// (filter, and every paint/layout entry) are parsed with
// evaluator.Parse so literals and operator trees share one
// representation downstream.
func Parse(data []byte) (*Sheet, error) {
	var raw rawSheet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("style: decode stylesheet: %w", err)
	}

	sheet := &Sheet{
		Version: raw.Version,
		Sprite:  raw.Sprite,
		Glyphs:  raw.Glyphs,
		Layers:  make([]Layer, 0, len(raw.Layers)),
	}

	for i, rl := range raw.Layers {
		layer, err := parseLayer(rl)
		if err != nil {
			return nil, fmt.Errorf("style: layer %d: %w", i, err)
		}
		sheet.Layers = append(sheet.Layers, layer)
	}

	return sheet, nil
}

func parseLayer(data json.RawMessage) (Layer, error) {
	var rl rawLayer
	if err := json.Unmarshal(data, &rl); err != nil {
		return Layer{}, err
	}

	layer := Layer{
		ID:          rl.ID,
		Type:        rl.Type,
		SourceLayer: rl.SourceLayer,
		Paint:       parseExpressionMap(rl.Paint),
		Layout:      parseExpressionMap(rl.Layout),
	}
	if rl.MinZoom != nil {
		layer.MinZoom = *rl.MinZoom
		layer.HasMinZoom = true
	}
	if rl.MaxZoom != nil {
		layer.MaxZoom = *rl.MaxZoom
		layer.HasMaxZoom = true
	}
	if len(rl.Filter) > 0 {
		var decoded any
		if err := json.Unmarshal(rl.Filter, &decoded); err != nil {
			return Layer{}, fmt.Errorf("filter: %w", err)
		}
		expr := evaluator.Parse(decoded)
		layer.Filter = &expr
	}

	return layer, nil
}

func parseExpressionMap(raw map[string]json.RawMessage) map[string]evaluator.Expression {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]evaluator.Expression, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			continue
		}
		out[k] = evaluator.Parse(decoded)
	}
	return out
}
