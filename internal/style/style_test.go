package style

import "testing"

const sampleSheet = `{
	"version": 8,
	"sprite": "sprite-url",
	"glyphs": "glyphs-url",
	"layers": [
		{
			"id": "water",
			"type": "fill",
			"source-layer": "water",
			"minzoom": 3,
			"maxzoom": 14,
			"filter": ["==", ["get", "class"], "ocean"],
			"paint": {
				"fill-color": "#0000ff",
				"fill-opacity": ["interpolate", ["linear"], ["zoom"], 0, 0.2, 10, 1.0]
			}
		},
		{
			"id": "boundary",
			"type": "line",
			"source-layer": "admin"
		}
	]
}`

func TestParse_DecodesLayersInOrder(t *testing.T) {
	sheet, err := Parse([]byte(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Version != 8 {
		t.Fatalf("Version = %d, want 8", sheet.Version)
	}
	if len(sheet.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(sheet.Layers))
	}
	if sheet.Layers[0].ID != "water" || sheet.Layers[1].ID != "boundary" {
		t.Fatalf("layers out of order: %+v", sheet.Layers)
	}
}

func TestParse_ZoomRange(t *testing.T) {
	sheet, err := Parse([]byte(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	water := sheet.Layers[0]
	if !water.HasMinZoom || water.MinZoom != 3 {
		t.Fatalf("water minzoom = %+v", water)
	}
	if !water.InZoomRange(5) {
		t.Fatal("zoom 5 should be in [3,14)")
	}
	if water.InZoomRange(14) {
		t.Fatal("maxzoom is exclusive, zoom 14 should not be in range")
	}
	if water.InZoomRange(2) {
		t.Fatal("zoom 2 should be below minzoom")
	}

	boundary := sheet.Layers[1]
	if boundary.HasMinZoom || boundary.HasMaxZoom {
		t.Fatal("boundary layer declares no zoom bounds")
	}
	if !boundary.InZoomRange(0) || !boundary.InZoomRange(16) {
		t.Fatal("a layer with no zoom bounds must match every zoom")
	}
}

func TestParse_FilterAndPaintBecomeExpressions(t *testing.T) {
	sheet, err := Parse([]byte(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	water := sheet.Layers[0]
	if water.Filter == nil {
		t.Fatal("expected a parsed filter expression")
	}
	if !water.Filter.IsOperator() || water.Filter.Op() != "==" {
		t.Fatalf("filter = %+v, want an == operator node", water.Filter)
	}

	opacity, ok := water.Paint["fill-opacity"]
	if !ok {
		t.Fatal("expected fill-opacity in paint map")
	}
	if !opacity.IsOperator() || opacity.Op() != "interpolate" {
		t.Fatalf("fill-opacity = %+v, want an interpolate operator node", opacity)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
