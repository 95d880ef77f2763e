// Package usecase adapts the async internal/loader API to the HTTP
// shell's synchronous request/response model, grounded on the
// teacher's tile_cache_usecase.go (thin wrapper translating
// coordinates into cache/loader calls and logging around them).
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vecmap/tilecore/internal/loader"
	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/internal/vectortile"
	"github.com/vecmap/tilecore/pkg/logger"
)

// LayerSummary is the JSON-friendly view of a decoded layer returned
// by the tile endpoint: rendering is out of scope (spec Non-goals), so
// the HTTP surface reports what loaded rather than pixels.
type LayerSummary struct {
	Name         string `json:"name"`
	FeatureCount int    `json:"feature_count"`
}

// TileResult is what TileUseCase.GetTile returns: either a loaded
// tile's summary, or a state describing why it isn't available yet.
type TileResult struct {
	State  string         `json:"state"`
	Layers []LayerSummary `json:"layers,omitempty"`
}

// TileUseCase wraps the loader for the HTTP handler, translating its
// non-blocking RequestTiles API into a bounded wait suitable for a
// single-tile HTTP request.
type TileUseCase struct {
	loader *loader.Loader
	logger logger.Logger
}

func NewTileUseCase(l *loader.Loader, log logger.Logger) *TileUseCase {
	return &TileUseCase{loader: l, logger: log}
}

// GetTile resolves one tile coordinate. It blocks until the tile
// reaches a terminal state or ctx is done, whichever comes first; a
// context deadline expiring while the loader is still working is
// reported as TileResult{State: "pending"}, not an error, since the
// load itself is still in flight and a client can retry.
func (uc *TileUseCase) GetTile(ctx context.Context, coord tilecoord.Coord) (*TileResult, error) {
	uc.logger.Debug("tile requested", "coord", coord.String())

	if st, ok := uc.loader.GetTileState(coord); ok && st.Terminal() {
		return uc.resultFor(coord, st)
	}

	done := make(chan struct{}, 1)
	result := uc.loader.RequestTiles([]tilecoord.Coord{coord}, func(tilecoord.Coord) {
		select {
		case done <- struct{}{}:
		default:
		}
	}, true)

	if tile, ok := result.Get(coord); ok {
		return tileSummary(tile), nil
	}

	// onLoaded only fires on Ok, so failure states are picked up by
	// polling the loader's state.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			st, ok := uc.loader.GetTileState(coord)
			if !ok {
				return &TileResult{State: "unknown_error"}, nil
			}
			return uc.resultFor(coord, st)
		case <-ticker.C:
			if st, ok := uc.loader.GetTileState(coord); ok && st.Terminal() {
				return uc.resultFor(coord, st)
			}
		case <-ctx.Done():
			return &TileResult{State: "pending"}, nil
		}
	}
}

func (uc *TileUseCase) resultFor(coord tilecoord.Coord, st loader.State) (*TileResult, error) {
	if st != loader.Ok {
		return &TileResult{State: st.String()}, nil
	}
	again := uc.loader.RequestTiles([]tilecoord.Coord{coord}, nil, false)
	tile, ok := again.Get(coord)
	if !ok {
		return nil, fmt.Errorf("usecase: coord %s reported Ok but is no longer in memory", coord)
	}
	return tileSummary(tile), nil
}

func tileSummary(tile *vectortile.Tile) *TileResult {
	layers := make([]LayerSummary, 0, len(tile.Layers))
	for _, l := range tile.Layers {
		layers = append(layers, LayerSummary{Name: l.Name, FeatureCount: len(l.Features)})
	}
	return &TileResult{State: loader.Ok.String(), Layers: layers}
}
