// Package loader implements the asynchronous tile loader: a
// three-tier cache (memory -> disk -> network) with a per-tile state
// machine and a non-blocking RequestTiles API safe to call from a
// paint callback. Grounded on original_source/lib/TileLoader.{h,cpp}'s
// requestTiles/loadFromDisk/loadFromWeb/insertIntoTileMemory pipeline,
// re-expressed with goroutines, a buffered-channel-style semaphore
// (golang.org/x/sync/semaphore, the same pattern RoninZc-tiler's task
// pool uses with a plain channel) instead of QThreadPool, and a single
// sync.Mutex instead of QMutexLocker over the memory map.
package loader

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vecmap/tilecore/internal/fetcher"
	"github.com/vecmap/tilecore/internal/repository/cache"
	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/internal/vectortile"
	"github.com/vecmap/tilecore/pkg/logger"
	"github.com/vecmap/tilecore/pkg/metrics"
)

// Callback is invoked once per successful transition to Ok, on a
// worker goroutine, with the tile's coord. Never invoked for failures
// or cancellations.
type Callback func(tilecoord.Coord)

type storedTile struct {
	state State
	tile  *vectortile.Tile
}

// Loader orchestrates the memory cache, disk tier, network tier,
// decode, and on_loaded notification described by spec §4.2. The zero
// value is not usable; construct with NewWebEnabled, NewLocalOnly, or
// NewDummy.
type Loader struct {
	mu     sync.Mutex
	memory map[tilecoord.Coord]*storedTile

	disk    cache.TileCache
	fetcher *fetcher.Fetcher

	sem *semaphore.Weighted
	log logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed bool
}

func newLoader(disk cache.TileCache, fetch *fetcher.Fetcher, workers int, log logger.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.Noop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		memory:  make(map[tilecoord.Coord]*storedTile),
		disk:    disk,
		fetcher: fetch,
		sem:     semaphore.NewWeighted(int64(workers)),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewWebEnabled builds a loader that falls through disk -> network on
// a miss (spec §4.2 flavor i).
func NewWebEnabled(disk cache.TileCache, fetch *fetcher.Fetcher, workers int, log logger.Logger) *Loader {
	return newLoader(disk, fetch, workers, log)
}

// NewLocalOnly builds a loader with the network tier disabled: a disk
// miss transitions straight to UnknownError (spec §4.2 flavor ii).
func NewLocalOnly(disk cache.TileCache, workers int, log logger.Logger) *Loader {
	return newLoader(disk, nil, workers, log)
}

// NewDummy builds a loader backed by an in-memory disk tier and no
// network access, for tests that need a loader without touching the
// filesystem (spec §4.2 flavor iii).
func NewDummy(log logger.Logger) *Loader {
	return newLoader(cache.NewMapCache(), nil, 1, log)
}

// RequestTiles never blocks. It returns a handle exposing exactly the
// tiles in requested whose state is Ok at call time. If loadMissing is
// true and onLoaded is non-nil, every requested coord with no memory
// entry gets a Pending placeholder and a scheduled background job;
// coords already in memory (any state) are never re-scheduled. A nil
// onLoaded with loadMissing true behaves like loadMissing=false, per
// spec §4.2.
func (l *Loader) RequestTiles(requested []tilecoord.Coord, onLoaded Callback, loadMissing bool) *Result {
	result := &Result{tiles: make(map[tilecoord.Coord]*vectortile.Tile)}

	shouldLoad := loadMissing && onLoaded != nil
	var toSchedule []tilecoord.Coord

	l.mu.Lock()
	for _, c := range requested {
		st, exists := l.memory[c]
		if exists {
			if st.state == Ok {
				result.tiles[c] = st.tile
			}
			continue
		}
		if shouldLoad {
			l.memory[c] = &storedTile{state: Pending}
			toSchedule = append(toSchedule, c)
		}
	}
	l.mu.Unlock()

	for _, c := range toSchedule {
		l.scheduleLoad(c, onLoaded)
	}

	return result
}

// GetTileState reports a coord's current state, for callers (and
// tests) that need to distinguish "still loading" from "failed" beyond
// what a Result handle exposes.
func (l *Loader) GetTileState(c tilecoord.Coord) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.memory[c]
	if !ok {
		return 0, false
	}
	return st.state, true
}

// Close drops pending work and transitions any still-pending entries
// to Cancelled (no callback fired), then waits for in-flight worker
// goroutines to observe the cancellation and return.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for _, st := range l.memory {
		if st.state == Pending {
			st.state = Cancelled
		}
	}
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}

func (l *Loader) scheduleLoad(c tilecoord.Coord, onLoaded Callback) {
	l.wg.Add(1)
	metrics.LoaderPending.Inc()
	go func() {
		defer l.wg.Done()
		defer metrics.LoaderPending.Dec()

		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			l.finishCancelled(c)
			return
		}
		defer l.sem.Release(1)

		l.loadTile(c, onLoaded)
	}()
}

// loadTile runs the enqueue -> load_from_disk -> load_from_web ->
// decode -> insert pipeline for one coord (spec §4.2).
func (l *Loader) loadTile(c tilecoord.Coord, onLoaded Callback) {
	select {
	case <-l.ctx.Done():
		l.finishCancelled(c)
		return
	default:
	}

	data, hit := l.readDisk(c)
	if !hit {
		if l.fetcher == nil {
			l.finishTerminal(c, UnknownError, nil, onLoaded)
			return
		}

		start := time.Now()
		fetched, err := l.fetcher.Fetch(l.ctx, c)
		metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			l.log.Warn("tile fetch failed", "coord", c.String(), "error", err)
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
			l.finishTerminal(c, UnknownError, nil, onLoaded)
			return
		}
		metrics.UpstreamRequests.WithLabelValues("ok").Inc()
		data = fetched

		l.writeDiskBestEffort(c, data)
	}

	tile, err := vectortile.Decode(data, c)
	if err != nil {
		l.log.Warn("tile parse failed", "coord", c.String(), "error", err)
		l.finishTerminal(c, ParsingFailed, nil, onLoaded)
		return
	}

	l.finishTerminal(c, Ok, tile, onLoaded)
}

func (l *Loader) readDisk(c tilecoord.Coord) ([]byte, bool) {
	if l.disk == nil {
		return nil, false
	}
	data, found, err := l.disk.Get(c)
	if err != nil {
		l.log.Warn("disk cache read failed", "coord", c.String(), "error", err)
		metrics.CacheMisses.Inc()
		return nil, false
	}
	if !found {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return data, true
}

// writeDiskBestEffort persists freshly fetched bytes to the disk tier.
// Disk write failures are logged, not fatal, per spec §4.2 step 2.
func (l *Loader) writeDiskBestEffort(c tilecoord.Coord, data []byte) {
	if l.disk == nil {
		return
	}
	if err := l.disk.Set(c, data); err != nil {
		l.log.Warn("disk cache write failed", "coord", c.String(), "error", err)
		return
	}
	metrics.CacheStores.Inc()
}

// finishTerminal replaces a Pending entry with its terminal state
// under the memory-map mutex, then (only for Ok) invokes onLoaded
// outside the mutex. If the entry's state is no longer Pending (Close
// cancelled it concurrently), the result is dropped rather
// than overwriting whatever state won the race, mirroring the
// source's checkIterator guard in insertIntoTileMemory.
func (l *Loader) finishTerminal(c tilecoord.Coord, state State, tile *vectortile.Tile, onLoaded Callback) {
	l.mu.Lock()
	st, exists := l.memory[c]
	if !exists || st.state != Pending {
		l.mu.Unlock()
		l.log.Warn("tile state changed before load completed, dropping result", "coord", c.String())
		return
	}
	st.state = state
	st.tile = tile
	l.mu.Unlock()

	metrics.LoaderTileState.WithLabelValues(state.String()).Inc()

	if state == Ok && onLoaded != nil {
		onLoaded(c)
	}
}

func (l *Loader) finishCancelled(c tilecoord.Coord) {
	l.mu.Lock()
	st, exists := l.memory[c]
	if exists && st.state == Pending {
		st.state = Cancelled
	}
	l.mu.Unlock()
	metrics.LoaderTileState.WithLabelValues(Cancelled.String()).Inc()
}
