package loader

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vecmap/tilecore/internal/repository/cache"
	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/pkg/logger"
)

// validTileBytes is a minimal but structurally valid (empty-layers)
// MVT payload: an empty protobuf message decodes to a Tile with no
// layers, which is enough to exercise the Ok path without depending on
// a real upstream fixture.
var validTileBytes = []byte{}

func waitForState(t *testing.T, l *Loader, c tilecoord.Coord, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := l.GetTileState(c); ok && st.Terminal() {
			if st != want {
				t.Fatalf("coord %s reached terminal state %s, want %s", c, st, want)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("coord %s never reached a terminal state", c)
}

// TestRequestTiles_DiskHit covers scenario S1: a tile already present
// on disk reaches Ok without a fetcher configured at all.
func TestRequestTiles_DiskHit(t *testing.T) {
	disk := cache.NewMapCache()
	coord := tilecoord.New(3, 1, 1)
	if err := disk.Set(coord, validTileBytes); err != nil {
		t.Fatalf("seeding disk cache: %v", err)
	}

	l := NewLocalOnly(disk, 2, logger.Noop())
	defer l.Close()

	var called int32
	done := make(chan struct{})
	result := l.RequestTiles([]tilecoord.Coord{coord}, func(got tilecoord.Coord) {
		atomic.AddInt32(&called, 1)
		close(done)
	}, true)

	if result.Len() != 0 {
		t.Fatalf("expected no tiles ready synchronously, got %d", result.Len())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onLoaded never fired")
	}

	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("onLoaded fired %d times, want 1", called)
	}
	waitForState(t, l, coord, Ok)

	again := l.RequestTiles([]tilecoord.Coord{coord}, nil, false)
	if _, ok := again.Get(coord); !ok {
		t.Fatal("expected coord to be present in a subsequent synchronous request")
	}
}

// TestRequestTiles_LocalOnlyMiss covers a disk miss with no fetcher
// configured: the coord must settle on UnknownError, not hang.
func TestRequestTiles_LocalOnlyMiss(t *testing.T) {
	l := NewLocalOnly(cache.NewMapCache(), 2, logger.Noop())
	defer l.Close()

	coord := tilecoord.New(4, 2, 2)
	var fired bool
	l.RequestTiles([]tilecoord.Coord{coord}, func(tilecoord.Coord) { fired = true }, true)

	waitForState(t, l, coord, UnknownError)
	if fired {
		t.Fatal("onLoaded must not fire for a terminal state other than Ok")
	}
}

// TestRequestTiles_ParsingFailed covers scenario S2: malformed bytes on
// disk must resolve to ParsingFailed, never hang or panic.
func TestRequestTiles_ParsingFailed(t *testing.T) {
	disk := cache.NewMapCache()
	coord := tilecoord.New(5, 3, 3)
	if err := disk.Set(coord, []byte{0xff, 0xfe, 0x00, 0x01, 0x02}); err != nil {
		t.Fatalf("seeding disk cache: %v", err)
	}

	l := NewLocalOnly(disk, 2, logger.Noop())
	defer l.Close()

	var fired bool
	l.RequestTiles([]tilecoord.Coord{coord}, func(tilecoord.Coord) { fired = true }, true)

	waitForState(t, l, coord, ParsingFailed)
	if fired {
		t.Fatal("onLoaded must not fire on ParsingFailed")
	}
}

// TestRequestTiles_NoLoadMissing verifies a request with loadMissing
// false never schedules work and never mutates loader state for an
// unseen coord.
func TestRequestTiles_NoLoadMissing(t *testing.T) {
	l := NewDummy(logger.Noop())
	defer l.Close()

	coord := tilecoord.New(2, 0, 0)
	result := l.RequestTiles([]tilecoord.Coord{coord}, func(tilecoord.Coord) {
		t.Fatal("onLoaded must not fire when loadMissing is false")
	}, false)

	if result.Len() != 0 {
		t.Fatalf("expected empty result, got %d", result.Len())
	}
	if _, ok := l.GetTileState(coord); ok {
		t.Fatal("a coord with loadMissing=false must not create a memory entry")
	}
}

// TestRequestTiles_NilCallbackBehavesLikeNoLoad verifies loadMissing
// with a nil onLoaded never schedules work either, per spec §4.2.
func TestRequestTiles_NilCallbackBehavesLikeNoLoad(t *testing.T) {
	l := NewDummy(logger.Noop())
	defer l.Close()

	coord := tilecoord.New(2, 1, 1)
	l.RequestTiles([]tilecoord.Coord{coord}, nil, true)

	time.Sleep(20 * time.Millisecond)
	if _, ok := l.GetTileState(coord); ok {
		t.Fatal("a nil onLoaded must suppress scheduling even with loadMissing=true")
	}
}

// TestRequestTiles_ConcurrentDedup covers scenario S6: many concurrent
// requests for the same missing coord must result in exactly one
// successful callback, not one per caller.
func TestRequestTiles_ConcurrentDedup(t *testing.T) {
	disk := cache.NewMapCache()
	coord := tilecoord.New(6, 4, 4)
	if err := disk.Set(coord, validTileBytes); err != nil {
		t.Fatalf("seeding disk cache: %v", err)
	}

	l := NewLocalOnly(disk, 4, logger.Noop())
	defer l.Close()

	const callers = 20
	var wg sync.WaitGroup
	var callbackCount int32

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RequestTiles([]tilecoord.Coord{coord}, func(tilecoord.Coord) {
				atomic.AddInt32(&callbackCount, 1)
			}, true)
		}()
	}
	wg.Wait()

	waitForState(t, l, coord, Ok)
	// Give any duplicate schedules a chance to misfire before asserting.
	time.Sleep(20 * time.Millisecond)

	if got := atomic.LoadInt32(&callbackCount); got != 1 {
		t.Fatalf("callback fired %d times across %d concurrent callers, want exactly 1", got, callers)
	}
}

// TestClose_CancelsPending verifies Close transitions any still-Pending
// entry to Cancelled without invoking its callback.
func TestClose_CancelsPending(t *testing.T) {
	l := NewLocalOnly(cache.NewMapCache(), 1, logger.Noop())

	coord := tilecoord.New(1, 0, 0)
	l.mu.Lock()
	l.memory[coord] = &storedTile{state: Pending}
	l.mu.Unlock()

	l.Close()

	st, ok := l.GetTileState(coord)
	if !ok || st != Cancelled {
		t.Fatalf("expected coord to be Cancelled after Close, got %v (ok=%v)", st, ok)
	}
}

// TestResult_OnlyExposesOkTiles ensures RequestTiles's returned handle
// never surfaces a coord whose state is not Ok, even if it exists in
// the loader's memory map.
func TestResult_OnlyExposesOkTiles(t *testing.T) {
	l := NewLocalOnly(cache.NewMapCache(), 1, logger.Noop())
	defer l.Close()

	pending := tilecoord.New(1, 0, 0)
	l.mu.Lock()
	l.memory[pending] = &storedTile{state: ParsingFailed}
	l.mu.Unlock()

	result := l.RequestTiles([]tilecoord.Coord{pending}, nil, false)
	if _, ok := result.Get(pending); ok {
		t.Fatal("a ParsingFailed coord must not appear in the result handle")
	}
}
