// Package fetcher resolves a tile-URL template to bytes over HTTP.
// Grounded on RoninZc-tiler's task.go (URL templating, status-code
// check, body read) and guide_helper/backend/tiles's tile_usecase.go
// (http.Client with timeout and User-Agent/Referer headers).
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vecmap/tilecore/internal/tilecoord"
)

// ErrUnknownError is returned for any non-2xx HTTP status or transport
// failure; the loader folds it into the UnknownError terminal state.
type ErrUnknownError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ErrUnknownError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetcher: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetcher: %s: status %d", e.URL, e.StatusCode)
}

func (e *ErrUnknownError) Unwrap() error { return e.Err }

// Fetcher issues asynchronous GETs for tile URLs built from a
// template. Concurrency is bounded by the caller (the loader's worker
// pool semaphore); the fetcher imposes no limit of its own.
type Fetcher struct {
	client      *http.Client
	urlTemplate string
	apiKey      string
	userAgent   string
	referer     string
}

// Config configures a Fetcher.
type Config struct {
	URLTemplate string
	APIKey      string
	UserAgent   string
	Referer     string
	Timeout     time.Duration
}

// New builds a Fetcher from cfg. A zero Timeout defaults to 15s.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		urlTemplate: cfg.URLTemplate,
		apiKey:      cfg.APIKey,
		userAgent:   cfg.UserAgent,
		referer:     cfg.Referer,
	}
}

// URLFor substitutes {z}, {x}, {y} and any opaque {key} placeholder
// into the template, per spec §6.
func (f *Fetcher) URLFor(coord tilecoord.Coord) string {
	url := f.urlTemplate
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(int(coord.Zoom)))
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(int(coord.X)))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(int(coord.Y)))
	url = strings.ReplaceAll(url, "{key}", f.apiKey)
	return url
}

// Fetch issues a GET for coord's tile URL. Any non-2xx status or
// transport error is reported as *ErrUnknownError.
func (f *Fetcher) Fetch(ctx context.Context, coord tilecoord.Coord) ([]byte, error) {
	url := f.URLFor(coord)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ErrUnknownError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ErrUnknownError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ErrUnknownError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrUnknownError{URL: url, Err: err}
	}
	return body, nil
}
