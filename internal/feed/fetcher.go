// Package feed fetches the remote schedule documents, falling back to the
// cache when the network or the payload is bad, and keeps cached copies fresh
// through a checksum verification pass.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nexttrip.rieles.app/internal/cache"
	"nexttrip.rieles.app/internal/logging"
	"nexttrip.rieles.app/internal/metrics"
)

// Source tells the caller where a fetched payload came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

const cacheWriteTimeout = 5 * time.Second

// DataUnavailableError is the terminal fetch failure: the network attempt
// failed and the cache held no entry for the URL.
type DataUnavailableError struct {
	URL string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s: %v", e.URL, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// Result is one fetched document.
type Result struct {
	Payload []byte
	Source  Source
}

// Fetcher wraps remote JSON retrieval with cache-write-on-success and
// cache-read-on-failure. One Fetcher belongs to one resolution session; the
// degraded flag it raises is session state.
type Fetcher struct {
	urls      URLs
	client    *http.Client
	store     cache.Store
	logger    *slog.Logger
	collector *metrics.Collector

	mu       sync.Mutex
	degraded bool
	writes   sync.WaitGroup
}

func NewFetcher(urls URLs, client *http.Client, store cache.Store, logger *slog.Logger, collector *metrics.Collector) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{
		urls:      urls,
		client:    client,
		store:     store,
		logger:    logger,
		collector: collector,
	}
}

// URLs exposes the feed path builder for this fetcher's deployment.
func (f *Fetcher) URLs() URLs {
	return f.urls
}

// Fetch retrieves rawURL, preferring the network. On success the payload is
// written to the cache asynchronously; a cache write failure is logged, never
// surfaced. On network or parse failure the cache is consulted, and a hit
// marks the session degraded. A miss is a DataUnavailableError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	resource := resourceLabel(rawURL)

	payload, err := f.download(ctx, rawURL)
	if err == nil {
		f.writeToCache(ctx, rawURL, payload)
		if f.collector != nil {
			f.collector.FetchNetwork.WithLabelValues(resource).Inc()
		}
		return Result{Payload: payload, Source: SourceNetwork}, nil
	}

	f.logger.Warn("fetch failed, trying cached copy", "url", rawURL, "error", err.Error())

	cached, ok, cacheErr := f.store.Get(ctx, rawURL)
	if cacheErr != nil {
		f.logger.Warn("cache read failed", "url", rawURL, "error", cacheErr.Error())
	}
	if cacheErr == nil && ok {
		f.markDegraded()
		if f.collector != nil {
			f.collector.FetchCache.WithLabelValues(resource).Inc()
		}
		return Result{Payload: []byte(cached), Source: SourceCache}, nil
	}

	if f.collector != nil {
		f.collector.FetchFailures.WithLabelValues(resource).Inc()
	}
	return Result{}, &DataUnavailableError{URL: rawURL, Err: err}
}

// NetworkErrorDetected reports whether any fetch in this session was served
// from the cache. Callers surface this as an offline indicator.
func (f *Fetcher) NetworkErrorDetected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

// Wait blocks until all in-flight cache writes have settled. Tests use it to
// observe fire-and-forget writes deterministically.
func (f *Fetcher) Wait() {
	f.writes.Wait()
}

func (f *Fetcher) markDegraded() {
	f.mu.Lock()
	f.degraded = true
	f.mu.Unlock()
}

// download fetches and validates a JSON document.
func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, f.logger, "fetch "+rawURL)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if !json.Valid(payload) {
		return nil, fmt.Errorf("response for %s is not valid JSON", rawURL)
	}

	return payload, nil
}

// downloadText fetches a plain-text document (checksum files).
func (f *Fetcher) downloadText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer logging.SafeCloseWithLogging(resp.Body, f.logger, "fetch "+rawURL)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// writeToCache persists a payload without blocking the fetch path. The write
// survives caller cancellation; a partial session still leaves valid,
// independently keyed entries behind.
func (f *Fetcher) writeToCache(ctx context.Context, rawURL string, payload []byte) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)

	f.writes.Add(1)
	go func() {
		defer f.writes.Done()
		defer cancel()

		if err := f.store.Set(writeCtx, rawURL, string(payload)); err != nil {
			f.logger.Warn("cache write failed", "url", rawURL, "error", err.Error())
			if f.collector != nil {
				f.collector.CacheWriteErrs.Inc()
			}
		}
	}()
}
