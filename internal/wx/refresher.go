package wx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/metrics"
)

// Refresher fetches, decodes, stores, and persists weather datasets.
// Concurrent refresh requests (background ticker plus the admin endpoint)
// are serialized; the store itself stays readable throughout.
type Refresher struct {
	fetcher *Fetcher
	store   *Store
	cache   *Cache
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRefresher wires a fetcher, store, and disk cache together.
func NewRefresher(fetcher *Fetcher, store *Store, cache *Cache, logger *slog.Logger) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		store:   store,
		cache:   cache,
		logger:  logger,
	}
}

// Refresh performs one fetch-decode-store cycle. The previous dataset stays
// served if anything fails.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	body, err := r.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RecordWxFetch(false)
		return fmt.Errorf("weather fetch: %w", err)
	}

	reports, err := Decode(bytes.NewReader(body), r.logger)
	if err != nil {
		metrics.RecordWxFetch(false)
		return fmt.Errorf("weather decode: %w", err)
	}
	if len(reports) == 0 {
		metrics.RecordWxFetch(false)
		return fmt.Errorf("no usable METAR reports in response")
	}

	ds := &Dataset{
		Source:    r.fetcher.SourceURL(),
		FetchedAt: time.Now().UTC(),
		Reports:   reports,
	}
	r.store.Set(ds)
	metrics.RecordWxFetch(true)
	metrics.SetWxReportCount(len(reports))

	if err := r.cache.Write(ds); err != nil {
		r.logger.Warn("failed to write weather cache", "error", err)
	}

	r.logger.Info("weather refreshed",
		"stations", len(reports),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Run refreshes immediately and then on every interval tick until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("initial weather refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("weather refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
