package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/difm/internal/audioaddict"
	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/prefs"
	"github.com/five82/difm/internal/state"
)

const (
	defaultRefreshInterval = 15 * time.Minute
	retryInterval          = 2 * time.Second
	maxBackoff             = 30 * time.Second
)

// CatalogFetcher fetches the batch update. *audioaddict.Session implements it.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, quality catalog.Quality) (catalog.BatchUpdate, error)
}

var _ CatalogFetcher = (*audioaddict.Session)(nil)

// StartRefresher launches a background goroutine that keeps the store's
// catalog current. It fetches immediately, again whenever the preferred
// stream quality changes, and otherwise every interval. Failures are retried
// with exponential backoff. It returns immediately.
func StartRefresher(ctx context.Context, store *state.Store, fetcher CatalogFetcher, settings *prefs.Settings, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	changes, cancel := settings.Subscribe()

	go func() {
		defer cancel()
		failures := 0
		for {
			if err := refresh(ctx, store, fetcher, settings.StreamQuality()); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				logger.Printf("catalog refresh failed: %v", err)
			} else {
				failures = 0
			}

			wait := interval
			if failures > 0 {
				wait = calculateBackoff(failures-1, retryInterval)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case _, ok := <-changes:
				timer.Stop()
				if !ok {
					changes = nil
				}
			case <-timer.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, fetcher CatalogFetcher, quality catalog.Quality) error {
	batch, err := fetcher.FetchCatalog(ctx, quality)
	if err != nil {
		store.Update(nil, quality, err)
		return err
	}
	store.Update(&batch, quality, nil)
	return nil
}

// calculateBackoff doubles base once per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
