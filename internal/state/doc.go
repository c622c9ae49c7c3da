// Package state provides thread-safe storage of the current catalog for the
// difm application.
//
// # Overview
//
// The refresher goroutine fetches the batch update and records the outcome
// with Store.Update; the UI and the one-shot lookup read it with
// Store.Snapshot or follow it through Store.Subscribe.
//
//	Producer (refresher):          Consumer (UI):
//	┌────────────────────┐        ┌──────────────────┐
//	│ FetchCatalog(q)    │        │                  │
//	│      ↓             │        │                  │
//	│ store.Update()     │───────→│ store.Snapshot() │
//	│      ↓             │ (mutex)│      ↓           │
//	│ wait for change    │        │ render list      │
//	└────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
//	// Success case: replace the catalog
//	store.Update(&batch, quality, nil)
//	→ snapshot.Catalog = batch
//	→ snapshot.Quality = quality
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Error case: keep the old catalog, record the error
//	store.Update(nil, quality, err)
//	→ snapshot.Catalog = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// Two or more consecutive failures mark the snapshot offline (IsOffline).
//
// # Copying
//
// Snapshot returns the struct by value. The embedded catalog.BatchUpdate is
// shared between copies because catalog values are replaced wholesale on
// refresh and never modified in place. Errors are re-wrapped so callers do
// not hold the stored instance; errors.Is still reaches the original.
package state
