// Package app is the composition root for difm.
//
// # Overview
//
// Run loads configuration and preferences, resolves credentials, signs in
// through an audioaddict.Session and then does one of two things:
//
//   - Lookup mode (default): fetch the catalog once, find the named station,
//     print its authorized stream URL to stdout and optionally save its
//     artwork.
//   - Browse mode (-browse): start the catalog refresher and hand control to
//     the terminal browser in package ui.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()            Read ~/.config/difm/config.toml
//	       ├─────> prefs.Open()             Stream quality and theme
//	       ├─────> credentials.OpenFile()   Saved username and password
//	       ├─────> audioaddict.NewSession() Serial request worker
//	       ├─────> Session.Authenticate()
//	       │
//	       ├─ lookup ─> FetchCatalog() ─> FindChannel() ─> AuthorizedURL()
//	       │
//	       └─ browse ─> StartRefresher() ─> state.Store <── ui.Run()
//
// # Refresher
//
// StartRefresher fetches the catalog immediately, whenever the preferred
// stream quality changes, and otherwise every 15 minutes. Failed fetches are
// recorded in the store (the previous catalog stays visible) and retried with
// exponential backoff from 2 seconds up to 30 seconds.
//
// # Exit Codes
//
// Every error returned by Run is an *ExitError. ExitCode maps it to the
// process exit status:
//
//   - 1 (ExitAuth): sign-in failed
//   - 2 (ExitFetch): catalog or artwork could not be fetched
//   - 3 (ExitNotFound): unknown station, or no stream at the chosen quality
//   - 4 (ExitUsage): bad flags, config, or missing credentials
//
// Usage errors are detected before any network request is made.
package app
