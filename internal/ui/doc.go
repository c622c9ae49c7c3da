// Package ui provides the terminal channel browser for difm.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program built from two bubbles components: a list of
// channels (with the list's built-in fuzzy filter) and a spinner shown until
// the first catalog arrives. Styling comes from lipgloss through Theme.
//
// The model never talks to the API directly. It follows state.Store through
// Subscribe, so every catalog refresh arrives as a snapshotMsg. Changing the
// stream quality writes to prefs.Settings; the app's refresher sees the change,
// refetches the catalog, and the new snapshot flows back through the store.
//
//	prefs.Settings ──change──> refresher ──FetchCatalog──> state.Store
//	      ^                                                     │
//	      └──────── Q key ──── ui.Model <──── snapshotMsg ──────┘
//
// # Channels
//
// The list shows every channel of every visible filter once, in filter order.
// Style and hidden filters are excluded by the configured classification.
// Favorites of the signed-in user are starred and can be isolated with F.
//
// # Detail Pane
//
// The pane beside the list shows the selected channel's description, its
// authorized stream URL for the current quality, and artwork metadata. Artwork
// is loaded through artwork.Cache on first selection, so moving back and forth
// over the list never refetches an image.
//
// # Key Bindings
//
//   - ?: toggle help
//   - T: cycle theme (persisted)
//   - Q: cycle stream quality (persisted, triggers a refetch)
//   - F: favorites only
//   - /: filter, q: quit, arrows or j/k: navigate (list defaults)
package ui
