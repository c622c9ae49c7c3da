// Package catalog models the AudioAddict batch update payload.
//
// The API is loosely typed: any field may be missing, null, or carry an
// unexpected JSON type. Parsing therefore goes through Document, whose
// accessors each check one field and fall back to a zero value. A ParseX
// function never fails; it returns the best value it can build. Only
// DecodeBatchUpdate and DecodeAuthenticatedUser can return an error, and only
// when the body is not a JSON object at all (ErrNotObject).
//
// Entity graph:
//
//	BatchUpdate
//	├── []Asset
//	├── []ChannelFilter ── []Channel ── ChannelImage (url templates)
//	├── []Event
//	└── []StreamSet ── StreamList ── map[channel id][]Stream
//
// Values are snapshots. A refresh replaces the whole BatchUpdate rather than
// patching it.
//
// Style and hidden channel filters are identified by fixed id tables rather
// than payload flags; see Classification.
package catalog
