package catalog

import (
	"strings"
	"time"
)

// BatchUpdate is a full catalog snapshot. It is replaced wholesale on every
// refresh and never mutated after parsing.
type BatchUpdate struct {
	AdNetwork      string
	CachedAt       time.Time
	Assets         []Asset
	ChannelFilters []ChannelFilter
	Events         []Event
	StreamSets     []StreamSet
}

// Asset is descriptive catalog metadata.
type Asset struct {
	ID          int
	Name        string
	ContentHash string
}

// Event is a scheduled show on a channel.
type Event struct {
	ID              int
	ChannelID       int
	Title           string
	Description     string
	DescriptionHTML string
	ArtistsTagline  string
	URL             string
	Duration        time.Duration
	StartAt         time.Time
	EndAt           time.Time
}

// DecodeBatchUpdate parses a batch_update response body.
func DecodeBatchUpdate(data []byte) (BatchUpdate, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return BatchUpdate{}, err
	}
	return ParseBatchUpdate(doc), nil
}

// ParseBatchUpdate builds the catalog graph from a document.
func ParseBatchUpdate(d Document) BatchUpdate {
	b := BatchUpdate{
		AdNetwork: d.String("ad_network"),
		CachedAt:  d.Time("cached_at"),
	}
	for _, obj := range d.Objects("assets") {
		b.Assets = append(b.Assets, ParseAsset(obj))
	}
	for _, obj := range d.Objects("channel_filters") {
		b.ChannelFilters = append(b.ChannelFilters, ParseChannelFilter(obj))
	}
	for _, obj := range d.Objects("events") {
		b.Events = append(b.Events, ParseEvent(obj))
	}
	for _, obj := range d.Objects("stream_sets") {
		b.StreamSets = append(b.StreamSets, ParseStreamSet(obj))
	}
	return b
}

// ParseAsset builds an Asset.
func ParseAsset(d Document) Asset {
	return Asset{
		ID:          d.Int("id"),
		Name:        d.String("name"),
		ContentHash: d.String("content_hash"),
	}
}

// ParseEvent builds an Event. Duration is given in seconds.
func ParseEvent(d Document) Event {
	seconds := d.Float("duration")
	if seconds < 0 {
		seconds = 0
	}
	return Event{
		ID:              d.Int("id"),
		ChannelID:       d.Int("channel_id"),
		Title:           d.String("title"),
		Description:     d.String("description"),
		DescriptionHTML: d.String("description_html"),
		ArtistsTagline:  d.String("artists_tagline"),
		URL:             d.String("url"),
		Duration:        time.Duration(seconds * float64(time.Second)),
		StartAt:         d.Time("start_at"),
		EndAt:           d.Time("end_at"),
	}
}

// Channels returns every channel once, in filter order.
func (b BatchUpdate) Channels() []Channel {
	seen := make(map[int]struct{})
	var out []Channel
	for _, f := range b.ChannelFilters {
		for _, ch := range f.Channels {
			if _, ok := seen[ch.ID]; ok {
				continue
			}
			seen[ch.ID] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// Channel looks up a channel by identifier.
func (b BatchUpdate) Channel(id int) (Channel, bool) {
	for _, f := range b.ChannelFilters {
		for _, ch := range f.Channels {
			if ch.ID == id {
				return ch, true
			}
		}
	}
	return Channel{}, false
}

// FindChannel looks up a channel by case-insensitive name.
func (b BatchUpdate) FindChannel(name string) (Channel, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Channel{}, false
	}
	for _, f := range b.ChannelFilters {
		for _, ch := range f.Channels {
			if strings.EqualFold(ch.Name, name) {
				return ch, true
			}
		}
	}
	return Channel{}, false
}

// VisibleFilters returns the filters that belong in top-level navigation.
func (b BatchUpdate) VisibleFilters(c Classification) []ChannelFilter {
	var out []ChannelFilter
	for _, f := range b.ChannelFilters {
		if c.IsTab(f.ID) {
			out = append(out, f)
		}
	}
	return out
}

// StreamSet returns the stream set keyed by q, falling back to the first
// stream set in the payload.
func (b BatchUpdate) StreamSet(q Quality) (StreamSet, bool) {
	if len(b.StreamSets) == 0 {
		return StreamSet{}, false
	}
	for _, s := range b.StreamSets {
		if s.Key == string(q) {
			return s, true
		}
	}
	return b.StreamSets[0], true
}

// StreamFor returns the playback stream for a channel from the first stream
// set, which is the set the catalog was requested for.
func (b BatchUpdate) StreamFor(channelID int) (Stream, bool) {
	if len(b.StreamSets) == 0 {
		return Stream{}, false
	}
	return b.StreamSets[0].FirstStream(channelID)
}

// EventsFor returns the events scheduled on a channel.
func (b BatchUpdate) EventsFor(channelID int) []Event {
	var out []Event
	for _, e := range b.Events {
		if e.ChannelID == channelID {
			out = append(out, e)
		}
	}
	return out
}
