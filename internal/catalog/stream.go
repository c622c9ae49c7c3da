package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Quality is a stream-quality tier. The value is the wire literal sent as
// stream_set_key.
type Quality string

const (
	QualityPublic1       Quality = "public1"
	QualityPublic2       Quality = "public2"
	QualityPublic3       Quality = "public3"
	QualityPremiumLow    Quality = "premium_low"
	QualityPremiumMedium Quality = "premium_medium"
	QualityPremium       Quality = "premium"
	QualityPremiumHigh   Quality = "premium_high"
)

// DefaultQuality is used when no preference has been stored.
const DefaultQuality = QualityPremiumHigh

var qualities = []Quality{
	QualityPublic1,
	QualityPublic2,
	QualityPublic3,
	QualityPremiumLow,
	QualityPremiumMedium,
	QualityPremium,
	QualityPremiumHigh,
}

var qualityDescriptions = map[Quality]string{
	QualityPublic1:       "64kbps AAC",
	QualityPublic2:       "40kbps AAC",
	QualityPublic3:       "96kbps MP3",
	QualityPremiumLow:    "40kbps AAC",
	QualityPremiumMedium: "64kbps AAC",
	QualityPremium:       "128kbps AAC",
	QualityPremiumHigh:   "256kbps MP3",
}

// Qualities returns every tier, public tiers first.
func Qualities() []Quality {
	return append([]Quality(nil), qualities...)
}

// ParseQuality matches a wire literal, ignoring case and surrounding space.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := qualityDescriptions[q]; !ok {
		return "", fmt.Errorf("unknown stream quality %q", s)
	}
	return q, nil
}

// Valid reports whether q is a known tier.
func (q Quality) Valid() bool {
	_, ok := qualityDescriptions[q]
	return ok
}

// IsPremium reports whether the tier requires a premium account.
func (q Quality) IsPremium() bool {
	return strings.HasPrefix(string(q), "premium")
}

// Description returns the codec and bitrate label for the tier.
func (q Quality) Description() string {
	return qualityDescriptions[q]
}

func (q Quality) String() string {
	return string(q)
}

// Stream is a playable URL for a channel at one bitrate.
type Stream struct {
	ID      int
	URL     string
	Format  string
	Bitrate int
}

// ParseStream builds a Stream. The identifier is read from "id", falling
// back to "identifier".
func ParseStream(d Document) Stream {
	id, ok := d.IntOK("id")
	if !ok {
		id = d.Int("identifier")
	}
	bitrate := d.Int("bitrate")
	if bitrate < 0 {
		bitrate = 0
	}
	return Stream{
		ID:      id,
		URL:     strings.TrimSpace(d.String("url")),
		Format:  d.String("format"),
		Bitrate: bitrate,
	}
}

// AuthorizedURL returns the stream URL with listenKey as its query string.
// An empty listenKey leaves the URL unchanged.
func (s Stream) AuthorizedURL(listenKey string) (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("stream url %q is not absolute", s.URL)
	}
	if key := strings.TrimSpace(listenKey); key != "" {
		u.RawQuery = key
	}
	return u.String(), nil
}

// StreamList maps channel identifiers to their streams.
type StreamList struct {
	ID      int
	Name    string
	Streams map[int][]Stream
}

// ParseStreamList builds a StreamList. Channel entries without a numeric id
// are skipped.
func ParseStreamList(d Document) StreamList {
	list := StreamList{
		ID:      d.Int("id"),
		Name:    d.String("name"),
		Streams: make(map[int][]Stream),
	}
	for _, ch := range d.Objects("channels") {
		id, ok := ch.IntOK("id")
		if !ok {
			continue
		}
		objs := ch.Objects("streams")
		streams := make([]Stream, 0, len(objs))
		for _, obj := range objs {
			streams = append(streams, ParseStream(obj))
		}
		list.Streams[id] = streams
	}
	return list
}

// StreamsFor returns the streams for a channel, or nil.
func (l StreamList) StreamsFor(channelID int) []Stream {
	return l.Streams[channelID]
}

// StreamSet is a quality tier's grouping of streams.
type StreamSet struct {
	ID          int
	NetworkID   int
	Key         string
	Name        string
	Description string
	StreamList  StreamList
}

// ParseStreamSet builds a StreamSet and its stream list.
func ParseStreamSet(d Document) StreamSet {
	return StreamSet{
		ID:          d.Int("id"),
		NetworkID:   d.Int("network_id"),
		Key:         d.String("key"),
		Name:        d.String("name"),
		Description: d.String("description"),
		StreamList:  ParseStreamList(d.Object("streamlist")),
	}
}

// FirstStream returns the preferred stream for a channel.
func (s StreamSet) FirstStream(channelID int) (Stream, bool) {
	streams := s.StreamList.StreamsFor(channelID)
	if len(streams) == 0 {
		return Stream{}, false
	}
	return streams[0], true
}
