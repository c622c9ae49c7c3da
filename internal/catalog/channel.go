package catalog

import (
	"time"

	"github.com/five82/difm/internal/urltemplate"
)

// Channel is a single radio station.
type Channel struct {
	ID                int
	Key               string
	Name              string
	Director          string
	Description       string
	DescriptionLong   string
	DescriptionShort  string
	NetworkID         int
	OldID             int
	PremiumID         int
	TracklistServerID int
	AssetID           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	AssetURL          urltemplate.Template
	BannerURL         urltemplate.Template
	Image             ChannelImage
}

// ChannelImage holds the artwork templates for a channel.
type ChannelImage struct {
	Default          urltemplate.Template
	HorizontalBanner urltemplate.Template
}

// ChannelFilter is a named grouping of channels, shown as a tab.
type ChannelFilter struct {
	ID        int
	Key       string
	Name      string
	Display   bool
	Meta      bool
	NetworkID int
	Position  int
	SpriteURL urltemplate.Template
	Channels  []Channel
}

// ParseChannel builds a Channel from a catalog document.
func ParseChannel(d Document) Channel {
	return Channel{
		ID:                d.Int("id"),
		Key:               d.String("key"),
		Name:              d.String("name"),
		Director:          d.String("channel_director"),
		Description:       d.String("description"),
		DescriptionLong:   d.String("description_long"),
		DescriptionShort:  d.String("description_short"),
		NetworkID:         d.Int("network_id"),
		OldID:             d.Int("old_id"),
		PremiumID:         d.Int("premium_id"),
		TracklistServerID: d.Int("tracklist_server_id"),
		AssetID:           d.Int("asset_id"),
		CreatedAt:         d.Time("created_at"),
		UpdatedAt:         d.Time("updated_at"),
		AssetURL:          d.Template("asset_url"),
		BannerURL:         d.Template("banner_url"),
		Image:             ParseChannelImage(d.Object("images")),
	}
}

// ParseChannelImage builds a ChannelImage; a nil document yields empty
// templates.
func ParseChannelImage(d Document) ChannelImage {
	return ChannelImage{
		Default:          d.Template("default"),
		HorizontalBanner: d.Template("horizontal_banner"),
	}
}

// ParseChannelFilter builds a ChannelFilter and its channels.
func ParseChannelFilter(d Document) ChannelFilter {
	f := ChannelFilter{
		ID:        d.Int("id"),
		Key:       d.String("key"),
		Name:      d.String("name"),
		Display:   d.Bool("display"),
		Meta:      d.Bool("meta"),
		NetworkID: d.Int("network_id"),
		Position:  d.Int("position"),
		SpriteURL: d.Template("sprite"),
	}
	objs := d.Objects("channels")
	f.Channels = make([]Channel, 0, len(objs))
	for _, obj := range objs {
		f.Channels = append(f.Channels, ParseChannel(obj))
	}
	return f
}

// IsStyleFilter reports whether the filter is an aesthetic genre tab, using
// the default classification.
func (f ChannelFilter) IsStyleFilter() bool {
	return DefaultClassification().IsStyle(f.ID)
}

// IsHidden reports whether the filter is suppressed, using the default
// classification.
func (f ChannelFilter) IsHidden() bool {
	return DefaultClassification().IsHidden(f.ID)
}
