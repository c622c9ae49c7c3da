package catalog

import (
	"slices"
	"strings"
	"time"
)

// AuthenticatedUser is the member record returned by a successful login.
type AuthenticatedUser struct {
	ID                 int
	APIKey             string
	Email              string
	FirstName          string
	LastName           string
	Confirmed          bool
	Fraudulent         bool
	Activated          bool
	ListenKey          string
	Timezone           *time.Location
	FavoriteChannelIDs []int
}

// DecodeAuthenticatedUser parses a members/authenticate response body.
func DecodeAuthenticatedUser(data []byte) (AuthenticatedUser, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return AuthenticatedUser{}, err
	}
	return ParseAuthenticatedUser(doc), nil
}

// ParseAuthenticatedUser builds an AuthenticatedUser. An unknown timezone
// name leaves Timezone nil.
func ParseAuthenticatedUser(d Document) AuthenticatedUser {
	u := AuthenticatedUser{
		ID:         d.Int("id"),
		APIKey:     d.String("api_key"),
		Email:      d.String("email"),
		FirstName:  d.String("first_name"),
		LastName:   d.String("last_name"),
		Confirmed:  d.Bool("confirmed"),
		Fraudulent: d.Bool("fraudulent"),
		Activated:  d.Bool("activated"),
		ListenKey:  d.String("listen_key"),
	}
	if name := strings.TrimSpace(d.String("timezone")); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			u.Timezone = loc
		}
	}
	for _, fav := range d.Objects("network_favorite_channels") {
		if id, ok := fav.IntOK("channel_id"); ok {
			u.FavoriteChannelIDs = append(u.FavoriteChannelIDs, id)
		}
	}
	return u
}

// DisplayName returns the member's full name, or the email when no name is
// on file.
func (u AuthenticatedUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsFavorite reports whether the member has favorited a channel.
func (u AuthenticatedUser) IsFavorite(channelID int) bool {
	return slices.Contains(u.FavoriteChannelIDs, channelID)
}
