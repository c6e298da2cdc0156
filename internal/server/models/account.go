// Package models defines the persisted entities and the read-side
// projections returned to callers.
package models

import "time"

// Account is the user entity. Username and email are stored lowercased and
// trimmed; uniqueness is case-insensitive and enforced by the store.
//
// PasswordHash and RefreshToken never leave the server: the JSON tags strip
// them from every response payload, and Sanitized() zeroes them for callers
// that pass the struct on elsewhere.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar"`
	CoverURL     *string   `json:"coverImage,omitempty"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy with the credential fields cleared.
func (a *Account) Sanitized() *Account {
	c := *a
	c.PasswordHash = ""
	c.RefreshToken = ""
	return &c
}

// ChannelProfile is the projection returned by the channel-summary query.
// It deliberately exposes only public profile fields plus the computed
// subscription counts.
type ChannelProfile struct {
	ID                string  `json:"id"`
	Fullname          string  `json:"fullname"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	AvatarURL         string  `json:"avatar"`
	CoverURL          *string `json:"coverImage,omitempty"`
	SubscribersCount  int64   `json:"subscribersCount"`
	SubscribedToCount int64   `json:"channelsSubscribedToCount"`
	IsSubscribed      bool    `json:"isSubscribed"`
}
