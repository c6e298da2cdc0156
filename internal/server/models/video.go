package models

import "time"

// Video is the referenced media entity. Only identity, preview and owner
// fields are read by this backend.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail"`
	MediaURL     string    `json:"videoFile"`
	Duration     int64     `json:"duration"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OwnerSummary is the denormalized owner annotation attached to each watch
// history entry. Always a single object, never a list.
type OwnerSummary struct {
	ID        string `json:"id"`
	Fullname  string `json:"fullname"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchEntry is one resolved element of an account's watch history, in
// stored order.
type WatchEntry struct {
	Video Video         `json:"video"`
	Owner *OwnerSummary `json:"owner,omitempty"`
}
