package models

import "time"

// Subscription is a directed edge from a subscriber account to a channel
// account. Read-only for this backend; only counts and membership are
// computed from it.
type Subscription struct {
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}
