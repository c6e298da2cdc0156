// Package subscriptions reads the directed subscriber→channel edges to
// compute fan-in/fan-out counts and viewer membership.
package subscriptions

import "context"

// ChannelStats are the computed subscription numbers for one channel.
// IsSubscribed is false whenever no viewer id was supplied.
type ChannelStats struct {
	SubscribersCount  int64
	SubscribedToCount int64
	IsSubscribed      bool
}

type Repository interface {
	Stats(ctx context.Context, channelID string, viewerID *string) (*ChannelStats, error)
}
