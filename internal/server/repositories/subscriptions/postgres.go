package subscriptions

import (
	"context"
	"database/sql"
	"fmt"

	"videohub/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Stats(ctx context.Context, channelID string, viewerID *string) (*ChannelStats, error) {
	// One round trip for all three figures. A NULL viewer makes the EXISTS
	// arm false, so anonymous lookups get IsSubscribed=false for free.
	query := `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
			(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1),
			EXISTS(
				SELECT 1 FROM subscriptions
				WHERE channel_id = $1 AND subscriber_id = $2::uuid
			)
	`
	var viewer sql.NullString
	if viewerID != nil {
		viewer = sql.NullString{String: *viewerID, Valid: true}
	}

	stats := &ChannelStats{}
	err := r.db.QueryRowContext(ctx, query, channelID, viewer).Scan(
		&stats.SubscribersCount, &stats.SubscribedToCount, &stats.IsSubscribed,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}
