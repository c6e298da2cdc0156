package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"videohub/internal/common"
	"videohub/internal/dbx"
	"videohub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	// Insertion order, not chronological re-sort: positions only ever grow,
	// so ORDER BY position reproduces the stored sequence. Duplicate video
	// references produce duplicate rows, as stored.
	query := `
		SELECT v.id, v.owner_id, v.title, v.thumbnail_url, v.media_url, v.duration_seconds, v.created_at,
		       o.id, o.fullname, o.username, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		LEFT JOIN accounts o ON o.id = v.owner_id
		WHERE wh.account_id = $1
		ORDER BY wh.position
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchEntry{}
	for rows.Next() {
		var entry models.WatchEntry
		var ownerID, ownerFullname, ownerUsername, ownerAvatar sql.NullString
		err := rows.Scan(
			&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.Title,
			&entry.Video.ThumbnailURL, &entry.Video.MediaURL,
			&entry.Video.Duration, &entry.Video.CreatedAt,
			&ownerID, &ownerFullname, &ownerUsername, &ownerAvatar,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if ownerID.Valid {
			entry.Owner = &models.OwnerSummary{
				ID:        ownerID.String,
				Fullname:  ownerFullname.String,
				Username:  ownerUsername.String,
				AvatarURL: ownerAvatar.String,
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	query := `
		SELECT id, owner_id, title, thumbnail_url, media_url, duration_seconds, created_at
		FROM videos WHERE id = $1
	`
	video := &models.Video{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&video.ID, &video.OwnerID, &video.Title,
		&video.ThumbnailURL, &video.MediaURL, &video.Duration, &video.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return video, nil
}
