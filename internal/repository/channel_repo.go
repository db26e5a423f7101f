package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

const channelColumns = `channel_id, external_id, title, thumbnail_url, total_views,
	       total_subscribers, video_count, status, last_sync_at, created_at`

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// Insert creates a channel row after the first successful external lookup.
func (r *ChannelRepo) Insert(ctx context.Context, ch *model.Channel) error {
	query := `
		INSERT INTO channels (channel_id, external_id, title, thumbnail_url, total_views,
		                      total_subscribers, video_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		ch.ChannelID, ch.ExternalID, ch.Title, ch.ThumbnailURL, ch.TotalViews,
		ch.TotalSubscribers, ch.VideoCount, ch.Status, ch.CreatedAt,
	)
	return err
}

// FindByID returns a single channel by its internal ID.
func (r *ChannelRepo) FindByID(ctx context.Context, channelID string) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE channel_id = $1`

	var ch model.Channel
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&ch.ChannelID, &ch.ExternalID, &ch.Title, &ch.ThumbnailURL, &ch.TotalViews,
		&ch.TotalSubscribers, &ch.VideoCount, &ch.Status, &ch.LastSyncAt, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// FindByExternalID returns a channel by its YouTube channel ID.
func (r *ChannelRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE external_id = $1`

	var ch model.Channel
	err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&ch.ChannelID, &ch.ExternalID, &ch.Title, &ch.ThumbnailURL, &ch.TotalViews,
		&ch.TotalSubscribers, &ch.VideoCount, &ch.Status, &ch.LastSyncAt, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns all channels ordered by creation time.
func (r *ChannelRepo) List(ctx context.Context) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		err := rows.Scan(
			&ch.ChannelID, &ch.ExternalID, &ch.Title, &ch.ThumbnailURL, &ch.TotalViews,
			&ch.TotalSubscribers, &ch.VideoCount, &ch.Status, &ch.LastSyncAt, &ch.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// ListSyncable returns channels eligible for sync tasks. Channels stuck in
// "syncing" from a crashed run are included so they self-heal.
func (r *ChannelRepo) ListSyncable(ctx context.Context) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels
		WHERE status IN ('active', 'syncing')
		ORDER BY last_sync_at ASC NULLS FIRST`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		err := rows.Scan(
			&ch.ChannelID, &ch.ExternalID, &ch.Title, &ch.ThumbnailURL, &ch.TotalViews,
			&ch.TotalSubscribers, &ch.VideoCount, &ch.Status, &ch.LastSyncAt, &ch.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpdateStatus transitions the channel sync state. Only the ingestor calls
// this; no other component writes status.
func (r *ChannelRepo) UpdateStatus(ctx context.Context, channelID string, status model.ChannelStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET status = $1 WHERE channel_id = $2`, status, channelID)
	return err
}

// UpdateCounters overwrites the cumulative counters with the latest observed
// totals (last-write-wins) and stamps last_sync_at.
func (r *ChannelRepo) UpdateCounters(ctx context.Context, channelID string, info *source.ChannelInfo, syncedAt time.Time) error {
	query := `
		UPDATE channels
		SET title = $1, thumbnail_url = $2, total_views = $3, total_subscribers = $4,
		    video_count = $5, status = 'active', last_sync_at = $6
		WHERE channel_id = $7`

	_, err := r.pool.Exec(ctx, query,
		info.Title, info.ThumbnailURL, info.TotalViews, info.TotalSubscribers,
		info.VideoCount, syncedAt, channelID,
	)
	return err
}

// CountByStatus returns total and active channel counts for the overview.
func (r *ChannelRepo) CountByStatus(ctx context.Context) (total, active int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM channels`

	err = r.pool.QueryRow(ctx, query).Scan(&total, &active)
	return total, active, err
}

// LastSyncAt returns the most recent sync timestamp across all channels.
func (r *ChannelRepo) LastSyncAt(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(last_sync_at) FROM channels`).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}
