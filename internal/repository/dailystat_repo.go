package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
)

type DailyStatRepo struct {
	pool *pgxpool.Pool
}

func NewDailyStatRepo(pool *pgxpool.Pool) *DailyStatRepo {
	return &DailyStatRepo{pool: pool}
}

// Upsert writes the rollup row for (channel, date), overwriting every field
// in place. The unique constraint on (channel_id, date) plus this overwrite
// makes recomputation idempotent: same inputs, byte-identical row.
func (r *DailyStatRepo) Upsert(ctx context.Context, stat *model.ChannelDailyStat) error {
	query := `
		INSERT INTO channel_daily_stats
			(channel_id, date, views, videos_published, videos_published_live,
			 subscribers_gained, total_video_views, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (channel_id, date) DO UPDATE SET
			views                 = EXCLUDED.views,
			videos_published      = EXCLUDED.videos_published,
			videos_published_live = EXCLUDED.videos_published_live,
			subscribers_gained    = EXCLUDED.subscribers_gained,
			total_video_views     = EXCLUDED.total_video_views,
			updated_at            = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		stat.ChannelID, stat.Date, stat.Views, stat.VideosPublished,
		stat.VideosPublishedLive, stat.SubscribersGained, stat.TotalVideoViews,
		stat.UpdatedAt,
	)
	return err
}

// ListRange returns the rollup rows for a channel with date in [from, to),
// oldest first.
func (r *DailyStatRepo) ListRange(ctx context.Context, channelID string, from, to time.Time) ([]model.ChannelDailyStat, error) {
	query := `
		SELECT channel_id, date, views, videos_published, videos_published_live,
		       subscribers_gained, total_video_views, updated_at
		FROM channel_daily_stats
		WHERE channel_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC`

	rows, err := r.pool.Query(ctx, query, channelID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.ChannelDailyStat
	for rows.Next() {
		var s model.ChannelDailyStat
		err := rows.Scan(
			&s.ChannelID, &s.Date, &s.Views, &s.VideosPublished, &s.VideosPublishedLive,
			&s.SubscribersGained, &s.TotalVideoViews, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
