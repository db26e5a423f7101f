package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

// Exists reports whether the video is already known.
func (r *VideoRepo) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM videos WHERE video_id = $1`, videoID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert creates a video row the first time the ingestor observes it. A
// concurrent duplicate insert is treated as already-known, not an error.
func (r *VideoRepo) Insert(ctx context.Context, v *model.Video) error {
	query := `
		INSERT INTO videos (video_id, channel_id, title, published_at, live, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		v.VideoID, v.ChannelID, v.Title, v.PublishedAt, v.Live, v.CreatedAt)
	return err
}

// CountPublishedBetween counts distinct videos published in [start, end),
// split by the live flag.
func (r *VideoRepo) CountPublishedBetween(ctx context.Context, channelID string, start, end time.Time) (published, publishedLive int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE NOT live),
		       COUNT(*) FILTER (WHERE live)
		FROM videos
		WHERE channel_id = $1 AND published_at >= $2 AND published_at < $3`

	err = r.pool.QueryRow(ctx, query, channelID, start, end).Scan(&published, &publishedLive)
	return published, publishedLive, err
}

// Count returns the total number of known videos.
func (r *VideoRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}
