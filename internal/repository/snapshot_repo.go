package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
)

// SnapshotRepo owns the two append-only observation tables: per-video
// counter snapshots and channel-level cumulative counter snapshots. Rows are
// never updated after insertion.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// InsertVideoSnapshot appends one observation for a video. Every ingestion
// run appends a row even when nothing changed, keeping the series dense.
func (r *SnapshotRepo) InsertVideoSnapshot(ctx context.Context, s *model.VideoSnapshot) error {
	query := `
		INSERT INTO video_snapshots (video_id, channel_id, collected_at, view_count, like_count, comment_count)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		s.VideoID, s.ChannelID, s.CollectedAt, s.ViewCount, s.LikeCount, s.CommentCount)
	return err
}

// InsertChannelSnapshot appends one channel-level counter observation.
func (r *SnapshotRepo) InsertChannelSnapshot(ctx context.Context, s *model.ChannelStatSnapshot) error {
	query := `
		INSERT INTO channel_stat_snapshots (channel_id, collected_at, total_views, total_subscribers, video_count)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		s.ChannelID, s.CollectedAt, s.TotalViews, s.TotalSubscribers, s.VideoCount)
	return err
}

// SumLatestVideoViews sums, over all of the channel's videos published in
// [dayStart, dayEnd), each video's most recent snapshot view count collected
// before dayEnd.
func (r *SnapshotRepo) SumLatestVideoViews(ctx context.Context, channelID string, dayStart, dayEnd time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(latest.view_count), 0)
		FROM videos v
		JOIN LATERAL (
			SELECT s.view_count
			FROM video_snapshots s
			WHERE s.video_id = v.video_id AND s.collected_at < $3
			ORDER BY s.collected_at DESC
			LIMIT 1
		) latest ON true
		WHERE v.channel_id = $1 AND v.published_at >= $2 AND v.published_at < $3`

	var sum int64
	err := r.pool.QueryRow(ctx, query, channelID, dayStart, dayEnd).Scan(&sum)
	return sum, err
}

// LatestChannelSnapshotBefore returns the channel's cumulative counters as
// of the last observation strictly before t, or nil when none exists.
func (r *SnapshotRepo) LatestChannelSnapshotBefore(ctx context.Context, channelID string, t time.Time) (*model.ChannelStatSnapshot, error) {
	query := `
		SELECT id, channel_id, collected_at, total_views, total_subscribers, video_count
		FROM channel_stat_snapshots
		WHERE channel_id = $1 AND collected_at < $2
		ORDER BY collected_at DESC
		LIMIT 1`

	var s model.ChannelStatSnapshot
	err := r.pool.QueryRow(ctx, query, channelID, t).Scan(
		&s.ID, &s.ChannelID, &s.CollectedAt, &s.TotalViews, &s.TotalSubscribers, &s.VideoCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountVideoSnapshots returns the total number of video snapshot rows.
func (r *SnapshotRepo) CountVideoSnapshots(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM video_snapshots`).Scan(&n)
	return n, err
}
