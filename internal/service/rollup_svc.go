package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/config"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/metrics"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/pkg/timeutil"
)

// ViewsEstimateFraction is the fixed fraction of cumulative channel views
// attributed to a single day under the "estimate" rule. It exists for
// deployments without enough snapshot history for the exact delta rule.
const ViewsEstimateFraction = 0.002

// VideoCounter is the slice of video persistence the rollup needs.
type VideoCounter interface {
	CountPublishedBetween(ctx context.Context, channelID string, start, end time.Time) (published, publishedLive int, err error)
}

// SnapshotReader reads the append-only observation tables.
type SnapshotReader interface {
	SumLatestVideoViews(ctx context.Context, channelID string, dayStart, dayEnd time.Time) (int64, error)
	LatestChannelSnapshotBefore(ctx context.Context, channelID string, t time.Time) (*model.ChannelStatSnapshot, error)
}

// DailyStatWriter upserts rollup rows.
type DailyStatWriter interface {
	Upsert(ctx context.Context, stat *model.ChannelDailyStat) error
}

// RollupService derives ChannelDailyStat rows from snapshots and publication
// events. Recomputing a day is an idempotent overwrite: the same snapshot
// data always yields the same row.
type RollupService struct {
	videos    VideoCounter
	snapshots SnapshotReader
	daily     DailyStatWriter
	viewsRule string
	log       zerolog.Logger
}

func NewRollupService(videos VideoCounter, snapshots SnapshotReader, daily DailyStatWriter, viewsRule string, log zerolog.Logger) *RollupService {
	if viewsRule != config.ViewsRuleDelta && viewsRule != config.ViewsRuleEstimate {
		viewsRule = config.ViewsRuleDelta
	}
	return &RollupService{
		videos:    videos,
		snapshots: snapshots,
		daily:     daily,
		viewsRule: viewsRule,
		log:       log.With().Str("component", "rollup").Logger(),
	}
}

// RecomputeDay rebuilds the aggregate row for one UTC calendar day. A day
// with no source data still produces a zero-filled row so the series stays
// dense for charting.
func (s *RollupService) RecomputeDay(ctx context.Context, channelID string, date time.Time) (*model.ChannelDailyStat, error) {
	dayStart, dayEnd := timeutil.DayBounds(date)

	published, publishedLive, err := s.videos.CountPublishedBetween(ctx, channelID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("count published: %w", err)
	}

	totalVideoViews, err := s.snapshots.SumLatestVideoViews(ctx, channelID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("sum video views: %w", err)
	}

	dayEndSnap, err := s.snapshots.LatestChannelSnapshotBefore(ctx, channelID, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day-end snapshot: %w", err)
	}
	prevEndSnap, err := s.snapshots.LatestChannelSnapshotBefore(ctx, channelID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("previous day-end snapshot: %w", err)
	}

	stat := &model.ChannelDailyStat{
		ChannelID:           channelID,
		Date:                dayStart,
		Views:               computeViews(s.viewsRule, dayEndSnap, prevEndSnap),
		VideosPublished:     published,
		VideosPublishedLive: publishedLive,
		SubscribersGained:   computeSubscribersGained(dayEndSnap, prevEndSnap),
		TotalVideoViews:     totalVideoViews,
		UpdatedAt:           time.Now().UTC(),
	}

	if err := s.daily.Upsert(ctx, stat); err != nil {
		return nil, fmt.Errorf("upsert daily stat: %w", err)
	}
	metrics.RollupRecomputes.Inc()
	return stat, nil
}

// Backfill recomputes the rows for the `days` calendar days preceding today
// (UTC), oldest first. Exactly `days` rows are written; empty days get
// zero-filled rows rather than being skipped.
func (s *RollupService) Backfill(ctx context.Context, channelID string, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	today := timeutil.DayStart(time.Now())
	written := 0
	for i := days; i >= 1; i-- {
		date := today.AddDate(0, 0, -i)
		if _, err := s.RecomputeDay(ctx, channelID, date); err != nil {
			return written, fmt.Errorf("backfill %s: %w", date.Format("2006-01-02"), err)
		}
		written++
	}

	s.log.Debug().Str("channel", channelID).Int("days", written).Msg("backfill complete")
	return written, nil
}

// computeViews derives the daily view delta under the configured rule.
//
// delta: difference of the channel's cumulative view counter between this
// day's end and the previous day's end. Negative differences (upstream
// counter corrections) clamp to zero; a missing snapshot on either side
// yields zero rather than guessing.
//
// estimate: a fixed fraction of the cumulative counter at day's end.
func computeViews(rule string, dayEnd, prevEnd *model.ChannelStatSnapshot) int64 {
	switch rule {
	case config.ViewsRuleEstimate:
		if dayEnd == nil {
			return 0
		}
		return int64(math.Round(float64(dayEnd.TotalViews) * ViewsEstimateFraction))
	default: // delta
		if dayEnd == nil || prevEnd == nil {
			return 0
		}
		delta := dayEnd.TotalViews - prevEnd.TotalViews
		if delta < 0 {
			return 0
		}
		return delta
	}
}

// computeSubscribersGained is the cumulative subscriber counter difference
// between day boundaries. May be negative; unsubscribes are real.
func computeSubscribersGained(dayEnd, prevEnd *model.ChannelStatSnapshot) int64 {
	if dayEnd == nil || prevEnd == nil {
		return 0
	}
	return dayEnd.TotalSubscribers - prevEnd.TotalSubscribers
}
