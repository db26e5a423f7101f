package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/metrics"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

// ChannelStore is the slice of channel persistence the ingestor needs.
type ChannelStore interface {
	FindByID(ctx context.Context, channelID string) (*model.Channel, error)
	UpdateStatus(ctx context.Context, channelID string, status model.ChannelStatus) error
	UpdateCounters(ctx context.Context, channelID string, info *source.ChannelInfo, syncedAt time.Time) error
}

// VideoStore is the slice of video persistence the ingestor needs.
type VideoStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	Insert(ctx context.Context, v *model.Video) error
}

// SnapshotWriter appends observation rows.
type SnapshotWriter interface {
	InsertVideoSnapshot(ctx context.Context, s *model.VideoSnapshot) error
	InsertChannelSnapshot(ctx context.Context, s *model.ChannelStatSnapshot) error
}

// SyncResult reports what one channel sync accomplished. Per-video failures
// are recorded and skipped; they do not fail the channel.
type SyncResult struct {
	VideosScanned    int
	SnapshotsWritten int
	FailedVideoIDs   []string
}

// IngestService pulls current metrics for one channel from the external
// source and appends snapshot rows. It is the only component that writes
// Channel.status.
type IngestService struct {
	channels  ChannelStore
	videos    VideoStore
	snapshots SnapshotWriter
	src       source.MetricsSource
	pageSize  int
	log       zerolog.Logger
}

func NewIngestService(channels ChannelStore, videos VideoStore, snapshots SnapshotWriter, src source.MetricsSource, pageSize int, log zerolog.Logger) *IngestService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &IngestService{
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		src:       src,
		pageSize:  pageSize,
		log:       log.With().Str("component", "ingest").Logger(),
	}
}

// SyncChannel performs a full sync: channel stats, recent video listing, one
// snapshot per video. Counters on the channel are overwritten with the
// latest observed totals.
//
// Status handling: NotFound from the source marks the channel needs_reauth
// and Revoked marks it revoked; neither is an error to the caller. Quota
// exhaustion aborts the remaining videos but keeps everything already
// written, then propagates so the task runner can mark the run retryable.
func (s *IngestService) SyncChannel(ctx context.Context, channelID string) (*SyncResult, error) {
	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("find channel %s: %w", channelID, err)
	}

	if err := s.channels.UpdateStatus(ctx, channelID, model.ChannelSyncing); err != nil {
		return nil, fmt.Errorf("mark syncing: %w", err)
	}

	info, err := s.src.LookupChannel(ctx, ch.ExternalID)
	if handled, herr := s.handleLookupError(ctx, ch, err); handled {
		return &SyncResult{}, herr
	}

	videos, err := s.src.ListRecentVideos(ctx, ch.ExternalID, s.pageSize)
	if err != nil {
		s.restoreStatus(ctx, ch)
		classifySourceError(err)
		return nil, fmt.Errorf("list videos for %s: %w", channelID, err)
	}

	res := &SyncResult{VideosScanned: len(videos)}
	for _, v := range videos {
		if err := s.ensureVideo(ctx, ch.ChannelID, v); err != nil {
			s.log.Warn().Err(err).Str("video", v.VideoID).Msg("video upsert failed, skipping")
			res.FailedVideoIDs = append(res.FailedVideoIDs, v.VideoID)
			continue
		}

		stats, err := s.src.GetVideoStats(ctx, v.VideoID)
		if errors.Is(err, source.ErrQuotaExceeded) {
			// Persist the channel-level observation before bailing so the
			// already-written snapshots stay consistent with the counters.
			classifySourceError(err)
			if ferr := s.finishChannel(ctx, ch.ChannelID, info); ferr != nil {
				s.log.Error().Err(ferr).Str("channel", channelID).Msg("finish after quota abort failed")
			}
			return res, fmt.Errorf("sync channel %s: %w", channelID, err)
		}
		if err != nil {
			classifySourceError(err)
			s.log.Warn().Err(err).Str("video", v.VideoID).Msg("video stats fetch failed, skipping")
			res.FailedVideoIDs = append(res.FailedVideoIDs, v.VideoID)
			continue
		}

		snap := &model.VideoSnapshot{
			VideoID:      v.VideoID,
			ChannelID:    ch.ChannelID,
			CollectedAt:  time.Now().UTC(),
			ViewCount:    stats.ViewCount,
			LikeCount:    stats.LikeCount,
			CommentCount: stats.CommentCount,
		}
		if err := s.snapshots.InsertVideoSnapshot(ctx, snap); err != nil {
			s.log.Warn().Err(err).Str("video", v.VideoID).Msg("snapshot insert failed, skipping")
			res.FailedVideoIDs = append(res.FailedVideoIDs, v.VideoID)
			continue
		}
		res.SnapshotsWritten++
		metrics.SnapshotsWritten.Inc()
	}

	if err := s.finishChannel(ctx, ch.ChannelID, info); err != nil {
		return res, fmt.Errorf("finish channel %s: %w", channelID, err)
	}

	s.log.Info().
		Str("channel", channelID).
		Int("scanned", res.VideosScanned).
		Int("written", res.SnapshotsWritten).
		Int("failed", len(res.FailedVideoIDs)).
		Msg("channel sync complete")
	return res, nil
}

// RefreshChannelStats fetches channel-level statistics only, appends a
// channel snapshot and overwrites the counters. Used by the hourly and
// daily refresh tasks, which skip the per-video work.
func (s *IngestService) RefreshChannelStats(ctx context.Context, channelID string) error {
	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("find channel %s: %w", channelID, err)
	}

	info, err := s.src.LookupChannel(ctx, ch.ExternalID)
	if handled, herr := s.handleLookupError(ctx, ch, err); handled {
		return herr
	}

	if err := s.finishChannel(ctx, ch.ChannelID, info); err != nil {
		return fmt.Errorf("refresh channel %s: %w", channelID, err)
	}
	return nil
}

// handleLookupError maps source lookup failures onto status transitions.
// Returns handled=true when the caller should stop; herr is nil for the
// terminal status transitions (they are outcomes, not failures).
func (s *IngestService) handleLookupError(ctx context.Context, ch *model.Channel, err error) (handled bool, herr error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, source.ErrNotFound):
		classifySourceError(err)
		s.log.Warn().Str("channel", ch.ChannelID).Msg("external id not resolvable, marking needs_reauth")
		if uerr := s.channels.UpdateStatus(ctx, ch.ChannelID, model.ChannelNeedsReauth); uerr != nil {
			return true, fmt.Errorf("mark needs_reauth: %w", uerr)
		}
		return true, nil
	case errors.Is(err, source.ErrRevoked):
		classifySourceError(err)
		s.log.Warn().Str("channel", ch.ChannelID).Msg("channel revoked upstream")
		if uerr := s.channels.UpdateStatus(ctx, ch.ChannelID, model.ChannelRevoked); uerr != nil {
			return true, fmt.Errorf("mark revoked: %w", uerr)
		}
		return true, nil
	default:
		classifySourceError(err)
		s.restoreStatus(ctx, ch)
		return true, fmt.Errorf("lookup channel %s: %w", ch.ChannelID, err)
	}
}

func (s *IngestService) ensureVideo(ctx context.Context, channelID string, v source.VideoInfo) error {
	known, err := s.videos.Exists(ctx, v.VideoID)
	if err != nil || known {
		return err
	}
	return s.videos.Insert(ctx, &model.Video{
		VideoID:     v.VideoID,
		ChannelID:   channelID,
		Title:       v.Title,
		PublishedAt: v.PublishedAt,
		Live:        ClassifyLive(v.Title),
		CreatedAt:   time.Now().UTC(),
	})
}

// finishChannel appends the channel-level snapshot and overwrites the
// cumulative counters, returning the channel to active.
func (s *IngestService) finishChannel(ctx context.Context, channelID string, info *source.ChannelInfo) error {
	now := time.Now().UTC()
	snap := &model.ChannelStatSnapshot{
		ChannelID:        channelID,
		CollectedAt:      now,
		TotalViews:       info.TotalViews,
		TotalSubscribers: info.TotalSubscribers,
		VideoCount:       info.VideoCount,
	}
	if err := s.snapshots.InsertChannelSnapshot(ctx, snap); err != nil {
		return err
	}
	return s.channels.UpdateCounters(ctx, channelID, info, now)
}

// restoreStatus puts a channel back to active after a retryable failure so
// it is not left looking stuck in "syncing".
func (s *IngestService) restoreStatus(ctx context.Context, ch *model.Channel) {
	if err := s.channels.UpdateStatus(ctx, ch.ChannelID, model.ChannelActive); err != nil {
		s.log.Error().Err(err).Str("channel", ch.ChannelID).Msg("status restore failed")
	}
}

func classifySourceError(err error) {
	switch {
	case errors.Is(err, source.ErrQuotaExceeded):
		metrics.SourceErrors.WithLabelValues("quota").Inc()
	case errors.Is(err, source.ErrNotFound):
		metrics.SourceErrors.WithLabelValues("not_found").Inc()
	case errors.Is(err, source.ErrRevoked):
		metrics.SourceErrors.WithLabelValues("revoked").Inc()
	case errors.Is(err, source.ErrTransient):
		metrics.SourceErrors.WithLabelValues("transient").Inc()
	default:
		metrics.SourceErrors.WithLabelValues("other").Inc()
	}
}
