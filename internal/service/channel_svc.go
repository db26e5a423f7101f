package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/repository"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
	"github.com/tiaochao/YouTubeRadar-sub001/pkg/timeutil"
)

// ErrChannelExists means the external channel is already tracked.
var ErrChannelExists = errors.New("channel already tracked")

// ChannelService handles channel registration and the report reads the UI
// consumes. Registration is the one place a Channel row is created: the
// first successful external lookup.
type ChannelService struct {
	channels *repository.ChannelRepo
	daily    *repository.DailyStatRepo
	src      source.MetricsSource
	cache    *ReportCache
	log      zerolog.Logger
}

func NewChannelService(channels *repository.ChannelRepo, daily *repository.DailyStatRepo, src source.MetricsSource, cache *ReportCache, log zerolog.Logger) *ChannelService {
	return &ChannelService{
		channels: channels,
		daily:    daily,
		src:      src,
		cache:    cache,
		log:      log.With().Str("component", "channels").Logger(),
	}
}

// Register looks up the external channel and creates the tracking row.
func (s *ChannelService) Register(ctx context.Context, externalID string) (*model.Channel, error) {
	existing, err := s.channels.FindByExternalID(ctx, externalID)
	if err == nil {
		return existing, ErrChannelExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing channel: %w", err)
	}

	info, err := s.src.LookupChannel(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup channel %s: %w", externalID, err)
	}

	ch := &model.Channel{
		ChannelID:        uuid.NewString(),
		ExternalID:       info.ExternalID,
		Title:            info.Title,
		ThumbnailURL:     info.ThumbnailURL,
		TotalViews:       info.TotalViews,
		TotalSubscribers: info.TotalSubscribers,
		VideoCount:       info.VideoCount,
		Status:           model.ChannelActive,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.channels.Insert(ctx, ch); err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}

	s.log.Info().Str("channel", ch.ChannelID).Str("external", externalID).Msg("channel registered")
	return ch, nil
}

// List returns all tracked channels.
func (s *ChannelService) List(ctx context.Context) ([]model.ChannelResponse, error) {
	channels, err := s.channels.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]model.ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, toChannelResponse(&ch))
	}
	return resp, nil
}

// Get returns one channel by internal ID. pgx.ErrNoRows passes through for
// the handler's 404 mapping.
func (s *ChannelService) Get(ctx context.Context, channelID string) (*model.ChannelResponse, error) {
	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	resp := toChannelResponse(ch)
	return &resp, nil
}

// DailyStats returns the rollup series for the last `days` UTC days,
// cache-aside through Redis.
func (s *ChannelService) DailyStats(ctx context.Context, channelID string, days int) ([]model.DailyStatRow, error) {
	if cached, err := s.cache.GetDaily(ctx, channelID, days); err != nil {
		s.log.Warn().Err(err).Msg("report cache get failed")
	} else if cached != nil {
		var rows []model.DailyStatRow
		if err := json.Unmarshal(cached, &rows); err == nil {
			return rows, nil
		}
	}

	now := time.Now()
	from := timeutil.DaysAgo(now, days)
	to := timeutil.DayStart(now)
	stats, err := s.daily.ListRange(ctx, channelID, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]model.DailyStatRow, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, model.DailyStatRow{
			Date:                st.Date.Format("2006-01-02"),
			Views:               st.Views,
			VideosPublished:     st.VideosPublished,
			VideosPublishedLive: st.VideosPublishedLive,
			SubscribersGained:   st.SubscribersGained,
			TotalVideoViews:     st.TotalVideoViews,
		})
	}

	if err := s.cache.SetDaily(ctx, channelID, days, rows); err != nil {
		s.log.Warn().Err(err).Msg("report cache set failed")
	}
	return rows, nil
}

func toChannelResponse(ch *model.Channel) model.ChannelResponse {
	return model.ChannelResponse{
		ChannelID:        ch.ChannelID,
		ExternalID:       ch.ExternalID,
		Title:            ch.Title,
		TotalViews:       ch.TotalViews,
		TotalSubscribers: ch.TotalSubscribers,
		VideoCount:       ch.VideoCount,
		Status:           string(ch.Status),
		LastSyncAt:       ch.LastSyncAt,
	}
}
