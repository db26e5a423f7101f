package service

import (
	"context"
	"time"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/repository"
)

// StatsService produces the global overview for the dashboard landing view.
type StatsService struct {
	channels  *repository.ChannelRepo
	videos    *repository.VideoRepo
	snapshots *repository.SnapshotRepo
	taskLogs  *repository.TaskLogRepo
}

func NewStatsService(channels *repository.ChannelRepo, videos *repository.VideoRepo, snapshots *repository.SnapshotRepo, taskLogs *repository.TaskLogRepo) *StatsService {
	return &StatsService{
		channels:  channels,
		videos:    videos,
		snapshots: snapshots,
		taskLogs:  taskLogs,
	}
}

func (s *StatsService) Overview(ctx context.Context) (*model.OverviewStats, error) {
	total, active, err := s.channels.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	videoCount, err := s.videos.Count(ctx)
	if err != nil {
		return nil, err
	}

	snapshotCount, err := s.snapshots.CountVideoSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	lastSync, err := s.channels.LastSyncAt(ctx)
	if err != nil {
		return nil, err
	}

	runs, failed, err := s.taskLogs.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &model.OverviewStats{
		TotalChannels:  total,
		ActiveChannels: active,
		TotalVideos:    videoCount,
		TotalSnapshots: snapshotCount,
		LastSyncAt:     lastSync,
		TaskRuns24h:    runs,
		FailedRuns24h:  failed,
	}, nil
}
