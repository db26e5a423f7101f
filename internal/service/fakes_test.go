package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

// --- source fake ---

type fakeSource struct {
	info      *source.ChannelInfo
	lookupErr error
	videos    []source.VideoInfo
	listErr   error
	stats     map[string]*source.VideoStats
	statsErr  map[string]error
}

func (f *fakeSource) LookupChannel(ctx context.Context, externalID string) (*source.ChannelInfo, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.info, nil
}

func (f *fakeSource) ListRecentVideos(ctx context.Context, externalID string, limit int) ([]source.VideoInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.videos, nil
}

func (f *fakeSource) GetVideoStats(ctx context.Context, videoID string) (*source.VideoStats, error) {
	if err, ok := f.statsErr[videoID]; ok {
		return nil, err
	}
	if st, ok := f.stats[videoID]; ok {
		return st, nil
	}
	return &source.VideoStats{}, nil
}

// --- store fakes for the ingestor ---

type fakeChannelStore struct {
	mu       sync.Mutex
	channels map[string]*model.Channel
	statuses []model.ChannelStatus
}

func newFakeChannelStore(chs ...*model.Channel) *fakeChannelStore {
	m := make(map[string]*model.Channel, len(chs))
	for _, ch := range chs {
		m[ch.ChannelID] = ch
	}
	return &fakeChannelStore{channels: m}
}

func (f *fakeChannelStore) FindByID(ctx context.Context, channelID string) (*model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *ch
	return &cp, nil
}

func (f *fakeChannelStore) UpdateStatus(ctx context.Context, channelID string, status model.ChannelStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channelID].Status = status
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeChannelStore) UpdateCounters(ctx context.Context, channelID string, info *source.ChannelInfo, syncedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := f.channels[channelID]
	ch.TotalViews = info.TotalViews
	ch.TotalSubscribers = info.TotalSubscribers
	ch.VideoCount = info.VideoCount
	ch.Status = model.ChannelActive
	ch.LastSyncAt = &syncedAt
	return nil
}

func (f *fakeChannelStore) status(channelID string) model.ChannelStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID].Status
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]*model.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]*model.Video)}
}

func (f *fakeVideoStore) Exists(ctx context.Context, videoID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.videos[videoID]
	return ok, nil
}

func (f *fakeVideoStore) Insert(ctx context.Context, v *model.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.VideoID] = v
	return nil
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	videoSnap []model.VideoSnapshot
	chanSnap  []model.ChannelStatSnapshot
}

func (f *fakeSnapshotStore) InsertVideoSnapshot(ctx context.Context, s *model.VideoSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoSnap = append(f.videoSnap, *s)
	return nil
}

func (f *fakeSnapshotStore) InsertChannelSnapshot(ctx context.Context, s *model.ChannelStatSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chanSnap = append(f.chanSnap, *s)
	return nil
}

// --- rollup fakes ---

type fakeVideoCounter struct {
	published int
	live      int
	err       error
}

func (f *fakeVideoCounter) CountPublishedBetween(ctx context.Context, channelID string, start, end time.Time) (int, int, error) {
	return f.published, f.live, f.err
}

type fakeSnapshotReader struct {
	snaps    []model.ChannelStatSnapshot
	sumViews int64
}

func (f *fakeSnapshotReader) SumLatestVideoViews(ctx context.Context, channelID string, dayStart, dayEnd time.Time) (int64, error) {
	return f.sumViews, nil
}

func (f *fakeSnapshotReader) LatestChannelSnapshotBefore(ctx context.Context, channelID string, t time.Time) (*model.ChannelStatSnapshot, error) {
	var latest *model.ChannelStatSnapshot
	for i := range f.snaps {
		s := f.snaps[i]
		if s.CollectedAt.Before(t) && (latest == nil || s.CollectedAt.After(latest.CollectedAt)) {
			latest = &f.snaps[i]
		}
	}
	return latest, nil
}

type fakeDailyWriter struct {
	mu      sync.Mutex
	upserts []model.ChannelDailyStat
}

func (f *fakeDailyWriter) Upsert(ctx context.Context, stat *model.ChannelDailyStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *stat)
	return nil
}

// --- task runner fakes ---

type fakeLister struct {
	channels []model.Channel
	err      error
}

func (f *fakeLister) ListSyncable(ctx context.Context) ([]model.Channel, error) {
	return f.channels, f.err
}

type fakeLogStore struct {
	mu       sync.Mutex
	inserted []model.TaskLog
	finished []model.TaskLog
}

func (f *fakeLogStore) Insert(ctx context.Context, tl *model.TaskLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, *tl)
	return nil
}

func (f *fakeLogStore) Finish(ctx context.Context, tl *model.TaskLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, *tl)
	return nil
}

func (f *fakeLogStore) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakeSyncer struct {
	mu           sync.Mutex
	syncFn       func(channelID string) (*SyncResult, error)
	refreshFn    func(channelID string) error
	syncCalls    []string
	refreshCalls []string
}

func (f *fakeSyncer) SyncChannel(ctx context.Context, channelID string) (*SyncResult, error) {
	f.mu.Lock()
	f.syncCalls = append(f.syncCalls, channelID)
	fn := f.syncFn
	f.mu.Unlock()
	if fn != nil {
		return fn(channelID)
	}
	return &SyncResult{VideosScanned: 1, SnapshotsWritten: 1}, nil
}

func (f *fakeSyncer) RefreshChannelStats(ctx context.Context, channelID string) error {
	f.mu.Lock()
	f.refreshCalls = append(f.refreshCalls, channelID)
	fn := f.refreshFn
	f.mu.Unlock()
	if fn != nil {
		return fn(channelID)
	}
	return nil
}

func (f *fakeSyncer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncCalls) + len(f.refreshCalls)
}

type fakeRollupEngine struct {
	mu    sync.Mutex
	calls []string
	days  []int
	err   error
}

func (f *fakeRollupEngine) Backfill(ctx context.Context, channelID string, days int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, channelID)
	f.days = append(f.days, days)
	if f.err != nil {
		return 0, f.err
	}
	return days, nil
}
