package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

func testChannel() *model.Channel {
	return &model.Channel{
		ChannelID:  "ch1",
		ExternalID: "UCabc",
		Title:      "Test Channel",
		Status:     model.ChannelActive,
	}
}

func testInfo() *source.ChannelInfo {
	return &source.ChannelInfo{
		ExternalID:       "UCabc",
		Title:            "Test Channel",
		TotalViews:       1_000_000,
		TotalSubscribers: 5_000,
		VideoCount:       42,
	}
}

func newIngest(src source.MetricsSource, chs *fakeChannelStore, vids *fakeVideoStore, snaps *fakeSnapshotStore) *IngestService {
	return NewIngestService(chs, vids, snaps, src, 50, zerolog.Nop())
}

func TestSyncChannel_HappyPath(t *testing.T) {
	src := &fakeSource{
		info: testInfo(),
		videos: []source.VideoInfo{
			{VideoID: "v1", Title: "First video", PublishedAt: time.Now().Add(-48 * time.Hour)},
			{VideoID: "v2", Title: "🔴 Launch livestream", PublishedAt: time.Now().Add(-24 * time.Hour)},
		},
		stats: map[string]*source.VideoStats{
			"v1": {ViewCount: 100, LikeCount: 10, CommentCount: 1},
			"v2": {ViewCount: 200, LikeCount: 20, CommentCount: 2},
		},
	}
	chs := newFakeChannelStore(testChannel())
	vids := newFakeVideoStore()
	snaps := &fakeSnapshotStore{}

	res, err := newIngest(src, chs, vids, snaps).SyncChannel(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("SyncChannel: %v", err)
	}

	if res.VideosScanned != 2 || res.SnapshotsWritten != 2 || len(res.FailedVideoIDs) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(snaps.videoSnap) != 2 {
		t.Errorf("video snapshots = %d, want 2", len(snaps.videoSnap))
	}
	if len(snaps.chanSnap) != 1 {
		t.Errorf("channel snapshots = %d, want 1", len(snaps.chanSnap))
	}

	// Live flag inferred from the title at first observation.
	if v := vids.videos["v2"]; v == nil || !v.Live {
		t.Error("v2 should be classified live")
	}
	if v := vids.videos["v1"]; v == nil || v.Live {
		t.Error("v1 should not be classified live")
	}

	// Counters overwritten to the latest totals, status back to active.
	ch, _ := chs.FindByID(context.Background(), "ch1")
	if ch.TotalViews != 1_000_000 || ch.TotalSubscribers != 5_000 {
		t.Errorf("counters not overwritten: %+v", ch)
	}
	if ch.Status != model.ChannelActive {
		t.Errorf("status = %s, want active", ch.Status)
	}
	if ch.LastSyncAt == nil {
		t.Error("lastSyncAt not set")
	}
}

func TestSyncChannel_PartialVideoFailure(t *testing.T) {
	src := &fakeSource{
		info: testInfo(),
		videos: []source.VideoInfo{
			{VideoID: "v1", Title: "one"},
			{VideoID: "v2", Title: "two"},
			{VideoID: "v3", Title: "three"},
		},
		stats: map[string]*source.VideoStats{
			"v1": {ViewCount: 1}, "v3": {ViewCount: 3},
		},
		statsErr: map[string]error{
			"v2": source.Transient(errors.New("read timeout")),
		},
	}
	chs := newFakeChannelStore(testChannel())
	snaps := &fakeSnapshotStore{}

	res, err := newIngest(src, chs, newFakeVideoStore(), snaps).SyncChannel(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("one failed video must not fail the channel: %v", err)
	}

	if res.SnapshotsWritten != 2 {
		t.Errorf("snapshots = %d, want 2 (N-1)", res.SnapshotsWritten)
	}
	if len(res.FailedVideoIDs) != 1 || res.FailedVideoIDs[0] != "v2" {
		t.Errorf("failed ids = %v, want [v2]", res.FailedVideoIDs)
	}
}

func TestSyncChannel_QuotaAbortsButKeepsWrites(t *testing.T) {
	src := &fakeSource{
		info: testInfo(),
		videos: []source.VideoInfo{
			{VideoID: "v1", Title: "one"},
			{VideoID: "v2", Title: "two"},
			{VideoID: "v3", Title: "three"},
		},
		stats:    map[string]*source.VideoStats{"v1": {ViewCount: 1}},
		statsErr: map[string]error{"v2": source.ErrQuotaExceeded},
	}
	chs := newFakeChannelStore(testChannel())
	snaps := &fakeSnapshotStore{}

	res, err := newIngest(src, chs, newFakeVideoStore(), snaps).SyncChannel(context.Background(), "ch1")
	if !errors.Is(err, source.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}

	// The first video's snapshot stays; no rollback on abort.
	if res.SnapshotsWritten != 1 {
		t.Errorf("snapshots = %d, want 1", res.SnapshotsWritten)
	}
	// Channel-level observation is still persisted so counters and
	// snapshots stay consistent.
	if len(snaps.chanSnap) != 1 {
		t.Errorf("channel snapshots = %d, want 1", len(snaps.chanSnap))
	}
}

func TestSyncChannel_NotFoundMarksNeedsReauth(t *testing.T) {
	src := &fakeSource{lookupErr: source.ErrNotFound}
	chs := newFakeChannelStore(testChannel())

	res, err := newIngest(src, chs, newFakeVideoStore(), &fakeSnapshotStore{}).
		SyncChannel(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("not-found is a status outcome, not an error: %v", err)
	}
	if res.SnapshotsWritten != 0 {
		t.Errorf("snapshots = %d, want 0", res.SnapshotsWritten)
	}
	if got := chs.status("ch1"); got != model.ChannelNeedsReauth {
		t.Errorf("status = %s, want needs_reauth", got)
	}
}

func TestSyncChannel_RevokedMarksRevoked(t *testing.T) {
	src := &fakeSource{lookupErr: source.ErrRevoked}
	chs := newFakeChannelStore(testChannel())

	_, err := newIngest(src, chs, newFakeVideoStore(), &fakeSnapshotStore{}).
		SyncChannel(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("revoked is a status outcome, not an error: %v", err)
	}
	if got := chs.status("ch1"); got != model.ChannelRevoked {
		t.Errorf("status = %s, want revoked", got)
	}
}

func TestSyncChannel_TransientLookupRestoresStatus(t *testing.T) {
	src := &fakeSource{lookupErr: source.Transient(errors.New("dns failure"))}
	chs := newFakeChannelStore(testChannel())

	_, err := newIngest(src, chs, newFakeVideoStore(), &fakeSnapshotStore{}).
		SyncChannel(context.Background(), "ch1")
	if !errors.Is(err, source.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
	// Channel must not be left stuck in "syncing".
	if got := chs.status("ch1"); got != model.ChannelActive {
		t.Errorf("status = %s, want active after transient failure", got)
	}
}

func TestSyncChannel_EveryRunAppendsSnapshots(t *testing.T) {
	src := &fakeSource{
		info:   testInfo(),
		videos: []source.VideoInfo{{VideoID: "v1", Title: "one"}},
		stats:  map[string]*source.VideoStats{"v1": {ViewCount: 100}},
	}
	chs := newFakeChannelStore(testChannel())
	snaps := &fakeSnapshotStore{}
	svc := newIngest(src, chs, newFakeVideoStore(), snaps)

	for i := 0; i < 3; i++ {
		if _, err := svc.SyncChannel(context.Background(), "ch1"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// Identical consecutive values are not deduplicated.
	if len(snaps.videoSnap) != 3 {
		t.Errorf("video snapshots = %d, want 3", len(snaps.videoSnap))
	}
	if len(snaps.chanSnap) != 3 {
		t.Errorf("channel snapshots = %d, want 3", len(snaps.chanSnap))
	}
}

func TestRefreshChannelStats_ChannelSnapshotOnly(t *testing.T) {
	src := &fakeSource{info: testInfo()}
	chs := newFakeChannelStore(testChannel())
	snaps := &fakeSnapshotStore{}

	err := newIngest(src, chs, newFakeVideoStore(), snaps).
		RefreshChannelStats(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("RefreshChannelStats: %v", err)
	}

	if len(snaps.chanSnap) != 1 || len(snaps.videoSnap) != 0 {
		t.Errorf("snapshots chan=%d video=%d, want 1/0", len(snaps.chanSnap), len(snaps.videoSnap))
	}
	ch, _ := chs.FindByID(context.Background(), "ch1")
	if ch.TotalViews != 1_000_000 {
		t.Errorf("counters not refreshed: %+v", ch)
	}
}
