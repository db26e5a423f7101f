// Package source defines the external metrics provider capability. Callers
// classify failures with errors.Is against the sentinels below; everything
// unclassified is treated as fatal by the task runner.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the external ID no longer resolves. The ingestor
	// marks the channel needs_reauth; it is not surfaced to the task caller.
	ErrNotFound = errors.New("source: not found")

	// ErrRevoked means the provider reports the channel deleted or banned.
	ErrRevoked = errors.New("source: channel revoked")

	// ErrQuotaExceeded aborts the remaining work in a run and surfaces as a
	// retryable task failure.
	ErrQuotaExceeded = errors.New("source: quota exceeded")

	// ErrTransient marks a per-unit retryable failure; the unit is skipped
	// and the batch continues.
	ErrTransient = errors.New("source: transient error")
)

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// ChannelInfo is a point-in-time view of channel-level statistics.
type ChannelInfo struct {
	ExternalID       string
	Title            string
	ThumbnailURL     string
	TotalViews       int64
	TotalSubscribers int64
	VideoCount       int
}

// VideoInfo is the metadata of one recently published video.
type VideoInfo struct {
	VideoID     string
	Title       string
	PublishedAt time.Time
}

// VideoStats are the current counters of a single video.
type VideoStats struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// MetricsSource fetches channel and video data from the external provider.
// Every call may fail with ErrQuotaExceeded or a transient error; the
// provider is rate limited, so callers keep request volume bounded.
type MetricsSource interface {
	LookupChannel(ctx context.Context, externalID string) (*ChannelInfo, error)
	ListRecentVideos(ctx context.Context, externalID string, limit int) ([]VideoInfo, error)
	GetVideoStats(ctx context.Context, videoID string) (*VideoStats, error)
}
