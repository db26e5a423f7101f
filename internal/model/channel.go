package model

import "time"

// ChannelStatus is the sync lifecycle state of a tracked channel.
type ChannelStatus string

const (
	ChannelActive      ChannelStatus = "active"
	ChannelSyncing     ChannelStatus = "syncing"
	ChannelNeedsReauth ChannelStatus = "needs_reauth"
	ChannelRevoked     ChannelStatus = "revoked"
)

// Channel represents a tracked YouTube channel with its latest cumulative
// counters. Counters are overwritten with the last observed totals on each
// ingestion run; they are never accumulated locally.
type Channel struct {
	ChannelID        string        `json:"channelId"`
	ExternalID       string        `json:"externalId"`
	Title            string        `json:"title"`
	ThumbnailURL     string        `json:"thumbnailUrl,omitempty"`
	TotalViews       int64         `json:"totalViews"`
	TotalSubscribers int64         `json:"totalSubscribers"`
	VideoCount       int           `json:"videoCount"`
	Status           ChannelStatus `json:"status"`
	LastSyncAt       *time.Time    `json:"lastSyncAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Syncable reports whether the channel should be picked up by sync tasks.
// A channel left in "syncing" by a crashed run is retried on the next pass.
func (c *Channel) Syncable() bool {
	return c.Status == ChannelActive || c.Status == ChannelSyncing
}

// ChannelResponse is the API response for channel lookups.
type ChannelResponse struct {
	ChannelID        string     `json:"channelId"`
	ExternalID       string     `json:"externalId"`
	Title            string     `json:"title"`
	TotalViews       int64      `json:"totalViews"`
	TotalSubscribers int64      `json:"totalSubscribers"`
	VideoCount       int        `json:"videoCount"`
	Status           string     `json:"status"`
	LastSyncAt       *time.Time `json:"lastSyncAt,omitempty"`
}

// OverviewStats is the API response for the global overview endpoint.
type OverviewStats struct {
	TotalChannels  int        `json:"totalChannels"`
	ActiveChannels int        `json:"activeChannels"`
	TotalVideos    int        `json:"totalVideos"`
	TotalSnapshots int64      `json:"totalSnapshots"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
	TaskRuns24h    int        `json:"taskRuns24h"`
	FailedRuns24h  int        `json:"failedRuns24h"`
}
