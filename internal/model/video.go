package model

import "time"

// Video is a video observed on a tracked channel. Created the first time the
// ingestor sees it; immutable afterwards except for soft status fields.
type Video struct {
	VideoID     string    `json:"videoId"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"publishedAt"`
	Live        bool      `json:"live"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VideoSnapshot is a single timestamped observation of a video's counters.
// Rows are append-only; ordering by CollectedAt defines the time series the
// daily rollup reads.
type VideoSnapshot struct {
	ID           int64     `json:"id"`
	VideoID      string    `json:"videoId"`
	ChannelID    string    `json:"channelId"`
	CollectedAt  time.Time `json:"collectedAt"`
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
}

// ChannelStatSnapshot is a single timestamped observation of a channel's
// cumulative counters, appended once per ingestion run. The rollup reads the
// latest snapshot before a day boundary to get "counter at day's end".
type ChannelStatSnapshot struct {
	ID               int64     `json:"id"`
	ChannelID        string    `json:"channelId"`
	CollectedAt      time.Time `json:"collectedAt"`
	TotalViews       int64     `json:"totalViews"`
	TotalSubscribers int64     `json:"totalSubscribers"`
	VideoCount       int       `json:"videoCount"`
}
