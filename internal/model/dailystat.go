package model

import "time"

// ChannelDailyStat is the derived per-day aggregate for one channel. Exactly
// one row exists per (channel, date); recomputation overwrites all fields in
// place, so the rollup is idempotent.
//
// Date is a UTC calendar date (midnight-to-midnight boundaries). Views is a
// daily delta, not a cumulative counter. SubscribersGained may be negative.
type ChannelDailyStat struct {
	ChannelID           string    `json:"channelId"`
	Date                time.Time `json:"date"`
	Views               int64     `json:"views"`
	VideosPublished     int       `json:"videosPublished"`
	VideosPublishedLive int       `json:"videosPublishedLive"`
	SubscribersGained   int64     `json:"subscribersGained"`
	TotalVideoViews     int64     `json:"totalVideoViews"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// DailyStatRow is the API response shape for one day of the report series.
type DailyStatRow struct {
	Date                string `json:"date"`
	Views               int64  `json:"views"`
	VideosPublished     int    `json:"videosPublished"`
	VideosPublishedLive int    `json:"videosPublishedLive"`
	SubscribersGained   int64  `json:"subscribersGained"`
	TotalVideoViews     int64  `json:"totalVideoViews"`
}
