package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeSource implements MetricsSource against the YouTube Data API v3
// using an API key. HTTP status codes map onto the source error taxonomy:
// 403 with a quota reason → ErrQuotaExceeded, 404/empty result → ErrNotFound,
// 5xx and network errors → ErrTransient.
type YouTubeSource struct {
	apiKey string
	client *http.Client
	base   string
}

func NewYouTubeSource(apiKey string) *YouTubeSource {
	return &YouTubeSource{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
		base:   youtubeAPIBase,
	}
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (s *YouTubeSource) LookupChannel(ctx context.Context, externalID string) (*ChannelInfo, error) {
	q := url.Values{
		"part": {"snippet,statistics"},
		"id":   {externalID},
		"key":  {s.apiKey},
	}

	var resp channelListResponse
	if err := s.get(ctx, "/channels", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		// The API returns an empty list for deleted and for never-existing
		// channels alike; both end the tracking relationship.
		return nil, ErrNotFound
	}

	item := resp.Items[0]
	return &ChannelInfo{
		ExternalID:       item.ID,
		Title:            item.Snippet.Title,
		ThumbnailURL:     item.Snippet.Thumbnails.Default.URL,
		TotalViews:       parseCount(item.Statistics.ViewCount),
		TotalSubscribers: parseCount(item.Statistics.SubscriberCount),
		VideoCount:       int(parseCount(item.Statistics.VideoCount)),
	}, nil
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *YouTubeSource) ListRecentVideos(ctx context.Context, externalID string, limit int) ([]VideoInfo, error) {
	if limit <= 0 || limit > 50 {
		limit = 50 // API page-size ceiling
	}
	q := url.Values{
		"part":       {"snippet"},
		"channelId":  {externalID},
		"order":      {"date"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
		"key":        {s.apiKey},
	}

	var resp searchListResponse
	if err := s.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}

	videos := make([]VideoInfo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, VideoInfo{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

type videoListResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (s *YouTubeSource) GetVideoStats(ctx context.Context, videoID string) (*VideoStats, error) {
	q := url.Values{
		"part": {"statistics"},
		"id":   {videoID},
		"key":  {s.apiKey},
	}

	var resp videoListResponse
	if err := s.get(ctx, "/videos", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, ErrNotFound
	}

	stats := resp.Items[0].Statistics
	return &VideoStats{
		ViewCount:    parseCount(stats.ViewCount),
		LikeCount:    parseCount(stats.LikeCount),
		CommentCount: parseCount(stats.CommentCount),
	}, nil
}

func (s *YouTubeSource) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Transient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Transient(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.Unmarshal(body, out)
	case resp.StatusCode == http.StatusForbidden && isQuotaBody(body):
		return ErrQuotaExceeded
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return ErrRevoked
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return Transient(fmt.Errorf("youtube api status %d", resp.StatusCode))
	default:
		return fmt.Errorf("youtube api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
}

// isQuotaBody distinguishes quota 403s from auth 403s by the error reason
// the API embeds in the body.
func isQuotaBody(body []byte) bool {
	s := string(body)
	return strings.Contains(s, "quotaExceeded") || strings.Contains(s, "rateLimitExceeded") ||
		strings.Contains(s, "dailyLimitExceeded")
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
