package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestSource(handler http.HandlerFunc) (*YouTubeSource, *httptest.Server) {
	srv := httptest.NewServer(handler)
	s := NewYouTubeSource("test-key")
	s.base = srv.URL
	return s, srv
}

func TestLookupChannel_ParsesStatistics(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"UCabc","snippet":{"title":"Test Channel"},
			"statistics":{"viewCount":"1000000","subscriberCount":"5000","videoCount":"42"}}]}`))
	})
	defer srv.Close()

	info, err := s.LookupChannel(context.Background(), "UCabc")
	if err != nil {
		t.Fatalf("LookupChannel error: %v", err)
	}
	if info.TotalViews != 1000000 || info.TotalSubscribers != 5000 || info.VideoCount != 42 {
		t.Errorf("unexpected stats: %+v", info)
	}
	if info.Title != "Test Channel" {
		t.Errorf("title = %q", info.Title)
	}
}

func TestLookupChannel_EmptyItemsIsNotFound(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})
	defer srv.Close()

	_, err := s.LookupChannel(context.Background(), "UCgone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQuota403MapsToQuotaExceeded(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"errors":[{"reason":"quotaExceeded"}]}}`))
	})
	defer srv.Close()

	_, err := s.LookupChannel(context.Background(), "UCabc")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestAuth403MapsToRevoked(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"errors":[{"reason":"forbidden"}]}}`))
	})
	defer srv.Close()

	_, err := s.LookupChannel(context.Background(), "UCabc")
	if !errors.Is(err, ErrRevoked) {
		t.Errorf("err = %v, want ErrRevoked", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := s.GetVideoStats(context.Background(), "vid1")
	if !errors.Is(err, ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
}

func TestListRecentVideos_SkipsNonVideoItems(t *testing.T) {
	s, srv := newTestSource(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"v1"},"snippet":{"title":"First","publishedAt":"2025-03-14T10:00:00Z"}},
			{"id":{},"snippet":{"title":"A playlist"}},
			{"id":{"videoId":"v2"},"snippet":{"title":"Second","publishedAt":"2025-03-13T10:00:00Z"}}]}`))
	})
	defer srv.Close()

	videos, err := s.ListRecentVideos(context.Background(), "UCabc", 10)
	if err != nil {
		t.Fatalf("ListRecentVideos error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	if videos[0].VideoID != "v1" || videos[1].VideoID != "v2" {
		t.Errorf("unexpected ids: %+v", videos)
	}
}
