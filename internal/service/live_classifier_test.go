package service

import "testing"

func TestClassifyLive(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"🔴 24/7 lofi radio", true},
		{"LIVE: launch coverage", true},
		{"Friday night livestream", true},
		{"Live Stream Q&A", true},
		{"My trip to Liverpool", false},
		{"Package delivered early", false},
		{"Alive and well", false},
		{"olive oil taste test", false},
		{"", false},
		{"going live at 8pm", true},
	}

	for _, tc := range cases {
		if got := ClassifyLive(tc.title); got != tc.want {
			t.Errorf("ClassifyLive(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}
