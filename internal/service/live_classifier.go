package service

import "strings"

// liveTokens are the title markers treated as live-stream indicators. The
// title heuristic is a known approximation: channels title VODs freely, so
// false positives and negatives both happen. Keeping the rule behind this
// one function lets it be replaced without touching ingestion.
var liveTokens = []string{
	"live",
	"livestream",
	"live stream",
	"🔴",
	"生放送",
	"ライブ",
}

// ClassifyLive reports whether a video title marks the video as a live
// stream. Matching is case-insensitive; the bare "live" token must appear as
// a standalone word so titles like "delivered" do not match.
func ClassifyLive(title string) bool {
	lower := strings.ToLower(title)
	for _, token := range liveTokens {
		if token == "live" {
			if containsWord(lower, token) {
				return true
			}
			continue
		}
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
