package instrumental

import "strings"

// markers is the fixed vocabulary of instrumental hints. Matching is a plain
// case-insensitive substring test against title and artist. False positives
// are an accepted trade-off: skipping a fetch is cheap, a wasted provider call
// is not.
var markers = []string{
	"instrumental",
	"karaoke",
	"piano version",
	"acoustic version",
	"lofi",
	"lo-fi",
	"beats",
	"study music",
	"relaxing music",
	"background music",
	"ambient",
	"soundscape",
}

// Likely reports whether the track looks instrumental from metadata alone.
// It runs before any provider call so obvious instrumentals skip fetching.
func Likely(title, artist string) bool {
	return Marker(title, artist) != ""
}

// Marker returns the first matching vocabulary entry, or "" when none match.
// The matched marker goes into the processing log so operators can audit the
// false-positive rate per marker.
func Marker(title, artist string) string {
	loweredTitle := strings.ToLower(title)
	loweredArtist := strings.ToLower(artist)
	for _, m := range markers {
		if strings.Contains(loweredTitle, m) || strings.Contains(loweredArtist, m) {
			return m
		}
	}
	return ""
}

// WordCount counts whitespace-separated words in a lyric body.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// BelowFloor applies the post-fetch instrumental check: provider metadata is
// occasionally wrong, and a body shorter than the floor ("[Instrumental]" and
// friends) is not usable lyrics no matter what the pre-fetch heuristic said.
func BelowFloor(text string, floor int) bool {
	return WordCount(text) < floor
}
