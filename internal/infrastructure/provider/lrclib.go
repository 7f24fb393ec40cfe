package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"LyricsReconciler/internal/ports"
)

var reSyncedTag = regexp.MustCompile(`(?m)^\[\d{2}:\d{2}\.\d{2,3}\]\s*`)

// LRCLibSource is the primary, time-synced provider. Lookups key on
// track/artist/album and, when the title was not modified, duration.
type LRCLibSource struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ ports.LyricsSource = (*LRCLibSource)(nil)

// NewLRCLibSource wires an HTTP client; pass nil for a default 10s-timeout one.
func NewLRCLibSource(baseURL, userAgent string, client *http.Client) *LRCLibSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LRCLibSource{baseURL: strings.TrimSuffix(baseURL, "/"), userAgent: userAgent, client: client}
}

// Name identifies the source in records and logs.
func (s *LRCLibSource) Name() string {
	return "lrclib"
}

type lrclibResponse struct {
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
	Instrumental bool   `json:"instrumental"`
}

// Search queries the /get endpoint. A 404 or an instrumental flag is a normal
// "nothing found" outcome, not an error.
func (s *LRCLibSource) Search(ctx context.Context, q ports.LyricsQuery) (string, error) {
	params := url.Values{}
	params.Set("track_name", q.Title)
	params.Set("artist_name", q.Artist)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.MatchDuration && q.DurationSeconds > 0 {
		params.Set("duration", strconv.Itoa(q.DurationSeconds))
	}

	reqURL := fmt.Sprintf("%s/get?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build lrclib request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lrclib request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lrclib returned %s", resp.Status)
	}

	var body lrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode lrclib response: %w", err)
	}

	if body.Instrumental {
		return "", nil
	}
	if body.SyncedLyrics != "" {
		return StripTimestamps(body.SyncedLyrics), nil
	}
	return strings.TrimSpace(body.PlainLyrics), nil
}

// StripTimestamps removes LRC time tags so downstream comparison and
// normalization work on plain text.
func StripTimestamps(lyrics string) string {
	return strings.TrimSpace(reSyncedTag.ReplaceAllString(lyrics, ""))
}
