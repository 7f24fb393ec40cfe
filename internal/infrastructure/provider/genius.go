package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LyricsReconciler/internal/ports"
)

// GeniusSource is the secondary, plain-text provider: an API search keyed by
// artist/title, then a scrape of the song page for the lyric body.
type GeniusSource struct {
	apiURL string
	token  string
	client *http.Client
}

var _ ports.LyricsSource = (*GeniusSource)(nil)

// NewGeniusSource wires the API base URL and bearer token; pass nil for a
// default client.
func NewGeniusSource(apiURL, token string, client *http.Client) *GeniusSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GeniusSource{apiURL: strings.TrimSuffix(apiURL, "/"), token: token, client: client}
}

// Name identifies the source in records and logs.
func (s *GeniusSource) Name() string {
	return "genius"
}

type geniusSearchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				URL           string `json:"url"`
				Title         string `json:"title"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Search looks the track up on the API and scrapes the first hit's page.
// No hit, or a page without a lyrics container, is a normal empty result.
func (s *GeniusSource) Search(ctx context.Context, q ports.LyricsQuery) (string, error) {
	songURL, err := s.searchSong(ctx, q.Artist, q.Title)
	if err != nil {
		return "", err
	}
	if songURL == "" {
		return "", nil
	}
	return s.scrapeLyrics(ctx, songURL)
}

func (s *GeniusSource) searchSong(ctx context.Context, artist, title string) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s %s", artist, title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build genius search: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("genius search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius search returned %s", resp.Status)
	}

	var search geniusSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return "", fmt.Errorf("decode genius search: %w", err)
	}

	if len(search.Response.Hits) == 0 {
		return "", nil
	}
	return search.Response.Hits[0].Result.URL, nil
}

func (s *GeniusSource) scrapeLyrics(ctx context.Context, songURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, songURL, nil)
	if err != nil {
		return "", fmt.Errorf("build genius page request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch genius page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse genius page: %w", err)
	}

	var parts []string
	doc.Find("div[data-lyrics-container='true']").Each(func(_ int, sel *goquery.Selection) {
		// <br> separates lines inside the container.
		html, err := sel.Html()
		if err != nil {
			return
		}
		html = strings.ReplaceAll(html, "<br/>", "\n")
		html = strings.ReplaceAll(html, "<br>", "\n")
		fragment, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return
		}
		parts = append(parts, fragment.Text())
	})

	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
