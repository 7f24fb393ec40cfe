package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/ports"
)

// Detector talks to an external language-detection service.
type Detector struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.LanguageDetector = (*Detector)(nil)

// NewDetector creates a reusable HTTP client.
func NewDetector(endpoint, apiKey string) *Detector {
	return &Detector{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type detectResponse struct {
	Primary    string  `json:"primary"`
	Confidence float64 `json:"confidence"`
	Breakdown  []struct {
		Language   string  `json:"language"`
		Percentage float64 `json:"percentage"`
	} `json:"breakdown"`
}

// Detect posts the reconciled body for language identification. Title and
// artist are optional context hints for the service.
func (d *Detector) Detect(ctx context.Context, text, title, artist string) (domain.LanguageData, error) {
	payload := map[string]any{
		"text":   text,
		"title":  title,
		"artist": artist,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.LanguageData{}, fmt.Errorf("marshal detect payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.LanguageData{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return domain.LanguageData{}, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.LanguageData{}, fmt.Errorf("detect returned %s", resp.Status)
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.LanguageData{}, fmt.Errorf("decode detect response: %w", err)
	}

	if decoded.Primary == "" {
		return domain.LanguageData{}, fmt.Errorf("detect returned no primary language")
	}

	data := domain.LanguageData{
		Primary:    decoded.Primary,
		Confidence: decoded.Confidence,
	}
	for _, share := range decoded.Breakdown {
		data.Breakdown = append(data.Breakdown, domain.LanguageShare{
			Language:   share.Language,
			Percentage: share.Percentage,
		})
	}

	return data, nil
}
