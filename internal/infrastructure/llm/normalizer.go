package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"LyricsReconciler/internal/config"
	"LyricsReconciler/internal/ports"
)

const (
	cleanPrompt = "You clean up song lyrics. Fix OCR/transcription artifacts, remove section markers " +
		"and advertising, keep the original line structure and language. Return only the cleaned lyrics."
	mergePrompt = "You merge two versions of the same song's lyrics into one authoritative version. " +
		"Prefer lines the versions agree on, fix obvious typos, keep the original line structure and " +
		"language. Return only the merged lyrics."
)

// Normalizer implements ports.Normalizer backed by OpenAI-compatible APIs.
type Normalizer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Normalizer = (*Normalizer)(nil)

// NewNormalizer builds a client from configuration.
func NewNormalizer(cfg config.NormalizerConfig) *Normalizer {
	return &Normalizer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name feeds the record's normalizedBy field.
func (n *Normalizer) Name() string {
	return "openai/" + n.model
}

// Clean asks the model to tidy a single lyric body.
func (n *Normalizer) Clean(ctx context.Context, text, title, artist string) (string, error) {
	user := fmt.Sprintf("Song: %s by %s\n\nLyrics:\n%s", title, artist, text)
	return n.complete(ctx, cleanPrompt, user)
}

// Merge asks the model to reconcile two corroborating bodies into one.
func (n *Normalizer) Merge(ctx context.Context, primary, secondary, title, artist string) (string, error) {
	user := fmt.Sprintf("Song: %s by %s\n\nVersion A:\n%s\n\nVersion B:\n%s", title, artist, primary, secondary)
	return n.complete(ctx, mergePrompt, user)
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (n *Normalizer) complete(ctx context.Context, system, user string) (string, error) {
	if n.apiKey == "" || n.endpoint == "" || n.model == "" {
		return "", fmt.Errorf("normalizer misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": n.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion returned empty content")
	}

	return content, nil
}
