package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/instrumental"
	"LyricsReconciler/internal/ports"
	"LyricsReconciler/internal/similarity"
	"LyricsReconciler/internal/titlenorm"
)

// sourceKind tags the fetch outcome so the decision logic is a flat switch
// instead of nested conditionals per source count.
type sourceKind int

const (
	noSource sourceKind = iota
	singleSource
	dualSource
)

// ReconcilerDeps wires the per-track adapters.
type ReconcilerDeps struct {
	Primary    ports.LyricsSource
	Secondary  ports.LyricsSource
	Normalizer ports.Normalizer
	Detector   ports.LanguageDetector
	Logger     *slog.Logger
}

// Reconciler runs the per-track state machine:
// fetch -> {no_source | single_source | dual_source} -> {normalized | needs_review | failed}.
// It never returns an error; every path ends in a TrackResult so one bad track
// cannot abort a batch.
type Reconciler struct {
	primary    ports.LyricsSource
	secondary  ports.LyricsSource
	normalizer ports.Normalizer
	detector   ports.LanguageDetector
	logger     *slog.Logger

	score     func(a, b string) float64
	threshold float64
	wordFloor int
}

// NewReconciler constructs the orchestrator with the configured trust-model
// tunables.
func NewReconciler(deps ReconcilerDeps, threshold float64, wordFloor int) *Reconciler {
	return &Reconciler{
		primary:    deps.Primary,
		secondary:  deps.Secondary,
		normalizer: deps.Normalizer,
		detector:   deps.Detector,
		logger:     deps.Logger,
		score:      similarity.Score,
		threshold:  threshold,
		wordFloor:  wordFloor,
	}
}

// Process runs one track through fetch, classification, scoring, and
// normalization and returns its terminal result.
func (r *Reconciler) Process(ctx context.Context, track domain.Track) domain.TrackResult {
	title, modified := titlenorm.Normalize(track.Title)
	if modified {
		r.debug("title normalized", "track", track.ID, "raw", track.Title, "normalized", title)
	}

	primaryText, err := r.primary.Search(ctx, ports.LyricsQuery{
		Title:           title,
		Artist:          track.Artist,
		Album:           track.Album,
		DurationSeconds: track.DurationSeconds,
		// A modified title means the audio runtime no longer matches the
		// canonical track duration.
		MatchDuration: !modified,
	})
	if err != nil {
		return r.failed(track.ID, "fetch", fmt.Sprintf("%s fetch failed: %v", r.primary.Name(), err))
	}

	secondaryText, err := r.secondary.Search(ctx, ports.LyricsQuery{
		Title:  title,
		Artist: track.Artist,
	})
	if err != nil {
		return r.failed(track.ID, "fetch", fmt.Sprintf("%s fetch failed: %v", r.secondary.Name(), err))
	}

	foundAny := primaryText != "" || secondaryText != ""

	// Post-fetch instrumental gate: provider metadata is occasionally wrong,
	// and a body below the word floor is not usable lyrics.
	if primaryText != "" && instrumental.BelowFloor(primaryText, r.wordFloor) {
		r.debug("primary body below word floor", "track", track.ID, "words", instrumental.WordCount(primaryText))
		primaryText = ""
	}
	if secondaryText != "" && instrumental.BelowFloor(secondaryText, r.wordFloor) {
		r.debug("secondary body below word floor", "track", track.ID, "words", instrumental.WordCount(secondaryText))
		secondaryText = ""
	}
	if foundAny && primaryText == "" && secondaryText == "" {
		return r.failed(track.ID, "instrumental_check",
			fmt.Sprintf("treated as instrumental: every fetched body below %d-word floor", r.wordFloor))
	}

	switch classify(primaryText, secondaryText) {
	case noSource:
		return r.failed(track.ID, "fetch", "no lyrics found in any source")
	case dualSource:
		return r.reconcileDual(ctx, track, title, primaryText, secondaryText)
	default:
		if primaryText != "" {
			return r.reconcileSingle(ctx, track, title, primaryText, domain.SourcePrimary)
		}
		return r.reconcileSingle(ctx, track, title, secondaryText, domain.SourceSecondary)
	}
}

func classify(primary, secondary string) sourceKind {
	switch {
	case primary == "" && secondary == "":
		return noSource
	case primary != "" && secondary != "":
		return dualSource
	default:
		return singleSource
	}
}

// reconcileSingle always attempts cleanup: a lone source is never surfaced
// raw. Cleanup failure downgrades to needs_review rather than passing unclean
// text downstream.
func (r *Reconciler) reconcileSingle(ctx context.Context, track domain.Track, title, text string, src domain.Source) domain.TrackResult {
	record := r.newRecord(track.ID)
	switch src {
	case domain.SourcePrimary:
		record.PrimarySourceText = &text
	default:
		record.SecondarySourceText = &text
	}

	cleaned, err := r.normalizer.Clean(ctx, text, title, track.Artist)
	if err != nil {
		r.warn("cleanup failed", "track", track.ID, "source", string(src), "error", err)
		return r.needsReview(record, "normalize",
			fmt.Sprintf("single source (%s) cleanup failed: %v", src, err))
	}

	record.Source = src
	record.ReconciledText = &cleaned
	record.NormalizedBy = r.normalizer.Name()
	r.detectLanguage(ctx, record, title, track.Artist)

	return r.completed(record, "normalize",
		fmt.Sprintf("single source (%s) cleaned", src))
}

// reconcileDual scores agreement first and stores the confidence regardless
// of outcome. Only corroborated pairs are merged; low agreement is a review
// signal an automated merge must not paper over.
func (r *Reconciler) reconcileDual(ctx context.Context, track domain.Track, title, primaryText, secondaryText string) domain.TrackResult {
	record := r.newRecord(track.ID)
	record.PrimarySourceText = &primaryText
	record.SecondarySourceText = &secondaryText

	score := r.score(primaryText, secondaryText)
	record.ConfidenceScore = &score

	if score < r.threshold {
		return r.needsReview(record, "score",
			fmt.Sprintf("low agreement between sources: %.2f < %.2f", score, r.threshold))
	}

	merged, err := r.normalizer.Merge(ctx, primaryText, secondaryText, title, track.Artist)
	if err != nil {
		r.warn("merge failed", "track", track.ID, "error", err)
		return r.needsReview(record, "normalize",
			fmt.Sprintf("corroborated at %.2f but merge failed: %v", score, err))
	}

	record.Source = domain.SourceReconciled
	record.ReconciledText = &merged
	record.NormalizedBy = r.normalizer.Name()
	r.detectLanguage(ctx, record, title, track.Artist)

	return r.completed(record, "normalize",
		fmt.Sprintf("sources corroborated at %.2f and merged", score))
}

// detectLanguage runs only on reconciled text. Detector failures are logged
// and swallowed: a missing language tag must not fail an otherwise-successful
// record.
func (r *Reconciler) detectLanguage(ctx context.Context, record *domain.LyricsRecord, title, artist string) {
	if r.detector == nil || record.ReconciledText == nil {
		return
	}

	data, err := r.detector.Detect(ctx, *record.ReconciledText, title, artist)
	if err != nil {
		r.warn("language detection failed", "track", record.TrackID, "error", err)
		return
	}
	record.Language = &data
}

func (r *Reconciler) newRecord(trackID string) *domain.LyricsRecord {
	return &domain.LyricsRecord{
		TrackID:   trackID,
		UpdatedAt: time.Now().UTC(),
	}
}

func (r *Reconciler) completed(record *domain.LyricsRecord, stage, message string) domain.TrackResult {
	meta := domain.LogMetadata{Source: record.Source}
	if record.ConfidenceScore != nil {
		meta.Confidence = *record.ConfidenceScore
		meta.Corroborated = true
	}
	if record.Language != nil {
		meta.Language = record.Language.Primary
	}

	return domain.TrackResult{
		TrackID: record.TrackID,
		Outcome: domain.OutcomeFetched,
		Record:  record,
		Status:  domain.StatusCompleted,
		Log: domain.ProcessingLogEntry{
			TrackID:  record.TrackID,
			Stage:    stage,
			Outcome:  domain.LogSuccess,
			Message:  message,
			Metadata: meta,
		},
	}
}

func (r *Reconciler) needsReview(record *domain.LyricsRecord, stage, message string) domain.TrackResult {
	record.Source = domain.SourceNeedsReview
	record.ReconciledText = nil

	meta := domain.LogMetadata{Source: record.Source, NeedsReview: true}
	if record.ConfidenceScore != nil {
		meta.Confidence = *record.ConfidenceScore
	}

	return domain.TrackResult{
		TrackID: record.TrackID,
		Outcome: domain.OutcomeNeedsReview,
		Record:  record,
		Status:  domain.StatusNeedsReview,
		Log: domain.ProcessingLogEntry{
			TrackID:  record.TrackID,
			Stage:    stage,
			Outcome:  domain.LogSkipped,
			Message:  message,
			Metadata: meta,
		},
	}
}

func (r *Reconciler) failed(trackID, stage, message string) domain.TrackResult {
	return domain.TrackResult{
		TrackID: trackID,
		Outcome: domain.OutcomeFailed,
		Status:  domain.StatusFailed,
		Log: domain.ProcessingLogEntry{
			TrackID: trackID,
			Stage:   stage,
			Outcome: domain.LogFailed,
			Message: message,
		},
	}
}

func (r *Reconciler) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Reconciler) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
