package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/ports"
)

type fakeSource struct {
	name  string
	body  string
	err   error
	calls int
	last  ports.LyricsQuery
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, q ports.LyricsQuery) (string, error) {
	f.calls++
	f.last = q
	return f.body, f.err
}

type fakeNormalizer struct {
	cleanErr   error
	mergeErr   error
	cleanCalls int
	mergeCalls int
}

func (f *fakeNormalizer) Name() string { return "fake-llm" }

func (f *fakeNormalizer) Clean(_ context.Context, text, _, _ string) (string, error) {
	f.cleanCalls++
	if f.cleanErr != nil {
		return "", f.cleanErr
	}
	return "cleaned: " + text, nil
}

func (f *fakeNormalizer) Merge(_ context.Context, primary, _, _, _ string) (string, error) {
	f.mergeCalls++
	if f.mergeErr != nil {
		return "", f.mergeErr
	}
	return "merged: " + primary, nil
}

type fakeDetector struct {
	data  domain.LanguageData
	err   error
	calls int
}

func (f *fakeDetector) Detect(_ context.Context, _, _, _ string) (domain.LanguageData, error) {
	f.calls++
	if f.err != nil {
		return domain.LanguageData{}, f.err
	}
	return f.data, nil
}

// lyricBody builds a body with exactly n words.
func lyricBody(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func testTrack() domain.Track {
	return domain.Track{
		ID:              "track-1",
		Title:           "Toxic",
		Artist:          "Britney Spears",
		Album:           "In the Zone",
		DurationSeconds: 198,
	}
}

func newTestReconciler(primary, secondary *fakeSource, norm *fakeNormalizer, det *fakeDetector) *Reconciler {
	return NewReconciler(ReconcilerDeps{
		Primary:    primary,
		Secondary:  secondary,
		Normalizer: norm,
		Detector:   det,
	}, 0.80, 30)
}

func TestProcessNoSource(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib"}
	secondary := &fakeSource{name: "genius"}
	norm := &fakeNormalizer{}
	r := newTestReconciler(primary, secondary, norm, &fakeDetector{})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Record != nil {
		t.Fatalf("failed track must not produce a record")
	}
	if result.Log.Message != "no lyrics found in any source" {
		t.Fatalf("unexpected message: %q", result.Log.Message)
	}
	if norm.cleanCalls+norm.mergeCalls != 0 {
		t.Fatalf("normalizer must not run without sources")
	}
}

func TestProcessSingleSourceCleaned(t *testing.T) {
	t.Parallel()

	body := lyricBody("word", 40)
	primary := &fakeSource{name: "lrclib", body: body}
	secondary := &fakeSource{name: "genius"}
	det := &fakeDetector{data: domain.LanguageData{Primary: "en", Confidence: 0.95}}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, det)

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFetched {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}

	record := result.Record
	if record.Source != domain.SourcePrimary {
		t.Fatalf("unexpected source: %s", record.Source)
	}
	if record.ReconciledText == nil || *record.ReconciledText != "cleaned: "+body {
		t.Fatalf("unexpected reconciled text")
	}
	if record.PrimarySourceText == nil || *record.PrimarySourceText != body {
		t.Fatalf("raw primary text must be retained")
	}
	if record.NormalizedBy != "fake-llm" {
		t.Fatalf("unexpected normalizedBy: %q", record.NormalizedBy)
	}
	if record.ConfidenceScore != nil {
		t.Fatalf("confidence must be absent with a single source")
	}
	if record.Language == nil || record.Language.Primary != "en" {
		t.Fatalf("expected detected language")
	}
}

func TestProcessSingleSourceSecondary(t *testing.T) {
	t.Parallel()

	body := lyricBody("line", 35)
	primary := &fakeSource{name: "lrclib"}
	secondary := &fakeSource{name: "genius", body: body}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, &fakeDetector{data: domain.LanguageData{Primary: "en"}})

	result := r.Process(context.Background(), testTrack())
	if result.Record.Source != domain.SourceSecondary {
		t.Fatalf("unexpected source: %s", result.Record.Source)
	}
	if result.Record.SecondarySourceText == nil {
		t.Fatalf("raw secondary text must be retained")
	}
}

func TestProcessSingleSourceCleanupFailure(t *testing.T) {
	t.Parallel()

	body := lyricBody("word", 40)
	primary := &fakeSource{name: "lrclib", body: body}
	secondary := &fakeSource{name: "genius"}
	det := &fakeDetector{}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{cleanErr: fmt.Errorf("quota exceeded")}, det)

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeNeedsReview {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}

	record := result.Record
	if record.Source != domain.SourceNeedsReview {
		t.Fatalf("unexpected source: %s", record.Source)
	}
	// Never surface unclean text as usable.
	if record.ReconciledText != nil {
		t.Fatalf("needs_review must leave reconciled text nil")
	}
	if record.PrimarySourceText == nil || *record.PrimarySourceText != body {
		t.Fatalf("raw text must be retained for review")
	}
	if det.calls != 0 {
		t.Fatalf("language detection must not run without reconciled text")
	}
}

func TestProcessDualSourceCorroborated(t *testing.T) {
	t.Parallel()

	body := lyricBody("word", 40)
	primary := &fakeSource{name: "lrclib", body: body}
	secondary := &fakeSource{name: "genius", body: body}
	norm := &fakeNormalizer{}
	det := &fakeDetector{data: domain.LanguageData{Primary: "en", Confidence: 0.97}}
	r := newTestReconciler(primary, secondary, norm, det)

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFetched {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}

	record := result.Record
	if record.Source != domain.SourceReconciled {
		t.Fatalf("unexpected source: %s", record.Source)
	}
	if record.ConfidenceScore == nil || *record.ConfidenceScore != 1 {
		t.Fatalf("identical bodies must score 1, got %v", record.ConfidenceScore)
	}
	if record.ReconciledText == nil || !strings.HasPrefix(*record.ReconciledText, "merged: ") {
		t.Fatalf("expected merged text")
	}
	if norm.mergeCalls != 1 || norm.cleanCalls != 0 {
		t.Fatalf("expected exactly one merge, got clean=%d merge=%d", norm.cleanCalls, norm.mergeCalls)
	}
	if record.Language == nil || record.Language.Primary != "en" {
		t.Fatalf("expected detected language")
	}
}

func TestProcessDualSourceMergeFailure(t *testing.T) {
	t.Parallel()

	body := lyricBody("word", 40)
	primary := &fakeSource{name: "lrclib", body: body}
	secondary := &fakeSource{name: "genius", body: body}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{mergeErr: fmt.Errorf("timeout")}, &fakeDetector{})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeNeedsReview {
		t.Fatalf("merge failure must downgrade, got %s", result.Outcome)
	}

	record := result.Record
	if record.ReconciledText != nil {
		t.Fatalf("no silent fallback to unreconciled text")
	}
	if record.ConfidenceScore == nil {
		t.Fatalf("confidence must be stored regardless of outcome")
	}
	if record.PrimarySourceText == nil || record.SecondarySourceText == nil {
		t.Fatalf("raw texts must be retained")
	}
}

func TestProcessDualSourceLowAgreement(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib", body: lyricBody("alpha", 40)}
	secondary := &fakeSource{name: "genius", body: lyricBody("omega", 40)}
	norm := &fakeNormalizer{}
	r := newTestReconciler(primary, secondary, norm, &fakeDetector{})
	r.score = func(a, b string) float64 { return 0.55 }

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeNeedsReview {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Record.ConfidenceScore == nil || *result.Record.ConfidenceScore != 0.55 {
		t.Fatalf("confidence must record the low score")
	}
	if result.Record.ReconciledText != nil {
		t.Fatalf("low agreement must leave reconciled text nil")
	}
	if norm.mergeCalls != 0 {
		t.Fatalf("low agreement must not trigger a merge")
	}
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score     float64
		wantMerge bool
	}{
		{0.80, true},
		{0.799999, false},
	}

	for _, tc := range cases {
		primary := &fakeSource{name: "lrclib", body: lyricBody("a", 40)}
		secondary := &fakeSource{name: "genius", body: lyricBody("b", 40)}
		norm := &fakeNormalizer{}
		r := newTestReconciler(primary, secondary, norm, &fakeDetector{data: domain.LanguageData{Primary: "en"}})
		r.score = func(a, b string) float64 { return tc.score }

		result := r.Process(context.Background(), testTrack())
		if tc.wantMerge {
			if norm.mergeCalls != 1 || result.Record.Source != domain.SourceReconciled {
				t.Fatalf("score %v must corroborate", tc.score)
			}
		} else {
			if norm.mergeCalls != 0 || result.Record.Source != domain.SourceNeedsReview {
				t.Fatalf("score %v must not corroborate", tc.score)
			}
		}
	}
}

func TestProcessFetchErrorFailsTrack(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib", err: fmt.Errorf("connection refused")}
	secondary := &fakeSource{name: "genius", body: lyricBody("word", 40)}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, &fakeDetector{})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Log.Outcome != domain.LogFailed {
		t.Fatalf("unexpected log outcome: %s", result.Log.Outcome)
	}
}

func TestProcessWordFloorTreatsTrackAsInstrumental(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib", body: "[Instrumental]"}
	secondary := &fakeSource{name: "genius"}
	norm := &fakeNormalizer{}
	r := newTestReconciler(primary, secondary, norm, &fakeDetector{})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if !strings.Contains(result.Log.Message, "instrumental") {
		t.Fatalf("unexpected message: %q", result.Log.Message)
	}
	if norm.cleanCalls+norm.mergeCalls != 0 {
		t.Fatalf("short bodies must not be normalized")
	}
}

func TestProcessShortBodyDiscardedKeepsLongOne(t *testing.T) {
	t.Parallel()

	body := lyricBody("word", 40)
	primary := &fakeSource{name: "lrclib", body: "[Instrumental]"}
	secondary := &fakeSource{name: "genius", body: body}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, &fakeDetector{data: domain.LanguageData{Primary: "en"}})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFetched {
		t.Fatalf("unexpected outcome: %s", result.Outcome)
	}
	if result.Record.Source != domain.SourceSecondary {
		t.Fatalf("expected the surviving secondary body, got %s", result.Record.Source)
	}
}

func TestProcessModifiedTitleDisablesDuration(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib", body: lyricBody("word", 40)}
	secondary := &fakeSource{name: "genius"}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, &fakeDetector{})

	track := testTrack()
	track.Title = "Toxic - Slowed + Reverb"
	r.Process(context.Background(), track)

	if primary.last.Title != "Toxic" {
		t.Fatalf("provider must see the normalized title, got %q", primary.last.Title)
	}
	if primary.last.MatchDuration {
		t.Fatalf("duration matching must be disabled for modified titles")
	}

	track.Title = "Toxic"
	r.Process(context.Background(), track)
	if !primary.last.MatchDuration {
		t.Fatalf("duration matching must stay enabled for clean titles")
	}
}

func TestProcessDetectorFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	primary := &fakeSource{name: "lrclib", body: lyricBody("word", 40)}
	secondary := &fakeSource{name: "genius"}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, &fakeDetector{err: fmt.Errorf("service down")})

	result := r.Process(context.Background(), testTrack())
	if result.Outcome != domain.OutcomeFetched {
		t.Fatalf("detector failure must not fail the record, got %s", result.Outcome)
	}
	if result.Record.Language != nil {
		t.Fatalf("language must stay nil on detector failure")
	}
}

func TestProcessEndToEndDualExample(t *testing.T) {
	t.Parallel()

	// Two independently fetched bodies of the same song: 40 and 38 words,
	// high but not perfect agreement.
	base := lyricBody("word", 38)
	primaryBody := base + " extra1 extra2"
	primary := &fakeSource{name: "lrclib", body: primaryBody}
	secondary := &fakeSource{name: "genius", body: base}
	det := &fakeDetector{data: domain.LanguageData{Primary: "en", Confidence: 0.99}}
	r := newTestReconciler(primary, secondary, &fakeNormalizer{}, det)

	track := testTrack()
	track.Title = "Toxic - Slowed + Reverb"
	result := r.Process(context.Background(), track)

	if result.Record.Source != domain.SourceReconciled {
		t.Fatalf("unexpected source: %s", result.Record.Source)
	}
	if result.Record.ConfidenceScore == nil || *result.Record.ConfidenceScore < 0.80 {
		t.Fatalf("expected corroborating confidence, got %v", result.Record.ConfidenceScore)
	}
	if result.Record.Language == nil || result.Record.Language.Primary != "en" {
		t.Fatalf("expected english language data")
	}
}
