package ports

import (
	"context"

	"LyricsReconciler/internal/domain"
)

// LyricsQuery carries everything a provider may key its lookup on. Providers
// that cannot use a field ignore it. MatchDuration is false when the title
// carried a cosmetic modifier, since the modified audio's runtime no longer
// matches the canonical duration.
type LyricsQuery struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
	MatchDuration   bool
}

// LyricsSource fetches one lyric body for a track. "Not found" is a normal
// outcome reported as an empty body with a nil error; errors are reserved for
// transport and API failures.
type LyricsSource interface {
	Name() string
	Search(ctx context.Context, q LyricsQuery) (string, error)
}

// Normalizer is the external text-cleanup capability. Any returned text is
// success; any error is failure — there is no partial-quality signal.
type Normalizer interface {
	Name() string
	Clean(ctx context.Context, text, title, artist string) (string, error)
	Merge(ctx context.Context, primary, secondary, title, artist string) (string, error)
}

// LanguageDetector returns the primary language and mixed-language breakdown
// for a reconciled body.
type LanguageDetector interface {
	Detect(ctx context.Context, text, title, artist string) (domain.LanguageData, error)
}

// LyricsRepository is the persistence adapter. Commit is all-or-nothing for
// everything a batch accumulated; callers must serialize concurrent batches
// against the same store.
type LyricsRepository interface {
	PendingTracks(ctx context.Context, limit int) ([]domain.Track, error)
	ExistingRecords(ctx context.Context, trackIDs []string) (map[string]domain.LyricsRecord, error)
	Commit(ctx context.Context, writes domain.BatchWrites) error
}
