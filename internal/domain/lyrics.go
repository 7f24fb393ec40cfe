package domain

import "time"

// Track is the upstream catalog entity. The pipeline reads it and only ever
// flips its lyrics status; everything else belongs to the catalog.
type Track struct {
	ID              string
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
}

// Source labels where the authoritative text of a LyricsRecord came from.
type Source string

const (
	SourcePrimary     Source = "primary"
	SourceSecondary   Source = "secondary"
	SourceReconciled  Source = "reconciled"
	SourceNeedsReview Source = "needs_review"
)

// TrackStatus mirrors the upstream enrichment flag consumed by the
// surrounding application.
type TrackStatus string

const (
	StatusReady       TrackStatus = "ready"
	StatusCompleted   TrackStatus = "completed"
	StatusNeedsReview TrackStatus = "needs_review"
	StatusFailed      TrackStatus = "failed"
)

// LanguageShare is one entry of a mixed-language breakdown.
type LanguageShare struct {
	Language   string  `json:"language"`
	Percentage float64 `json:"percentage"`
}

// LanguageData is the detector output attached to a record.
type LanguageData struct {
	Primary    string          `json:"primary"`
	Breakdown  []LanguageShare `json:"breakdown"`
	Confidence float64         `json:"confidence"`
}

// LyricsRecord is the single reconciled record per track. Raw source texts are
// retained for auditability even when unused. ReconciledText is nil exactly
// when no clean or merge succeeded; SourceNeedsReview always implies nil.
type LyricsRecord struct {
	TrackID             string
	PrimarySourceText   *string
	SecondarySourceText *string
	ReconciledText      *string
	Source              Source
	NormalizedBy        string
	ConfidenceScore     *float64
	Language            *LanguageData
	UpdatedAt           time.Time
}

// LogOutcome enumerates processing-log outcomes.
type LogOutcome string

const (
	LogSuccess LogOutcome = "success"
	LogSkipped LogOutcome = "skipped"
	LogFailed  LogOutcome = "failed"
)

// LogMetadata is the structured snapshot attached to a log entry.
type LogMetadata struct {
	Source       Source  `json:"source,omitempty"`
	Corroborated bool    `json:"corroborated"`
	Confidence   float64 `json:"confidence,omitempty"`
	NeedsReview  bool    `json:"needs_review"`
	Language     string  `json:"language,omitempty"`
}

// ProcessingLogEntry is append-only; entries are never updated in place.
type ProcessingLogEntry struct {
	TrackID  string
	Stage    string
	Outcome  LogOutcome
	Message  string
	Metadata LogMetadata
}

// Outcome is the operator-visible terminal state of one track in a batch run.
type Outcome string

const (
	OutcomeCached      Outcome = "completed (cached)"
	OutcomeFetched     Outcome = "completed (fetched)"
	OutcomeNeedsReview Outcome = "needs_review"
	OutcomeFailed      Outcome = "failed"
)

// TrackResult is what the orchestrator hands back for one track. Record is nil
// for failed and cached tracks; Log is always populated.
type TrackResult struct {
	TrackID string
	Outcome Outcome
	Record  *LyricsRecord
	Log     ProcessingLogEntry
	Status  TrackStatus
}

// StatusUpdate flips the upstream track flag as part of the batch commit.
type StatusUpdate struct {
	TrackID string
	Status  TrackStatus
}

// BatchWrites accumulates everything one batch run persists in a single
// transaction.
type BatchWrites struct {
	Records  []LyricsRecord
	Logs     []ProcessingLogEntry
	Statuses []StatusUpdate
}

// Empty reports whether the batch produced nothing to persist.
func (w BatchWrites) Empty() bool {
	return len(w.Records) == 0 && len(w.Logs) == 0 && len(w.Statuses) == 0
}

// BatchSummary is the per-run report surfaced to the operator.
type BatchSummary struct {
	Requested   int
	Cached      int
	Completed   int
	NeedsReview int
	Failed      int
}
