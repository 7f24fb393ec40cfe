package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/instrumental"
	"LyricsReconciler/internal/ports"
)

// ControllerDeps wires the batch-level collaborators.
type ControllerDeps struct {
	Repository ports.LyricsRepository
	Reconciler *Reconciler
	TrackDelay time.Duration
	Logger     *slog.Logger
}

// Controller pulls one bounded batch of pending tracks, skips cached and
// pre-filtered ones, runs the reconciler sequentially with an inter-track
// delay, and commits all resulting writes in one transaction. Concurrent runs
// against the same store must be serialized by the caller.
type Controller struct {
	repo       ports.LyricsRepository
	reconciler *Reconciler
	trackDelay time.Duration
	logger     *slog.Logger

	sleep func(time.Duration)
}

// NewController constructs the batch controller.
func NewController(deps ControllerDeps) *Controller {
	return &Controller{
		repo:       deps.Repository,
		reconciler: deps.Reconciler,
		trackDelay: deps.TrackDelay,
		logger:     deps.Logger,
		sleep:      time.Sleep,
	}
}

// Run processes up to size pending tracks. force bypasses the cache check and
// re-processes every selected track from scratch, overwriting its record.
// The only fatal errors are repository ones; per-track failures are absorbed
// into the summary.
func (c *Controller) Run(ctx context.Context, size int, force bool) (domain.BatchSummary, error) {
	var summary domain.BatchSummary

	tracks, err := c.repo.PendingTracks(ctx, size)
	if err != nil {
		return summary, fmt.Errorf("load pending tracks: %w", err)
	}
	summary.Requested = len(tracks)
	if len(tracks) == 0 {
		c.info("no pending tracks")
		return summary, nil
	}

	cached := map[string]domain.LyricsRecord{}
	if !force {
		ids := make([]string, len(tracks))
		for i, track := range tracks {
			ids[i] = track.ID
		}
		cached, err = c.repo.ExistingRecords(ctx, ids)
		if err != nil {
			return summary, fmt.Errorf("load existing records: %w", err)
		}
	}

	var writes domain.BatchWrites
	fetched := 0
	for _, track := range tracks {
		// Cache check is about avoiding repeat fetch cost, not about
		// resolving review status: a needs_review record still counts as a
		// cache hit.
		if record, ok := cached[track.ID]; ok {
			c.recordResult(&writes, &summary, c.cachedResult(track.ID, record))
			continue
		}

		// Pre-fetch gate: flagged tracks never reach the fetchers.
		if marker := instrumental.Marker(track.Title, track.Artist); marker != "" {
			c.recordResult(&writes, &summary, domain.TrackResult{
				TrackID: track.ID,
				Outcome: domain.OutcomeFailed,
				Status:  domain.StatusFailed,
				Log: domain.ProcessingLogEntry{
					TrackID: track.ID,
					Stage:   "instrumental_check",
					Outcome: domain.LogFailed,
					Message: fmt.Sprintf("likely instrumental: metadata contains %q", marker),
				},
			})
			continue
		}

		if fetched > 0 {
			// Fixed inter-track delay for third-party rate limits.
			c.sleep(c.trackDelay)
		}
		fetched++

		c.recordResult(&writes, &summary, c.reconciler.Process(ctx, track))
	}

	if !writes.Empty() {
		if err := c.repo.Commit(ctx, writes); err != nil {
			return summary, fmt.Errorf("commit batch: %w", err)
		}
	}

	c.info("batch finished",
		"requested", summary.Requested,
		"cached", summary.Cached,
		"completed", summary.Completed,
		"needs_review", summary.NeedsReview,
		"failed", summary.Failed,
	)
	return summary, nil
}

// cachedResult re-asserts the upstream flag from the stored record so a
// drifted status heals without re-invoking the fetchers.
func (c *Controller) cachedResult(trackID string, record domain.LyricsRecord) domain.TrackResult {
	status := domain.StatusCompleted
	if record.ReconciledText == nil {
		status = domain.StatusNeedsReview
	}

	return domain.TrackResult{
		TrackID: trackID,
		Outcome: domain.OutcomeCached,
		Status:  status,
		Log: domain.ProcessingLogEntry{
			TrackID: trackID,
			Stage:   "cache_check",
			Outcome: domain.LogSuccess,
			Message: "lyrics record already present, skipping fetch",
			Metadata: domain.LogMetadata{
				Source:      record.Source,
				NeedsReview: record.Source == domain.SourceNeedsReview,
			},
		},
	}
}

func (c *Controller) recordResult(writes *domain.BatchWrites, summary *domain.BatchSummary, result domain.TrackResult) {
	if result.Record != nil {
		writes.Records = append(writes.Records, *result.Record)
	}
	writes.Logs = append(writes.Logs, result.Log)
	writes.Statuses = append(writes.Statuses, domain.StatusUpdate{
		TrackID: result.TrackID,
		Status:  result.Status,
	})

	switch result.Outcome {
	case domain.OutcomeCached:
		summary.Cached++
	case domain.OutcomeFetched:
		summary.Completed++
	case domain.OutcomeNeedsReview:
		summary.NeedsReview++
	default:
		summary.Failed++
	}

	c.debug("track finished", "track", result.TrackID, "outcome", string(result.Outcome), "message", result.Log.Message)
}

func (c *Controller) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
