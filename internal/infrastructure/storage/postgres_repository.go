package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/ports"
)

// PostgresRepository persists lyrics records, processing-log entries, and
// upstream status flags. Expected schema:
//
//	tracks(id, title, artist, album, duration_seconds, lyrics_status)
//	lyrics_records(track_id pk, primary_source_text, secondary_source_text,
//	    reconciled_text, source, normalized_by, confidence_score,
//	    language_primary, language_breakdown, language_confidence,
//	    created_at, updated_at)
//	processing_log(id, track_id, stage, outcome, message, metadata, created_at)
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.LyricsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// PendingTracks returns up to limit tracks flagged ready for lyrics work,
// ordered by id so reruns are deterministic.
func (r *PostgresRepository) PendingTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	if r.db == nil || limit <= 0 {
		return nil, nil
	}

	query, args, err := r.builder.
		Select("id", "title", "artist", "album", "duration_seconds").
		From("tracks").
		Where(sq.Eq{"lyrics_status": domain.StatusReady}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var track domain.Track
		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tracks, nil
}

// ExistingRecords returns the stored records for any of the given track ids.
// The batch controller uses this as its cache check.
func (r *PostgresRepository) ExistingRecords(ctx context.Context, trackIDs []string) (map[string]domain.LyricsRecord, error) {
	result := make(map[string]domain.LyricsRecord)
	if r.db == nil || len(trackIDs) == 0 {
		return result, nil
	}

	query := `SELECT track_id, primary_source_text, secondary_source_text, reconciled_text,
	                 source, normalized_by, confidence_score,
	                 language_primary, language_breakdown, language_confidence
	          FROM lyrics_records WHERE track_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.StringArray(trackIDs))
	if err != nil {
		return nil, fmt.Errorf("query existing records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result[record.TrackID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Commit writes everything one batch accumulated in a single transaction:
// upserts by track id, append-only log inserts, and upstream status flips.
// No partial commit survives a failure.
func (r *PostgresRepository) Commit(ctx context.Context, writes domain.BatchWrites) error {
	if r.db == nil || writes.Empty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range writes.Records {
		if err := r.upsertRecord(ctx, tx, record); err != nil {
			return err
		}
	}
	for _, entry := range writes.Logs {
		if err := r.appendLog(ctx, tx, entry); err != nil {
			return err
		}
	}
	for _, update := range writes.Statuses {
		if err := r.updateStatus(ctx, tx, update); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) upsertRecord(ctx context.Context, tx *sql.Tx, record domain.LyricsRecord) error {
	var (
		languagePrimary    *string
		languageBreakdown  []byte
		languageConfidence *float64
	)
	if record.Language != nil {
		languagePrimary = &record.Language.Primary
		languageConfidence = &record.Language.Confidence
		breakdown, err := json.Marshal(record.Language.Breakdown)
		if err != nil {
			return fmt.Errorf("marshal language breakdown: %w", err)
		}
		languageBreakdown = breakdown
	}

	query, args, err := r.builder.
		Insert("lyrics_records").
		Columns("track_id", "primary_source_text", "secondary_source_text", "reconciled_text",
			"source", "normalized_by", "confidence_score",
			"language_primary", "language_breakdown", "language_confidence", "updated_at").
		Values(record.TrackID, record.PrimarySourceText, record.SecondarySourceText, record.ReconciledText,
			string(record.Source), record.NormalizedBy, record.ConfidenceScore,
			languagePrimary, languageBreakdown, languageConfidence, record.UpdatedAt).
		Suffix(`ON CONFLICT (track_id) DO UPDATE SET
			primary_source_text = EXCLUDED.primary_source_text,
			secondary_source_text = EXCLUDED.secondary_source_text,
			reconciled_text = EXCLUDED.reconciled_text,
			source = EXCLUDED.source,
			normalized_by = EXCLUDED.normalized_by,
			confidence_score = EXCLUDED.confidence_score,
			language_primary = EXCLUDED.language_primary,
			language_breakdown = EXCLUDED.language_breakdown,
			language_confidence = EXCLUDED.language_confidence,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record upsert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record %s: %w", record.TrackID, err)
	}
	return nil
}

func (r *PostgresRepository) appendLog(ctx context.Context, tx *sql.Tx, entry domain.ProcessingLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal log metadata: %w", err)
	}

	query, args, err := r.builder.
		Insert("processing_log").
		Columns("track_id", "stage", "outcome", "message", "metadata").
		Values(entry.TrackID, entry.Stage, string(entry.Outcome), entry.Message, metadata).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append log for %s: %w", entry.TrackID, err)
	}
	return nil
}

func (r *PostgresRepository) updateStatus(ctx context.Context, tx *sql.Tx, update domain.StatusUpdate) error {
	query, args, err := r.builder.
		Update("tracks").
		Set("lyrics_status", string(update.Status)).
		Where(sq.Eq{"id": update.TrackID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update status for %s: %w", update.TrackID, err)
	}
	return nil
}

func scanRecord(rows *sql.Rows) (domain.LyricsRecord, error) {
	var (
		record             domain.LyricsRecord
		source             string
		languagePrimary    sql.NullString
		languageBreakdown  []byte
		languageConfidence sql.NullFloat64
	)

	if err := rows.Scan(&record.TrackID, &record.PrimarySourceText, &record.SecondarySourceText,
		&record.ReconciledText, &source, &record.NormalizedBy, &record.ConfidenceScore,
		&languagePrimary, &languageBreakdown, &languageConfidence); err != nil {
		return record, fmt.Errorf("scan record: %w", err)
	}
	record.Source = domain.Source(source)

	if languagePrimary.Valid {
		data := domain.LanguageData{
			Primary:    languagePrimary.String,
			Confidence: languageConfidence.Float64,
		}
		if len(languageBreakdown) > 0 {
			if err := json.Unmarshal(languageBreakdown, &data.Breakdown); err != nil {
				return record, fmt.Errorf("unmarshal language breakdown: %w", err)
			}
		}
		record.Language = &data
	}

	return record, nil
}
