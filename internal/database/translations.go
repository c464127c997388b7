package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateSegment is returned when a (call_id, segment_index) pair already
// has a row. Upstream transcription retries make this an expected condition,
// not a pipeline failure.
var ErrDuplicateSegment = errors.New("segment already recorded")

// TranslationRow is the input for inserting a translation record.
type TranslationRow struct {
	CallID           string
	OrganizationID   string
	SourceLanguage   string
	TargetLanguage   string
	DetectedLanguage string
	OriginalText     string
	TranslatedText   string
	SegmentIndex     int
	Confidence       float32
}

// TranslationAPI is the translation representation for API responses.
type TranslationAPI struct {
	ID                 int64     `json:"id"`
	CallID             string    `json:"call_id"`
	OrganizationID     string    `json:"organization_id"`
	SourceLanguage     string    `json:"source_language"`
	TargetLanguage     string    `json:"target_language"`
	DetectedLanguage   string    `json:"detected_language,omitempty"`
	OriginalText       string    `json:"original_text"`
	TranslatedText     string    `json:"translated_text"`
	SegmentIndex       int       `json:"segment_index"`
	Confidence         float32   `json:"confidence"`
	TranslatedAudioURL *string   `json:"translated_audio_url,omitempty"`
	AudioDurationMs    *int      `json:"audio_duration_ms,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// InsertTranslation inserts one translation record. The unique constraint on
// (call_id, segment_index) is the correctness backstop against duplicate
// delivery; a violation is reported as ErrDuplicateSegment.
func (db *DB) InsertTranslation(ctx context.Context, row *TranslationRow) (int64, error) {
	detected := row.DetectedLanguage
	if detected == "" {
		detected = row.SourceLanguage
	}

	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO translations (
			call_id, organization_id, source_language, target_language,
			detected_language, original_text, translated_text,
			segment_index, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		row.CallID, row.OrganizationID, row.SourceLanguage, row.TargetLanguage,
		detected, row.OriginalText, row.TranslatedText,
		row.SegmentIndex, row.Confidence,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateSegment
		}
		return 0, fmt.Errorf("insert translation: %w", err)
	}
	return id, nil
}

// SetTranslationAudio fills in the audio columns once synthesis succeeded.
// The text columns of a record are never touched after insert.
func (db *DB) SetTranslationAudio(ctx context.Context, callID string, segmentIndex int, audioURL string, durationMs int) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE translations
		SET translated_audio_url = $3, audio_duration_ms = $4
		WHERE call_id = $1 AND segment_index = $2
	`, callID, segmentIndex, audioURL, durationMs)
	if err != nil {
		return fmt.Errorf("set translation audio: %w", err)
	}
	return nil
}

// ListTranslationsByCall returns a call's transcript in segment order.
func (db *DB) ListTranslationsByCall(ctx context.Context, callID string, limit, offset int) ([]TranslationAPI, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, call_id, organization_id, source_language, target_language,
			detected_language, original_text, translated_text,
			segment_index, confidence, translated_audio_url, audio_duration_ms, created_at
		FROM translations
		WHERE call_id = $1
		ORDER BY segment_index ASC
		LIMIT $2 OFFSET $3
	`, callID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TranslationAPI
	for rows.Next() {
		var t TranslationAPI
		if err := rows.Scan(
			&t.ID, &t.CallID, &t.OrganizationID, &t.SourceLanguage, &t.TargetLanguage,
			&t.DetectedLanguage, &t.OriginalText, &t.TranslatedText,
			&t.SegmentIndex, &t.Confidence, &t.TranslatedAudioURL, &t.AudioDurationMs, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if result == nil {
		result = []TranslationAPI{}
	}
	return result, rows.Err()
}

// CountTranslationsByCall returns the number of recorded segments for a call.
func (db *DB) CountTranslationsByCall(ctx context.Context, callID string) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM translations WHERE call_id = $1`, callID,
	).Scan(&n)
	return n, err
}
