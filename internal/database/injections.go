package database

import (
	"context"
	"fmt"
	"time"
)

// Audio injection lifecycle states.
const (
	InjectionQueued     = "queued"
	InjectionProcessing = "processing"
	InjectionCompleted  = "completed"
	InjectionFailed     = "failed"
)

// AudioInjectionRow is the input for creating an injection work item.
type AudioInjectionRow struct {
	CallID         string
	OrganizationID string
	SegmentIndex   int
	AudioURL       string
	DurationMs     int
	CallControlID  string
}

// AudioInjectionAPI is the injection representation for API responses.
type AudioInjectionAPI struct {
	ID             int64     `json:"id"`
	CallID         string    `json:"call_id"`
	OrganizationID string    `json:"organization_id"`
	SegmentIndex   int       `json:"segment_index"`
	AudioURL       string    `json:"audio_url"`
	DurationMs     int       `json:"duration_ms"`
	CallControlID  string    `json:"call_control_id"`
	Status         string    `json:"status"`
	InjectionID    *string   `json:"injection_id,omitempty"`
	FailureReason  *string   `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateInjection inserts a new injection work item in the queued state.
func (db *DB) CreateInjection(ctx context.Context, row *AudioInjectionRow) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO audio_injections (
			call_id, organization_id, segment_index, audio_url,
			duration_ms, call_control_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, 'queued')
		RETURNING id
	`,
		row.CallID, row.OrganizationID, row.SegmentIndex, row.AudioURL,
		row.DurationMs, row.CallControlID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create injection: %w", err)
	}
	return id, nil
}

// MarkInjectionProcessing transitions a queued item to processing.
func (db *DB) MarkInjectionProcessing(ctx context.Context, id int64) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE audio_injections SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'queued'
	`, id)
	return err
}

// MarkInjectionCompleted records provider acknowledgement of playback.
func (db *DB) MarkInjectionCompleted(ctx context.Context, id int64, injectionID string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE audio_injections SET status = 'completed', injection_id = $2, updated_at = now()
		WHERE id = $1
	`, id, injectionID)
	return err
}

// MarkInjectionFailed records a terminal provider failure. Failed items are
// not retried.
func (db *DB) MarkInjectionFailed(ctx context.Context, id int64, reason string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE audio_injections SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1
	`, id, reason)
	return err
}

// ReapStaleInjections marks processing items older than the cutoff as failed.
// Covers providers that never acknowledge playback.
func (db *DB) ReapStaleInjections(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE audio_injections
		SET status = 'failed', failure_reason = 'provider acknowledgement timeout', updated_at = now()
		WHERE status = 'processing' AND updated_at < now() - $1::interval
	`, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListInjections returns injection items, optionally filtered by status.
func (db *DB) ListInjections(ctx context.Context, status string, limit, offset int) ([]AudioInjectionAPI, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, call_id, organization_id, segment_index, audio_url,
			duration_ms, call_control_id, status, injection_id, failure_reason,
			created_at, updated_at
		FROM audio_injections`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AudioInjectionAPI
	for rows.Next() {
		var a AudioInjectionAPI
		if err := rows.Scan(
			&a.ID, &a.CallID, &a.OrganizationID, &a.SegmentIndex, &a.AudioURL,
			&a.DurationMs, &a.CallControlID, &a.Status, &a.InjectionID, &a.FailureReason,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if result == nil {
		result = []AudioInjectionAPI{}
	}
	return result, rows.Err()
}

// CountInjectionsByStatus returns counts keyed by lifecycle state.
func (db *DB) CountInjectionsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT status, count(*) FROM audio_injections GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
