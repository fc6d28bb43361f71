package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediavault/internal/media"
)

const pendingColumns = "id, file_id, original_path, quarantine_path, file_size, reason, group_id, score_delta, language_concern, language_concern_reason, staged_at, approved, approved_at"

func scanPending(scanner interface{ Scan(dest ...any) error }) (*media.PendingDeletion, error) {
	var (
		id            int64
		fileID        int64
		originalPath  string
		quarantine    sql.NullString
		fileSize      int64
		reason        sql.NullString
		groupID       sql.NullInt64
		scoreDelta    int
		concern       sql.NullInt64
		concernReason sql.NullString
		stagedRaw     sql.NullString
		approved      sql.NullInt64
		approvedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&fileID,
		&originalPath,
		&quarantine,
		&fileSize,
		&reason,
		&groupID,
		&scoreDelta,
		&concern,
		&concernReason,
		&stagedRaw,
		&approved,
		&approvedRaw,
	); err != nil {
		return nil, err
	}

	pending := &media.PendingDeletion{
		ID:                    id,
		FileID:                fileID,
		OriginalPath:          originalPath,
		QuarantinePath:        quarantine.String,
		FileSize:              fileSize,
		Reason:                reason.String,
		GroupID:               groupID.Int64,
		ScoreDelta:            scoreDelta,
		LanguageConcern:       concern.Valid && concern.Int64 != 0,
		LanguageConcernReason: concernReason.String,
		Approved:              approved.Valid && approved.Int64 != 0,
	}
	if staged, err := parseTimeString(stagedRaw.String); err == nil {
		pending.StagedAt = staged
	}
	if approvedRaw.Valid {
		if at, err := parseTimeString(approvedRaw.String); err == nil {
			pending.ApprovedAt = &at
		}
	}
	return pending, nil
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

// InsertPending records a staged deletion and fills in its ID.
func (s *Store) InsertPending(ctx context.Context, pending *media.PendingDeletion) error {
	if pending == nil {
		return errors.New("pending deletion is nil")
	}
	if pending.StagedAt.IsZero() {
		pending.StagedAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO pending_deletions (
            file_id, original_path, quarantine_path, file_size, reason,
            group_id, score_delta, language_concern, language_concern_reason,
            staged_at, approved, approved_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pending.FileID,
		pending.OriginalPath,
		nullableString(pending.QuarantinePath),
		pending.FileSize,
		nullableString(pending.Reason),
		nullableInt64(pending.GroupID),
		pending.ScoreDelta,
		boolToInt(pending.LanguageConcern),
		nullableString(pending.LanguageConcernReason),
		pending.StagedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(pending.Approved),
		nullableTime(pending.ApprovedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pending deletion: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	pending.ID = id
	return nil
}

// GetPendingByID fetches a staged deletion. Returns nil when absent.
func (s *Store) GetPendingByID(ctx context.Context, id int64) (*media.PendingDeletion, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+pendingColumns+` FROM pending_deletions WHERE id = ?`, id)
	pending, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending deletion: %w", err)
	}
	return pending, nil
}

// GetPendingByFileID fetches the staging row for a file. Returns nil when absent.
func (s *Store) GetPendingByFileID(ctx context.Context, fileID int64) (*media.PendingDeletion, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+pendingColumns+` FROM pending_deletions WHERE file_id = ?`, fileID)
	pending, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending deletion by file: %w", err)
	}
	return pending, nil
}

// PendingFilter narrows ListPending results.
type PendingFilter struct {
	// ApprovedOnly restricts to approved rows; StagedOnly to unapproved rows.
	ApprovedOnly bool
	StagedOnly   bool
	// StagedBefore restricts to rows staged before the given instant.
	StagedBefore time.Time
}

// ListPending returns staged deletions ordered by staging time.
func (s *Store) ListPending(ctx context.Context, filter PendingFilter) ([]*media.PendingDeletion, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_deletions`
	var clauses []string
	var args []any
	if filter.ApprovedOnly {
		clauses = append(clauses, "approved = 1")
	}
	if filter.StagedOnly {
		clauses = append(clauses, "approved = 0")
	}
	if !filter.StagedBefore.IsZero() {
		clauses = append(clauses, "staged_at < ?")
		args = append(args, filter.StagedBefore.UTC().Format(time.RFC3339Nano))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY staged_at, id"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending deletions: %w", err)
	}
	defer rows.Close()

	var pendings []*media.PendingDeletion
	for rows.Next() {
		pending, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending)
	}
	return pendings, rows.Err()
}

// ApprovePending flips a staged deletion to approved. Approval is a flag
// only; bytes move when the purge runs.
func (s *Store) ApprovePending(ctx context.Context, id int64, at time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE pending_deletions SET approved = 1, approved_at = ? WHERE id = ? AND approved = 0`,
		at.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("approve pending deletion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve pending deletion: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pending deletion %d not found or already approved", id)
	}
	return nil
}

// DeletePending removes a staging row after a restore or purge.
func (s *Store) DeletePending(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM pending_deletions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending deletion: %w", err)
	}
	return nil
}
