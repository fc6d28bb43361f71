package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediavault/internal/media"
)

const scanColumns = "id, run_id, scan_type, paths, started_at, completed_at, duration_ms, files_found, files_new, files_updated, error_count, status, error_detail"

func scanScanRecord(scanner interface{ Scan(dest ...any) error }) (*media.ScanRecord, error) {
	var (
		id           int64
		runID        string
		scanType     string
		pathsRaw     sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
		durationMS   int64
		filesFound   int
		filesNew     int
		filesUpdated int
		errorCount   int
		status       string
		errorDetail  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&scanType,
		&pathsRaw,
		&startedRaw,
		&completedRaw,
		&durationMS,
		&filesFound,
		&filesNew,
		&filesUpdated,
		&errorCount,
		&status,
		&errorDetail,
	); err != nil {
		return nil, err
	}

	record := &media.ScanRecord{
		ID:           id,
		RunID:        runID,
		ScanType:     media.ScanType(scanType),
		Paths:        decodeStringList(pathsRaw.String),
		Duration:     time.Duration(durationMS) * time.Millisecond,
		FilesFound:   filesFound,
		FilesNew:     filesNew,
		FilesUpdated: filesUpdated,
		ErrorCount:   errorCount,
		Status:       media.ScanStatus(status),
		ErrorDetail:  errorDetail.String,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		record.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			record.CompletedAt = &completed
		}
	}
	return record, nil
}

// InsertScanRecord writes the initial running row for a scan.
func (s *Store) InsertScanRecord(ctx context.Context, record *media.ScanRecord) error {
	if record == nil {
		return errors.New("scan record is nil")
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = media.ScanRunning
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scan_history (
            run_id, scan_type, paths, started_at, completed_at, duration_ms,
            files_found, files_new, files_updated, error_count, status, error_detail
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		string(record.ScanType),
		encodeStringList(record.Paths),
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(record.CompletedAt),
		record.Duration.Milliseconds(),
		record.FilesFound,
		record.FilesNew,
		record.FilesUpdated,
		record.ErrorCount,
		string(record.Status),
		nullableString(record.ErrorDetail),
	)
	if err != nil {
		return fmt.Errorf("insert scan record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// FinalizeScanRecord writes the terminal state of a scan run.
func (s *Store) FinalizeScanRecord(ctx context.Context, record *media.ScanRecord) error {
	if record == nil {
		return errors.New("scan record is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE scan_history
         SET completed_at = ?, duration_ms = ?, files_found = ?, files_new = ?,
             files_updated = ?, error_count = ?, status = ?, error_detail = ?
         WHERE id = ?`,
		nullableTime(record.CompletedAt),
		record.Duration.Milliseconds(),
		record.FilesFound,
		record.FilesNew,
		record.FilesUpdated,
		record.ErrorCount,
		string(record.Status),
		nullableString(record.ErrorDetail),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("finalize scan record: %w", err)
	}
	return nil
}

// ListScanHistory returns scan runs, newest first.
func (s *Store) ListScanHistory(ctx context.Context, limit int) ([]*media.ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scan_history ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}
	defer rows.Close()

	var records []*media.ScanRecord
	for rows.Next() {
		record, err := scanScanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
