package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediavault/internal/media"
)

const groupColumns = "id, signature, kind, title, year, season, episode, media_type, confidence, detected_at, dismissed, dismissed_at"

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*media.Group, error) {
	var (
		id           int64
		signature    string
		kind         string
		title        sql.NullString
		year         int
		season       int
		episode      int
		mediaType    string
		confidence   float64
		detectedRaw  sql.NullString
		dismissed    sql.NullInt64
		dismissedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&signature,
		&kind,
		&title,
		&year,
		&season,
		&episode,
		&mediaType,
		&confidence,
		&detectedRaw,
		&dismissed,
		&dismissedRaw,
	); err != nil {
		return nil, err
	}

	group := &media.Group{
		ID:         id,
		Signature:  signature,
		Kind:       media.GroupKind(kind),
		Title:      title.String,
		Year:       year,
		Season:     season,
		Episode:    episode,
		MediaType:  media.Type(mediaType),
		Confidence: confidence,
	}
	if dismissed.Valid {
		group.Dismissed = dismissed.Int64 != 0
	}
	if detected, err := parseTimeString(detectedRaw.String); err == nil {
		group.DetectedAt = detected
	}
	if dismissedRaw.Valid {
		if at, err := parseTimeString(dismissedRaw.String); err == nil {
			group.DismissedAt = &at
		}
	}
	return group, nil
}

// InsertGroup persists a duplicate group and its members in one transaction.
func (s *Store) InsertGroup(ctx context.Context, group *media.Group, members []*media.Member) error {
	if group == nil {
		return errors.New("group is nil")
	}
	if len(members) < 2 {
		return fmt.Errorf("group %q needs at least two members", group.Signature)
	}
	ctx = ensureContext(ctx)
	if group.DetectedAt.IsZero() {
		group.DetectedAt = time.Now().UTC()
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin group tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO duplicate_groups (
                signature, kind, title, year, season, episode, media_type,
                confidence, detected_at, dismissed, dismissed_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			group.Signature,
			string(group.Kind),
			nullableString(group.Title),
			group.Year,
			group.Season,
			group.Episode,
			string(group.MediaType),
			group.Confidence,
			group.DetectedAt.UTC().Format(time.RFC3339Nano),
			boolToInt(group.Dismissed),
			nullableTime(group.DismissedAt),
		)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		for _, member := range members {
			memberRes, err := tx.ExecContext(
				ctx,
				`INSERT INTO duplicate_members (
                    group_id, file_id, rank, action, reason,
                    language_concern, language_concern_reason
                ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				groupID,
				member.FileID,
				member.Rank,
				string(member.Action),
				nullableString(member.Reason),
				boolToInt(member.LanguageConcern),
				nullableString(member.LanguageConcernReason),
			)
			if err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
			memberID, err := memberRes.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			member.ID = memberID
			member.GroupID = groupID
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit group: %w", err)
		}
		group.ID = groupID
		return nil
	})
}

// DeleteGroup removes a group; members go with it via cascade.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM duplicate_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// DismissGroup marks a group as operator-dismissed. The signature stays
// behind so reconciliation never recreates it.
func (s *Store) DismissGroup(ctx context.Context, id int64, at time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE duplicate_groups SET dismissed = 1, dismissed_at = ? WHERE id = ? AND dismissed = 0`,
		at.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("dismiss group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dismiss group: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("group %d not found or already dismissed", id)
	}
	return nil
}

// SetGroupKeeper re-marks the chosen member as the keeper and everyone else
// for review, recording that the choice came from an operator.
func (s *Store) SetGroupKeeper(ctx context.Context, groupID, fileID int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin keeper tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`UPDATE duplicate_members SET action = ?, reason = ? WHERE group_id = ? AND file_id = ?`,
			string(media.ActionKeep),
			"selected as keeper by operator",
			groupID,
			fileID,
		)
		if err != nil {
			return fmt.Errorf("mark keeper: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark keeper: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("file %d is not a member of group %d", fileID, groupID)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE duplicate_members SET action = ?, reason = ? WHERE group_id = ? AND file_id != ?`,
			string(media.ActionReview),
			"operator selected a different keeper",
			groupID,
			fileID,
		); err != nil {
			return fmt.Errorf("mark alternatives: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit keeper: %w", err)
		}
		return nil
	})
}

// GetGroupByID fetches a group by identifier. Returns nil when absent.
func (s *Store) GetGroupByID(ctx context.Context, id int64) (*media.Group, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+groupColumns+` FROM duplicate_groups WHERE id = ?`, id)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

// ListGroups returns groups ordered by detection time, newest first.
func (s *Store) ListGroups(ctx context.Context, includeDismissed bool) ([]*media.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM duplicate_groups`
	if !includeDismissed {
		query += ` WHERE dismissed = 0`
	}
	query += ` ORDER BY detected_at DESC, id DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*media.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// ListMembers returns a group's members ordered by rank.
func (s *Store) ListMembers(ctx context.Context, groupID int64) ([]*media.Member, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, group_id, file_id, rank, action, reason, language_concern, language_concern_reason
         FROM duplicate_members WHERE group_id = ? ORDER BY rank`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*media.Member
	for rows.Next() {
		var (
			member        media.Member
			action        string
			reason        sql.NullString
			concern       sql.NullInt64
			concernReason sql.NullString
		)
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.FileID,
			&member.Rank,
			&action,
			&reason,
			&concern,
			&concernReason,
		); err != nil {
			return nil, err
		}
		member.Action = media.MemberAction(action)
		member.Reason = reason.String
		member.LanguageConcern = concern.Valid && concern.Int64 != 0
		member.LanguageConcernReason = concernReason.String
		members = append(members, &member)
	}
	return members, rows.Err()
}

// GroupSignatures returns signature -> group id for every stored group,
// split by dismissal state. Reconciliation consults both sets.
func (s *Store) GroupSignatures(ctx context.Context) (active map[string]int64, dismissed map[string]int64, err error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id, signature, dismissed FROM duplicate_groups`)
	if err != nil {
		return nil, nil, fmt.Errorf("group signatures: %w", err)
	}
	defer rows.Close()

	active = make(map[string]int64)
	dismissed = make(map[string]int64)
	for rows.Next() {
		var (
			id        int64
			signature string
			flag      sql.NullInt64
		)
		if err := rows.Scan(&id, &signature, &flag); err != nil {
			return nil, nil, err
		}
		if flag.Valid && flag.Int64 != 0 {
			dismissed[signature] = id
		} else {
			active[signature] = id
		}
	}
	return active, dismissed, rows.Err()
}
