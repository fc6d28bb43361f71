package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediavault/internal/media"
)

const fileColumns = "id, path, size, mtime, content_hash, container, video_codec, width, height, bitrate_kbps, frame_rate, duration_seconds, audio_channels, audio_track_count, subtitle_track_count, hdr, audio_languages, subtitle_languages, parsed_title, parsed_year, parsed_season, parsed_episode, release_group, media_type, quality_score, discovered_at, last_scanned_at, is_deleted, deleted_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*media.File, error) {
	var (
		id            int64
		path          string
		size          int64
		mtimeRaw      sql.NullString
		contentHash   sql.NullString
		container     sql.NullString
		videoCodec    sql.NullString
		width         int
		height        int
		bitrateKbps   int64
		frameRate     float64
		duration      float64
		audioChannels int
		audioTracks   int
		subTracks     int
		hdr           sql.NullInt64
		audioLangs    sql.NullString
		subLangs      sql.NullString
		parsedTitle   sql.NullString
		parsedYear    int
		parsedSeason  int
		parsedEpisode int
		releaseGroup  sql.NullString
		mediaType     string
		qualityScore  int
		discoveredRaw sql.NullString
		scannedRaw    sql.NullString
		isDeleted     sql.NullInt64
		deletedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&path,
		&size,
		&mtimeRaw,
		&contentHash,
		&container,
		&videoCodec,
		&width,
		&height,
		&bitrateKbps,
		&frameRate,
		&duration,
		&audioChannels,
		&audioTracks,
		&subTracks,
		&hdr,
		&audioLangs,
		&subLangs,
		&parsedTitle,
		&parsedYear,
		&parsedSeason,
		&parsedEpisode,
		&releaseGroup,
		&mediaType,
		&qualityScore,
		&discoveredRaw,
		&scannedRaw,
		&isDeleted,
		&deletedRaw,
	); err != nil {
		return nil, err
	}

	file := &media.File{
		ID:          id,
		Path:        path,
		Size:        size,
		ContentHash: contentHash.String,
		Facts: media.Facts{
			Container:          container.String,
			VideoCodec:         videoCodec.String,
			Width:              width,
			Height:             height,
			BitrateKbps:        bitrateKbps,
			FrameRate:          frameRate,
			DurationSeconds:    duration,
			AudioChannels:      audioChannels,
			AudioTrackCount:    audioTracks,
			SubtitleTrackCount: subTracks,
			HDR:                hdr.Valid && hdr.Int64 != 0,
			AudioLanguages:     decodeStringList(audioLangs.String),
			SubtitleLanguages:  decodeStringList(subLangs.String),
		},
		Parsed: media.ParsedName{
			Title:        parsedTitle.String,
			Year:         parsedYear,
			Season:       parsedSeason,
			Episode:      parsedEpisode,
			ReleaseGroup: releaseGroup.String,
			MediaType:    media.Type(mediaType),
		},
		QualityScore: qualityScore,
	}
	if isDeleted.Valid {
		file.Deleted = isDeleted.Int64 != 0
	}
	if mtime, err := parseTimeString(mtimeRaw.String); err == nil {
		file.ModTime = mtime
	}
	if discovered, err := parseTimeString(discoveredRaw.String); err == nil {
		file.DiscoveredAt = discovered
	}
	if scanned, err := parseTimeString(scannedRaw.String); err == nil {
		file.LastScannedAt = scanned
	}
	if deletedRaw.Valid {
		if deleted, err := parseTimeString(deletedRaw.String); err == nil {
			file.DeletedAt = &deleted
		}
	}
	return file, nil
}

// InsertFile persists a newly discovered file and fills in its ID.
func (s *Store) InsertFile(ctx context.Context, file *media.File) error {
	if file == nil {
		return errors.New("file is nil")
	}
	now := time.Now().UTC()
	if file.DiscoveredAt.IsZero() {
		file.DiscoveredAt = now
	}
	if file.LastScannedAt.IsZero() {
		file.LastScannedAt = now
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO media_files (
            path, size, mtime, content_hash, container, video_codec,
            width, height, bitrate_kbps, frame_rate, duration_seconds,
            audio_channels, audio_track_count, subtitle_track_count, hdr,
            audio_languages, subtitle_languages,
            parsed_title, parsed_year, parsed_season, parsed_episode,
            release_group, media_type, quality_score,
            discovered_at, last_scanned_at, is_deleted, deleted_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.Path,
		file.Size,
		file.ModTime.UTC().Format(time.RFC3339Nano),
		nullableString(file.ContentHash),
		nullableString(file.Facts.Container),
		nullableString(file.Facts.VideoCodec),
		file.Facts.Width,
		file.Facts.Height,
		file.Facts.BitrateKbps,
		file.Facts.FrameRate,
		file.Facts.DurationSeconds,
		file.Facts.AudioChannels,
		file.Facts.AudioTrackCount,
		file.Facts.SubtitleTrackCount,
		boolToInt(file.Facts.HDR),
		encodeStringList(file.Facts.AudioLanguages),
		encodeStringList(file.Facts.SubtitleLanguages),
		nullableString(file.Parsed.Title),
		file.Parsed.Year,
		file.Parsed.Season,
		file.Parsed.Episode,
		nullableString(file.Parsed.ReleaseGroup),
		string(file.Parsed.MediaType),
		file.QualityScore,
		file.DiscoveredAt.UTC().Format(time.RFC3339Nano),
		file.LastScannedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(file.Deleted),
		nullableTime(file.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	file.ID = id
	return nil
}

// UpdateFile persists changes to an existing file row.
func (s *Store) UpdateFile(ctx context.Context, file *media.File) error {
	if file == nil {
		return errors.New("file is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE media_files
         SET path = ?, size = ?, mtime = ?, content_hash = ?, container = ?,
             video_codec = ?, width = ?, height = ?, bitrate_kbps = ?,
             frame_rate = ?, duration_seconds = ?, audio_channels = ?,
             audio_track_count = ?, subtitle_track_count = ?, hdr = ?,
             audio_languages = ?, subtitle_languages = ?,
             parsed_title = ?, parsed_year = ?, parsed_season = ?,
             parsed_episode = ?, release_group = ?, media_type = ?,
             quality_score = ?, last_scanned_at = ?, is_deleted = ?, deleted_at = ?
         WHERE id = ?`,
		file.Path,
		file.Size,
		file.ModTime.UTC().Format(time.RFC3339Nano),
		nullableString(file.ContentHash),
		nullableString(file.Facts.Container),
		nullableString(file.Facts.VideoCodec),
		file.Facts.Width,
		file.Facts.Height,
		file.Facts.BitrateKbps,
		file.Facts.FrameRate,
		file.Facts.DurationSeconds,
		file.Facts.AudioChannels,
		file.Facts.AudioTrackCount,
		file.Facts.SubtitleTrackCount,
		boolToInt(file.Facts.HDR),
		encodeStringList(file.Facts.AudioLanguages),
		encodeStringList(file.Facts.SubtitleLanguages),
		nullableString(file.Parsed.Title),
		file.Parsed.Year,
		file.Parsed.Season,
		file.Parsed.Episode,
		nullableString(file.Parsed.ReleaseGroup),
		string(file.Parsed.MediaType),
		file.QualityScore,
		file.LastScannedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(file.Deleted),
		nullableTime(file.DeletedAt),
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

// GetFileByID fetches a file by identifier. Returns nil when absent.
func (s *Store) GetFileByID(ctx context.Context, id int64) (*media.File, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+fileColumns+` FROM media_files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// GetActiveFileByPath fetches the non-deleted file at a path. Returns nil when absent.
func (s *Store) GetActiveFileByPath(ctx context.Context, path string) (*media.File, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+fileColumns+` FROM media_files WHERE path = ? AND is_deleted = 0 LIMIT 1`,
		path,
	)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by path: %w", err)
	}
	return file, nil
}

// FileFilter narrows ListFiles results.
type FileFilter struct {
	MediaType      media.Type
	IncludeDeleted bool
	Limit          int
}

// ListFiles returns inventory rows ordered by path.
func (s *Store) ListFiles(ctx context.Context, filter FileFilter) ([]*media.File, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files`
	var clauses []string
	var args []any
	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted = 0")
	}
	if filter.MediaType != "" {
		clauses = append(clauses, "media_type = ?")
		args = append(args, string(filter.MediaType))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY path"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*media.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ListActiveFiles returns every non-deleted file.
func (s *Store) ListActiveFiles(ctx context.Context) ([]*media.File, error) {
	return s.ListFiles(ctx, FileFilter{})
}

// FilesByIDs returns the files for the given identifiers, keyed by ID.
func (s *Store) FilesByIDs(ctx context.Context, ids []int64) (map[int64]*media.File, error) {
	result := make(map[int64]*media.File, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + fileColumns + ` FROM media_files WHERE id IN (` + makePlaceholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("files by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result[file.ID] = file
	}
	return result, rows.Err()
}

// MarkFileDeleted flips a file into the deleted state.
func (s *Store) MarkFileDeleted(ctx context.Context, id int64, at time.Time) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE media_files SET is_deleted = 1, deleted_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark file deleted: %w", err)
	}
	return nil
}

// MarkFileRestored clears the deleted state after a quarantine restore.
func (s *Store) MarkFileRestored(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE media_files SET is_deleted = 0, deleted_at = NULL WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark file restored: %w", err)
	}
	return nil
}

// CountFiles returns active row and byte totals for status output.
func (s *Store) CountFiles(ctx context.Context) (count int64, totalSize int64, err error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1), COALESCE(SUM(size), 0) FROM media_files WHERE is_deleted = 0`,
	)
	if err := row.Scan(&count, &totalSize); err != nil {
		return 0, 0, fmt.Errorf("count files: %w", err)
	}
	return count, totalSize, nil
}
