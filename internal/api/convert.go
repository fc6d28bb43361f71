package api

import (
	"time"

	"mediavault/internal/media"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// FromFile converts an inventory file into its view form.
func FromFile(file *media.File) FileView {
	if file == nil {
		return FileView{}
	}
	return FileView{
		ID:            file.ID,
		Path:          file.Path,
		Name:          file.Name(),
		Size:          file.Size,
		ContentHash:   file.ContentHash,
		Container:     file.Facts.Container,
		VideoCodec:    file.Facts.VideoCodec,
		Width:         file.Facts.Width,
		Height:        file.Facts.Height,
		BitrateKbps:   file.Facts.BitrateKbps,
		HDR:           file.Facts.HDR,
		AudioLangs:    file.Facts.AudioLanguages,
		SubtitleLangs: file.Facts.SubtitleLanguages,
		Title:         file.Parsed.Title,
		Year:          file.Parsed.Year,
		Season:        file.Parsed.Season,
		Episode:       file.Parsed.Episode,
		MediaType:     string(file.Parsed.MediaType),
		QualityScore:  file.QualityScore,
		Deleted:       file.Deleted,
		DiscoveredAt:  formatTime(file.DiscoveredAt),
		LastScannedAt: formatTime(file.LastScannedAt),
	}
}

// FromFiles converts a file slice into view form.
func FromFiles(files []*media.File) []FileView {
	out := make([]FileView, 0, len(files))
	for _, file := range files {
		out = append(out, FromFile(file))
	}
	return out
}

// FromGroup converts a group and its members, attaching file summaries when
// the lookup map carries them.
func FromGroup(group *media.Group, members []*media.Member, files map[int64]*media.File) GroupView {
	if group == nil {
		return GroupView{}
	}
	view := GroupView{
		ID:         group.ID,
		Kind:       string(group.Kind),
		Title:      group.Title,
		Year:       group.Year,
		Season:     group.Season,
		Episode:    group.Episode,
		MediaType:  string(group.MediaType),
		Confidence: group.Confidence,
		DetectedAt: formatTime(group.DetectedAt),
		Dismissed:  group.Dismissed,
	}
	for _, member := range members {
		mv := MemberView{
			FileID:                member.FileID,
			Rank:                  member.Rank,
			Action:                string(member.Action),
			Reason:                member.Reason,
			LanguageConcern:       member.LanguageConcern,
			LanguageConcernReason: member.LanguageConcernReason,
		}
		if file, ok := files[member.FileID]; ok {
			fv := FromFile(file)
			mv.File = &fv
		}
		view.Members = append(view.Members, mv)
	}
	return view
}

// FromPending converts a staged deletion into its view form.
func FromPending(pending *media.PendingDeletion) PendingView {
	if pending == nil {
		return PendingView{}
	}
	return PendingView{
		ID:                    pending.ID,
		FileID:                pending.FileID,
		OriginalPath:          pending.OriginalPath,
		QuarantinePath:        pending.QuarantinePath,
		FileSize:              pending.FileSize,
		Reason:                pending.Reason,
		GroupID:               pending.GroupID,
		ScoreDelta:            pending.ScoreDelta,
		LanguageConcern:       pending.LanguageConcern,
		LanguageConcernReason: pending.LanguageConcernReason,
		StagedAt:              formatTime(pending.StagedAt),
		Approved:              pending.Approved,
		ApprovedAt:            formatTimePtr(pending.ApprovedAt),
	}
}

// FromScanRecord converts a scan history row into its view form.
func FromScanRecord(record *media.ScanRecord) ScanView {
	if record == nil {
		return ScanView{}
	}
	return ScanView{
		RunID:        record.RunID,
		ScanType:     string(record.ScanType),
		Paths:        record.Paths,
		Status:       string(record.Status),
		StartedAt:    formatTime(record.StartedAt),
		CompletedAt:  formatTimePtr(record.CompletedAt),
		DurationMS:   record.Duration.Milliseconds(),
		FilesFound:   record.FilesFound,
		FilesNew:     record.FilesNew,
		FilesUpdated: record.FilesUpdated,
		ErrorCount:   record.ErrorCount,
		ErrorDetail:  record.ErrorDetail,
	}
}
