package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"mediavault/internal/media"
)

const englishCode = "en"

// rankMembers orders a group's files from best to worst and builds the member
// rows. Rank 1 is the recommended keeper; everyone else is marked for review
// with a reason the operator can read.
//
// When englishGuard is set and exactly one file carries an English audio
// track, that file is forced to rank 1 no matter its score, and the remaining
// members are flagged with a language concern.
func rankMembers(files []*media.File, englishGuard bool) []*media.Member {
	ordered := make([]*media.File, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		if a.Facts.BitrateKbps != b.Facts.BitrateKbps {
			return a.Facts.BitrateKbps > b.Facts.BitrateKbps
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Path < b.Path
	})

	overrideApplied := false
	if englishGuard {
		if idx, ok := soleEnglishIndex(ordered); ok {
			overrideApplied = true
			if idx != 0 {
				english := ordered[idx]
				copy(ordered[1:idx+1], ordered[:idx])
				ordered[0] = english
			}
		}
	}

	keeper := ordered[0]
	members := make([]*media.Member, len(ordered))
	for i, file := range ordered {
		member := &media.Member{
			FileID: file.ID,
			Rank:   i + 1,
			Action: media.ActionReview,
		}
		if i == 0 {
			member.Action = media.ActionKeep
		} else {
			member.Reason = reviewReason(keeper, file)
			if overrideApplied {
				member.LanguageConcern = true
				member.LanguageConcernReason = "group's only copy with English audio is kept; this copy has none"
			}
		}
		members[i] = member
	}
	return members
}

// soleEnglishIndex returns the position of the group's only English-audio
// file, or false when zero or several files carry English audio.
func soleEnglishIndex(files []*media.File) (int, bool) {
	index := -1
	for i, file := range files {
		if file.HasAudioLanguage(englishCode) {
			if index >= 0 {
				return 0, false
			}
			index = i
		}
	}
	if index < 0 {
		return 0, false
	}
	return index, true
}

func reviewReason(keeper, file *media.File) string {
	var parts []string
	if !file.HasAudioLanguage(englishCode) && keeper.HasAudioLanguage(englishCode) {
		parts = append(parts, "missing English audio track")
	}
	if file.Facts.Height > 0 && keeper.Facts.Height > file.Facts.Height {
		parts = append(parts, "lower resolution")
	}
	if file.Facts.BitrateKbps > 0 && keeper.Facts.BitrateKbps > file.Facts.BitrateKbps {
		parts = append(parts, "lower bitrate")
	}
	if keeper.Facts.HDR && !file.Facts.HDR {
		parts = append(parts, "no HDR")
	}
	if file.QualityScore < keeper.QualityScore {
		parts = append(parts, fmt.Sprintf("lower quality score (%d vs %d)", file.QualityScore, keeper.QualityScore))
	}
	if len(parts) == 0 {
		return "duplicate copy of equal quality"
	}
	return strings.Join(parts, ", ")
}

// LanguageConcern reports whether deleting the file deserves extra operator
// attention, with a display-ready reason. requireEnglishAudio marks any copy
// that still carries English audio; the foreign-film heuristic catches copies
// whose only English content is a subtitle track.
func LanguageConcern(file *media.File, requireEnglishAudio bool) (bool, string) {
	if requireEnglishAudio && file.HasAudioLanguage(englishCode) {
		return true, "file contains English audio; require manual review before deletion"
	}
	if len(file.Facts.AudioLanguages) > 0 &&
		!file.HasAudioLanguage(englishCode) &&
		file.HasSubtitleLanguage(englishCode) {
		return true, "foreign-film heuristic triggered (non-English audio with English subtitles)"
	}
	return false, ""
}
