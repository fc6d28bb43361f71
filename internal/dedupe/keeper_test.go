package dedupe

import (
	"strings"
	"testing"

	"mediavault/internal/media"
)

func member(id int64, path string, score int, bitrate int64, langs ...string) *media.File {
	return &media.File{
		ID:   id,
		Path: path,
		Size: 1 << 30,
		Facts: media.Facts{
			VideoCodec:     "hevc",
			Width:          1920,
			Height:         1080,
			BitrateKbps:    bitrate,
			AudioLanguages: langs,
		},
		QualityScore: score,
	}
}

func TestRankMembersOrdering(t *testing.T) {
	files := []*media.File{
		member(1, "/library/a.mkv", 80, 4000, "en"),
		member(2, "/library/b.mkv", 120, 8000, "en"),
		member(3, "/library/c.mkv", 80, 6000, "en"),
	}
	members := rankMembers(files, true)
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[0].FileID != 2 || members[0].Action != media.ActionKeep {
		t.Fatalf("expected file 2 as keeper, got %+v", members[0])
	}
	// Score tie between 1 and 3 breaks on bitrate.
	if members[1].FileID != 3 || members[2].FileID != 1 {
		t.Fatalf("unexpected tie-break order: %d, %d", members[1].FileID, members[2].FileID)
	}
	for i, m := range members {
		if m.Rank != i+1 {
			t.Fatalf("member %d has rank %d", i, m.Rank)
		}
	}
	if members[1].Action != media.ActionReview || members[1].Reason == "" {
		t.Fatalf("review member missing reason: %+v", members[1])
	}
	if members[0].LanguageConcern || members[1].LanguageConcern {
		t.Fatal("no language concern expected when every copy has English audio")
	}
}

func TestRankMembersEnglishOverride(t *testing.T) {
	files := []*media.File{
		member(1, "/library/a.mkv", 150, 9000, "fr"),
		member(2, "/library/b.mkv", 140, 8000, "de"),
		member(3, "/library/c.mkv", 60, 2000, "en"),
	}
	members := rankMembers(files, true)
	if members[0].FileID != 3 || members[0].Action != media.ActionKeep {
		t.Fatalf("expected sole English copy as keeper, got %+v", members[0])
	}
	for _, m := range members[1:] {
		if m.Action != media.ActionReview {
			t.Fatalf("expected review action, got %s", m.Action)
		}
		if !m.LanguageConcern || m.LanguageConcernReason == "" {
			t.Fatalf("expected language concern on member %d", m.FileID)
		}
		if !strings.Contains(m.Reason, "missing English audio track") {
			t.Fatalf("reason %q should mention missing English audio", m.Reason)
		}
	}
	// Displaced members keep their quality ordering behind the keeper.
	if members[1].FileID != 1 || members[2].FileID != 2 {
		t.Fatalf("unexpected order behind keeper: %d, %d", members[1].FileID, members[2].FileID)
	}
}

func TestRankMembersOverrideDisabled(t *testing.T) {
	files := []*media.File{
		member(1, "/library/a.mkv", 150, 9000, "fr"),
		member(2, "/library/b.mkv", 60, 2000, "en"),
	}
	members := rankMembers(files, false)
	if members[0].FileID != 1 {
		t.Fatalf("expected highest score as keeper, got file %d", members[0].FileID)
	}
	if members[1].LanguageConcern {
		t.Fatal("guard disabled, no concern flag expected")
	}
}

func TestRankMembersDeterministic(t *testing.T) {
	files := []*media.File{
		member(1, "/library/b.mkv", 100, 5000, "en"),
		member(2, "/library/a.mkv", 100, 5000, "en"),
	}
	for i := 0; i < 5; i++ {
		members := rankMembers(files, true)
		if members[0].FileID != 2 {
			t.Fatalf("run %d: expected path tie-break to pick file 2, got %d", i, members[0].FileID)
		}
	}
}

func TestLanguageConcern(t *testing.T) {
	english := member(1, "/library/a.mkv", 100, 5000, "en", "ja")
	foreignSubbed := member(2, "/library/b.mkv", 100, 5000, "ja")
	foreignSubbed.Facts.SubtitleLanguages = []string{"en"}
	foreignOnly := member(3, "/library/c.mkv", 100, 5000, "ko")

	if ok, reason := LanguageConcern(english, true); !ok || !strings.Contains(reason, "manual review") {
		t.Fatalf("English copy should raise a concern, got %v %q", ok, reason)
	}
	if ok, _ := LanguageConcern(english, false); ok {
		t.Fatal("English concern should be off when not required")
	}
	if ok, reason := LanguageConcern(foreignSubbed, true); !ok || !strings.Contains(reason, "foreign-film") {
		t.Fatalf("foreign-film heuristic should trigger, got %v %q", ok, reason)
	}
	if ok, _ := LanguageConcern(foreignOnly, true); ok {
		t.Fatal("no concern expected without English audio or subtitles")
	}
}
