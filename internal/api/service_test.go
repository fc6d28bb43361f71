package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mediavault/internal/dedupe"
	"mediavault/internal/faults"
	"mediavault/internal/media"
	"mediavault/internal/scanner"
	"mediavault/internal/staging"
	"mediavault/internal/store"
	"mediavault/internal/testsupport"
)

type fixedExtractor struct{}

func (fixedExtractor) Extract(context.Context, string) (media.Facts, error) {
	return media.Facts{
		Container:      "matroska",
		VideoCodec:     "hevc",
		Width:          1920,
		Height:         1080,
		BitrateKbps:    8000,
		AudioLanguages: []string{"en"},
	}, nil
}

func newService(t *testing.T) (*Service, *store.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := NewService(
		st,
		scanner.New(st, cfg, fixedExtractor{}, nil),
		dedupe.New(st, cfg, nil),
		staging.New(st, cfg, nil),
	)
	return svc, st, cfg.Paths.LibraryDirs[0]
}

func TestScanThenDeduplicate(t *testing.T) {
	svc, _, library := newService(t)
	ctx := context.Background()
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.copy.mkv"), 4096)

	scan, err := svc.Scan(ctx, nil, media.ScanFull)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scan.FilesNew != 2 || scan.Status != string(media.ScanCompleted) {
		t.Fatalf("unexpected scan view: %+v", scan)
	}

	result, err := svc.Deduplicate(ctx)
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	// Identical fixtures share bytes, so the pair lands in an exact group.
	if result.GroupsCreated != 1 || result.ExactGroups != 1 {
		t.Fatalf("unexpected dedupe view: %+v", result)
	}

	groups, err := svc.ListGroups(ctx, false)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if groups[0].Members[0].File == nil {
		t.Fatal("member views should carry file details")
	}
}

func TestStageApprovePurgeFlow(t *testing.T) {
	svc, st, library := newService(t)
	ctx := context.Background()
	path := filepath.Join(library, "Heat.1995.mkv")
	testsupport.WriteFile(t, path, 4096)

	if _, err := svc.Scan(ctx, nil, media.ScanFull); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	files, err := svc.ListFiles(ctx, store.FileFilter{})
	if err != nil || len(files) != 1 {
		t.Fatalf("ListFiles failed: %v %d", err, len(files))
	}

	pending, err := svc.Stage(ctx, files[0].ID, "operator request", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if pending.Approved || pending.OriginalPath != path {
		t.Fatalf("unexpected pending view: %+v", pending)
	}

	if err := svc.Approve(ctx, pending.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	purge, err := svc.PurgeApproved(ctx)
	if err != nil {
		t.Fatalf("PurgeApproved failed: %v", err)
	}
	if purge.Purged != 1 || purge.Errors != 0 {
		t.Fatalf("unexpected purge view: %+v", purge)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Pending != 0 {
		t.Fatalf("purged row should leave stats: %+v", stats)
	}

	file, err := st.GetFileByID(ctx, files[0].ID)
	if err != nil {
		t.Fatalf("GetFileByID failed: %v", err)
	}
	if !file.Deleted {
		t.Fatal("purged file should be soft-deleted")
	}
}

func TestSetKeeperReordersActions(t *testing.T) {
	svc, _, library := newService(t)
	ctx := context.Background()
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.copy.mkv"), 4096)

	if _, err := svc.Scan(ctx, nil, media.ScanFull); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if _, err := svc.Deduplicate(ctx); err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	groups, err := svc.ListGroups(ctx, false)
	if err != nil || len(groups) != 1 {
		t.Fatalf("ListGroups failed: %v", err)
	}
	group := groups[0]
	reviewed := group.Members[1]

	if err := svc.SetKeeper(ctx, group.ID, reviewed.FileID); err != nil {
		t.Fatalf("SetKeeper failed: %v", err)
	}
	after, err := svc.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	for _, member := range after.Members {
		want := string(media.ActionReview)
		if member.FileID == reviewed.FileID {
			want = string(media.ActionKeep)
		}
		if member.Action != want {
			t.Fatalf("member %d action %q, want %q", member.FileID, member.Action, want)
		}
	}

	if err := svc.SetKeeper(ctx, group.ID, 99999); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for non-member, got %v", err)
	}
}

func TestGetFileNotFound(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.GetFile(context.Background(), 42); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDismissGroupHidesIt(t *testing.T) {
	svc, _, library := newService(t)
	ctx := context.Background()
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(library, "Heat.1995.copy.mkv"), 4096)

	if _, err := svc.Scan(ctx, nil, media.ScanFull); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if _, err := svc.Deduplicate(ctx); err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	groups, err := svc.ListGroups(ctx, false)
	if err != nil || len(groups) != 1 {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if err := svc.DismissGroup(ctx, groups[0].ID); err != nil {
		t.Fatalf("DismissGroup failed: %v", err)
	}
	groups, err = svc.ListGroups(ctx, false)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("dismissed group should be hidden, got %+v", groups)
	}
}
