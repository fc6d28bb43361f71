package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediavault/internal/config"
	"mediavault/internal/faults"
	"mediavault/internal/fileutil"
	"mediavault/internal/media"
	"mediavault/internal/store"
	"mediavault/internal/testsupport"
)

func newManager(t *testing.T) (*Manager, *store.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return New(st, cfg, nil), st, cfg
}

// stagedFile writes a real file under the library root and registers it.
func stagedFile(t *testing.T, cfg *config.Config, st *store.Store, name string, langs ...string) *media.File {
	t.Helper()
	path := filepath.Join(cfg.Paths.LibraryDirs[0], name)
	testsupport.WriteFile(t, path, 4096)
	file := &media.File{
		Path:        path,
		Size:        4096,
		ContentHash: "hash-" + name,
		Facts: media.Facts{
			VideoCodec:     "h264",
			Width:          1280,
			Height:         720,
			BitrateKbps:    3000,
			AudioLanguages: langs,
		},
		Parsed: media.ParsedName{
			Title:     "Solaris",
			Year:      1972,
			MediaType: media.TypeMovie,
		},
		QualityScore: 75,
	}
	return testsupport.InsertFile(t, st, file)
}

func TestStageMovesFileIntoQuarantine(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "lower quality copy", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
		t.Fatal("original path should be vacated")
	}
	if _, err := os.Stat(pending.QuarantinePath); err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
	wantPrefix := filepath.Join(cfg.Paths.QuarantineDir, "movie")
	if !strings.HasPrefix(pending.QuarantinePath, wantPrefix) {
		t.Fatalf("quarantine path %q should live under %q", pending.QuarantinePath, wantPrefix)
	}
	if pending.OriginalPath != file.Path || pending.FileSize != 4096 {
		t.Fatalf("unexpected pending row: %+v", pending)
	}
	if pending.Approved {
		t.Fatal("freshly staged row must not be approved")
	}
}

func TestStageTwiceConflicts(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	if _, err := m.Stage(ctx, file.ID, "duplicate", 0); err != nil {
		t.Fatalf("first stage failed: %v", err)
	}
	_, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if !errors.Is(err, faults.ErrStagingConflict) {
		t.Fatalf("expected staging conflict, got %v", err)
	}

	rows, err := st.ListPending(ctx, store.PendingFilter{})
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one pending row, got %d", len(rows))
	}
}

func TestStageMoveFailureLeavesNoRow(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()

	ghost := &media.File{
		Path:         filepath.Join(cfg.Paths.LibraryDirs[0], "gone.mkv"),
		Size:         1024,
		ContentHash:  "hash-gone",
		QualityScore: 10,
	}
	ghost = testsupport.InsertFile(t, st, ghost)

	_, err := m.Stage(ctx, ghost.ID, "duplicate", 0)
	if !errors.Is(err, faults.ErrMoveFailure) {
		t.Fatalf("expected move failure, got %v", err)
	}
	pending, err := st.GetPendingByFileID(ctx, ghost.ID)
	if err != nil {
		t.Fatalf("GetPendingByFileID failed: %v", err)
	}
	if pending != nil {
		t.Fatal("failed stage must not leave a pending row")
	}
}

func TestStageFlagsLanguageConcern(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "en")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if !pending.LanguageConcern || pending.LanguageConcernReason == "" {
		t.Fatalf("English copy should carry a language concern: %+v", pending)
	}
}

func TestRestoreReturnsFileUnchanged(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := m.Restore(ctx, pending.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if _, err := os.Stat(file.Path); err != nil {
		t.Fatalf("file should be back at its original path: %v", err)
	}
	after, err := st.GetFileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFileByID failed: %v", err)
	}
	if after.Deleted || after.Path != file.Path ||
		after.ContentHash != file.ContentHash || after.QualityScore != file.QualityScore {
		t.Fatalf("restore must leave the record unchanged: %+v", after)
	}
	row, err := st.GetPendingByFileID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetPendingByFileID failed: %v", err)
	}
	if row != nil {
		t.Fatal("pending row should be gone after restore")
	}
}

func TestRestoreFailsWhenOriginalOccupied(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	testsupport.WriteFile(t, file.Path, 100)

	err = m.Restore(ctx, pending.ID)
	if !errors.Is(err, faults.ErrStagingConflict) {
		t.Fatalf("expected staging conflict, got %v", err)
	}
	if _, statErr := os.Stat(pending.QuarantinePath); statErr != nil {
		t.Fatalf("quarantined copy must stay put: %v", statErr)
	}
	row, err := st.GetPendingByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetPendingByID failed: %v", err)
	}
	if row == nil {
		t.Fatal("pending row must survive a failed restore")
	}
}

func TestRestoreRejectsApproved(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := m.Approve(ctx, pending.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := m.Restore(ctx, pending.ID); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPurgeIgnoresUnapproved(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	summary, err := m.PurgeApproved(ctx)
	if err != nil {
		t.Fatalf("PurgeApproved failed: %v", err)
	}
	if summary.Purged != 0 || summary.Errors != 0 {
		t.Fatalf("unapproved rows must not purge: %+v", summary)
	}
	if _, err := os.Stat(pending.QuarantinePath); err != nil {
		t.Fatalf("bytes must be untouched: %v", err)
	}
	row, err := st.GetPendingByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetPendingByID failed: %v", err)
	}
	if row == nil || row.Approved {
		t.Fatalf("pending row must be unchanged: %+v", row)
	}
}

func TestPurgeApprovedDeletesBytes(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	pending, err := m.Stage(ctx, file.ID, "duplicate", 0)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := m.Approve(ctx, pending.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	summary, err := m.PurgeApproved(ctx)
	if err != nil {
		t.Fatalf("PurgeApproved failed: %v", err)
	}
	if summary.Purged != 1 || summary.BytesFreed != 4096 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(pending.QuarantinePath); !os.IsNotExist(err) {
		t.Fatal("quarantined bytes should be gone")
	}
	after, err := st.GetFileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFileByID failed: %v", err)
	}
	if !after.Deleted || after.DeletedAt == nil {
		t.Fatalf("file should be soft-deleted: %+v", after)
	}
	row, err := st.GetPendingByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetPendingByID failed: %v", err)
	}
	if row != nil {
		t.Fatal("pending row should be gone after purge")
	}
}

func TestExpireStaleRestores(t *testing.T) {
	m, st, cfg := newManager(t)
	ctx := context.Background()
	file := stagedFile(t, cfg, st, "Solaris.1972.mkv", "ru")

	// Build an old staging by hand so its age exceeds the expiry window.
	quarantine := filepath.Join(cfg.Paths.QuarantineDir, "movie", "2020-01-01", "Solaris.1972.mkv")
	if err := fileutil.MoveFile(file.Path, quarantine); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	pending := &media.PendingDeletion{
		FileID:         file.ID,
		OriginalPath:   file.Path,
		QuarantinePath: quarantine,
		FileSize:       file.Size,
		Reason:         "duplicate",
		StagedAt:       time.Now().UTC().AddDate(0, 0, -90),
	}
	if err := st.InsertPending(ctx, pending); err != nil {
		t.Fatalf("InsertPending failed: %v", err)
	}

	restored, err := m.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if restored != 1 {
		t.Fatalf("expected 1 restore, got %d", restored)
	}
	if _, err := os.Stat(file.Path); err != nil {
		t.Fatalf("expired file should be back in the library: %v", err)
	}

	cfg.Staging.ExpiryDays = 0
	if n, err := m.ExpireStale(ctx); err != nil || n != 0 {
		t.Fatalf("disabled expiry must be a no-op, got %d %v", n, err)
	}
}
