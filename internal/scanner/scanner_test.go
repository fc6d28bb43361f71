package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mediavault/internal/media"
	"mediavault/internal/testsupport"
)

type stubExtractor struct {
	fail map[string]bool
}

func (s *stubExtractor) Extract(_ context.Context, path string) (media.Facts, error) {
	if s.fail[path] {
		return media.Facts{}, errors.New("unsupported container")
	}
	return media.Facts{
		Container:       "matroska",
		VideoCodec:      "hevc",
		Width:           1920,
		Height:          1080,
		BitrateKbps:     8000,
		AudioChannels:   6,
		AudioTrackCount: 1,
		AudioLanguages:  []string{"en"},
	}, nil
}

func TestRunFullScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	library := cfg.Paths.LibraryDirs[0]
	testsupport.WriteFile(t, filepath.Join(library, "The.Matrix.1999.1080p.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(library, "notes.txt"), 128)

	s := New(st, cfg, &stubExtractor{}, nil)
	record, err := s.Run(context.Background(), nil, media.ScanFull)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if record.Status != media.ScanCompleted {
		t.Fatalf("unexpected status %s", record.Status)
	}
	if record.FilesFound != 1 || record.FilesNew != 1 || record.ErrorCount != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.RunID == "" || record.CompletedAt == nil {
		t.Fatalf("record not finalized: %+v", record)
	}

	files, err := st.ListActiveFiles(context.Background())
	if err != nil {
		t.Fatalf("ListActiveFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	file := files[0]
	if file.ContentHash == "" {
		t.Fatal("content hash missing")
	}
	if file.Parsed.Title != "The Matrix" || file.Parsed.Year != 1999 {
		t.Fatalf("unexpected parse: %+v", file.Parsed)
	}
	if file.QualityScore <= 0 {
		t.Fatalf("expected positive score, got %d", file.QualityScore)
	}
}

func TestRunIncrementalSkipsUnchanged(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	library := cfg.Paths.LibraryDirs[0]
	testsupport.WriteFile(t, filepath.Join(library, "Dune.2021.mkv"), 4096)

	s := New(st, cfg, &stubExtractor{}, nil)
	if _, err := s.Run(context.Background(), nil, media.ScanFull); err != nil {
		t.Fatalf("full scan failed: %v", err)
	}

	record, err := s.Run(context.Background(), nil, media.ScanIncremental)
	if err != nil {
		t.Fatalf("incremental scan failed: %v", err)
	}
	if record.FilesNew != 0 || record.FilesUpdated != 0 {
		t.Fatalf("unchanged set should produce no writes: %+v", record)
	}
	if record.FilesFound != 1 {
		t.Fatalf("expected file still found: %+v", record)
	}
}

func TestRunIncrementalUpdatesChanged(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	library := cfg.Paths.LibraryDirs[0]
	path := filepath.Join(library, "Dune.2021.mkv")
	testsupport.WriteFile(t, path, 4096)

	s := New(st, cfg, &stubExtractor{}, nil)
	if _, err := s.Run(context.Background(), nil, media.ScanFull); err != nil {
		t.Fatalf("full scan failed: %v", err)
	}
	testsupport.WriteFile(t, path, 8192)

	record, err := s.Run(context.Background(), nil, media.ScanIncremental)
	if err != nil {
		t.Fatalf("incremental scan failed: %v", err)
	}
	if record.FilesUpdated != 1 || record.FilesNew != 0 {
		t.Fatalf("changed file should update in place: %+v", record)
	}

	files, err := st.ListActiveFiles(context.Background())
	if err != nil {
		t.Fatalf("ListActiveFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].Size != 8192 {
		t.Fatalf("expected single updated row, got %+v", files)
	}
}

func TestRunRecordsPerFileErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	library := cfg.Paths.LibraryDirs[0]
	good := filepath.Join(library, "Arrival.2016.mkv")
	bad := filepath.Join(library, "Corrupt.2020.mkv")
	testsupport.WriteFile(t, good, 2048)
	testsupport.WriteFile(t, bad, 2048)

	s := New(st, cfg, &stubExtractor{fail: map[string]bool{bad: true}}, nil)
	record, err := s.Run(context.Background(), nil, media.ScanFull)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if record.Status != media.ScanCompleted {
		t.Fatalf("per-file errors must not fail the run: %+v", record)
	}
	if record.ErrorCount != 1 || record.FilesNew != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestRunFailsOnBadRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	s := New(st, cfg, &stubExtractor{}, nil)
	missing := filepath.Join(testsupport.BaseDir(cfg), "does-not-exist")
	record, err := s.Run(context.Background(), []string{missing}, media.ScanFull)
	if err == nil {
		t.Fatal("expected enumeration error")
	}
	if record == nil || record.Status != media.ScanFailed {
		t.Fatalf("failed run should still be recorded: %+v", record)
	}

	history, err := st.ListScanHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListScanHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Status != media.ScanFailed {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestRunRejectsEmptyRoots(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.LibraryDirs = nil
	st := testsupport.MustOpenStore(t, cfg)

	s := New(st, cfg, &stubExtractor{}, nil)
	if _, err := s.Run(context.Background(), nil, media.ScanFull); err == nil {
		t.Fatal("expected validation error")
	}
}
