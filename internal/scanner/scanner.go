package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"mediavault/internal/config"
	"mediavault/internal/faults"
	"mediavault/internal/logging"
	"mediavault/internal/media"
	"mediavault/internal/probe"
	"mediavault/internal/score"
	"mediavault/internal/store"
	"mediavault/internal/titleparse"
)

// Scanner walks library roots, fingerprints files with a bounded worker
// pool, and upserts the results into the inventory.
type Scanner struct {
	store     *store.Store
	cfg       *config.Config
	extractor probe.Extractor
	lister    Lister
	logger    *slog.Logger
}

// New builds a Scanner over the given store. A nil extractor falls back to
// the configured ffprobe binary.
func New(st *store.Store, cfg *config.Config, extractor probe.Extractor, logger *slog.Logger) *Scanner {
	if extractor == nil {
		extractor = probe.NewFFprobe(cfg.FFprobeBinary(), time.Duration(cfg.Scan.FFprobeTimeout)*time.Second)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		store:     st,
		cfg:       cfg,
		extractor: extractor,
		lister:    newFilesystemLister(cfg.Scan.Extensions),
		logger:    logging.WithComponent(logger, "scanner"),
	}
}

// SetLister replaces the file enumeration source.
func (s *Scanner) SetLister(lister Lister) {
	s.lister = lister
}

type counters struct {
	created atomic.Int64
	updated atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Run performs one scan over the given roots and records it in scan history.
// When roots is empty the configured library directories are used.
//
// A failure to enumerate a root aborts the run; anything that goes wrong
// with a single file is counted and logged, and the scan moves on. The
// returned record is also persisted, including for failed runs.
func (s *Scanner) Run(ctx context.Context, roots []string, scanType media.ScanType) (*media.ScanRecord, error) {
	if len(roots) == 0 {
		roots = s.cfg.Paths.LibraryDirs
	}
	if len(roots) == 0 {
		return nil, faults.Wrap(faults.ErrValidation, "scanner", "run", "no library directories configured", nil)
	}

	record := &media.ScanRecord{
		RunID:     uuid.NewString(),
		ScanType:  scanType,
		Paths:     roots,
		StartedAt: time.Now().UTC(),
		Status:    media.ScanRunning,
	}
	if err := s.store.InsertScanRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("record scan start: %w", err)
	}
	s.logger.Info("scan started",
		logging.String(logging.FieldRunID, record.RunID),
		logging.String("type", string(scanType)),
		logging.Int("roots", len(roots)))

	var entries []Entry
	for _, root := range roots {
		found, err := s.lister.List(ctx, root)
		if err != nil {
			wrapped := fmt.Errorf("enumerate %s: %w", root, err)
			s.finalize(ctx, record, media.ScanFailed, wrapped.Error())
			return record, wrapped
		}
		entries = append(entries, found...)
	}
	record.FilesFound = len(entries)

	var tally counters
	workers := pool.New().WithMaxGoroutines(s.cfg.Scan.Workers)
	for _, entry := range entries {
		entry := entry
		workers.Go(func() {
			if ctx.Err() != nil {
				return
			}
			s.processEntry(ctx, entry, scanType, &tally)
		})
	}
	workers.Wait()

	record.FilesNew = int(tally.created.Load())
	record.FilesUpdated = int(tally.updated.Load())
	record.ErrorCount = int(tally.failed.Load())

	if err := ctx.Err(); err != nil {
		s.finalize(ctx, record, media.ScanFailed, err.Error())
		return record, err
	}
	s.finalize(ctx, record, media.ScanCompleted, "")
	s.logger.Info("scan finished",
		logging.String(logging.FieldRunID, record.RunID),
		logging.Int("found", record.FilesFound),
		logging.Int("new", record.FilesNew),
		logging.Int("updated", record.FilesUpdated),
		logging.Int("skipped", int(tally.skipped.Load())),
		logging.Int("errors", record.ErrorCount),
		logging.Duration("elapsed", record.Duration))
	return record, nil
}

func (s *Scanner) processEntry(ctx context.Context, entry Entry, scanType media.ScanType, tally *counters) {
	existing, err := s.store.GetActiveFileByPath(ctx, entry.Path)
	if err != nil {
		tally.failed.Add(1)
		s.logger.Warn("lookup failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
		return
	}
	if scanType == media.ScanIncremental && existing != nil &&
		existing.Size == entry.Size && existing.ModTime.Equal(entry.ModTime.UTC()) {
		tally.skipped.Add(1)
		return
	}

	facts, err := s.extractor.Extract(ctx, entry.Path)
	if err != nil {
		tally.failed.Add(1)
		s.logger.Warn("fingerprint failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
		return
	}
	hash, err := probe.HashFile(entry.Path)
	if err != nil {
		tally.failed.Add(1)
		s.logger.Warn("hash failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
		return
	}

	file := &media.File{
		Path:         entry.Path,
		Size:         entry.Size,
		ModTime:      entry.ModTime.UTC(),
		ContentHash:  hash,
		Facts:        facts,
		Parsed:       titleparse.Parse(entry.Path),
		QualityScore: score.Score(facts),
	}

	if existing != nil {
		file.ID = existing.ID
		file.DiscoveredAt = existing.DiscoveredAt
		file.LastScannedAt = time.Now().UTC()
		if err := s.store.UpdateFile(ctx, file); err != nil {
			tally.failed.Add(1)
			s.logger.Warn("update failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
			return
		}
		tally.updated.Add(1)
		return
	}
	if err := s.store.InsertFile(ctx, file); err != nil {
		tally.failed.Add(1)
		s.logger.Warn("insert failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
		return
	}
	tally.created.Add(1)
	s.logger.Debug("file added",
		logging.Int64(logging.FieldFileID, file.ID),
		logging.String(logging.FieldPath, entry.Path),
		logging.Int("score", file.QualityScore))
}

// finalize closes out the history row. Uses a fresh context so a cancelled
// scan still gets its terminal state written.
func (s *Scanner) finalize(ctx context.Context, record *media.ScanRecord, status media.ScanStatus, detail string) {
	now := time.Now().UTC()
	record.CompletedAt = &now
	record.Duration = now.Sub(record.StartedAt)
	record.Status = status
	record.ErrorDetail = detail

	writeCtx := ctx
	if writeCtx.Err() != nil {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	if err := s.store.FinalizeScanRecord(writeCtx, record); err != nil {
		s.logger.Error("failed to finalize scan record",
			logging.String(logging.FieldRunID, record.RunID),
			logging.Error(err))
	}
}
