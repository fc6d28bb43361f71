// Package staging implements the reversible deletion workflow. A staged file
// is moved into quarantine with a pending-deletion row pointing back at its
// original path; from there it is either restored, or approved and later
// purged by the cleanup job. Bytes are only ever destroyed for approved rows.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mediavault/internal/config"
	"mediavault/internal/dedupe"
	"mediavault/internal/faults"
	"mediavault/internal/fileutil"
	"mediavault/internal/logging"
	"mediavault/internal/media"
	"mediavault/internal/store"
)

const datePartition = "2006-01-02"

// Manager drives the staged-deletion state machine.
type Manager struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a Manager over the given store and configuration.
func New(st *store.Store, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:  st,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "staging"),
	}
}

// Stage moves a file into quarantine and records the pending deletion. The
// move happens first; if the row cannot be written afterwards the file is
// moved back, so a failed staging leaves no trace.
func (m *Manager) Stage(ctx context.Context, fileID int64, reason string, groupID int64) (*media.PendingDeletion, error) {
	file, err := m.store.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "staging", "stage", fmt.Sprintf("file %d does not exist", fileID), nil)
	}
	if file.Deleted {
		return nil, faults.Wrap(faults.ErrValidation, "staging", "stage", "file is already deleted", nil)
	}
	existing, err := m.store.GetPendingByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, faults.Wrap(faults.ErrStagingConflict, "staging", "stage", "file is already staged for deletion", nil)
	}

	quarantinePath, err := m.quarantineTarget(file)
	if err != nil {
		return nil, err
	}
	if err := fileutil.MoveFile(file.Path, quarantinePath); err != nil {
		return nil, faults.Wrap(faults.ErrMoveFailure, "staging", "stage", "could not move file into quarantine", err)
	}

	pending := &media.PendingDeletion{
		FileID:         file.ID,
		OriginalPath:   file.Path,
		QuarantinePath: quarantinePath,
		FileSize:       file.Size,
		Reason:         reason,
		GroupID:        groupID,
		ScoreDelta:     m.scoreDelta(ctx, file, groupID),
		StagedAt:       time.Now().UTC(),
	}
	pending.LanguageConcern, pending.LanguageConcernReason =
		dedupe.LanguageConcern(file, m.cfg.Dedupe.EnglishAudioGuard)

	if err := m.store.InsertPending(ctx, pending); err != nil {
		if moveBack := fileutil.MoveFile(quarantinePath, file.Path); moveBack != nil {
			m.logger.Error("failed to undo quarantine move",
				logging.String(logging.FieldPath, file.Path),
				logging.Error(moveBack))
		}
		return nil, fmt.Errorf("record pending deletion: %w", err)
	}

	m.logger.Info("file staged for deletion",
		logging.Int64(logging.FieldFileID, file.ID),
		logging.String(logging.FieldPath, file.Path),
		logging.String("quarantine", quarantinePath))
	return pending, nil
}

// Restore moves a staged file back to its original path and removes the
// pending row. Approved rows cannot be restored.
func (m *Manager) Restore(ctx context.Context, pendingID int64) error {
	pending, err := m.store.GetPendingByID(ctx, pendingID)
	if err != nil {
		return err
	}
	if pending == nil {
		return faults.Wrap(faults.ErrNotFound, "staging", "restore", fmt.Sprintf("pending deletion %d does not exist", pendingID), nil)
	}
	if pending.Approved {
		return faults.Wrap(faults.ErrValidation, "staging", "restore", "deletion is already approved; restore is no longer available", nil)
	}
	if _, statErr := os.Stat(pending.OriginalPath); statErr == nil {
		return faults.Wrap(faults.ErrStagingConflict, "staging", "restore", "original path is occupied by another file", nil)
	}
	if err := fileutil.MoveFile(pending.QuarantinePath, pending.OriginalPath); err != nil {
		return faults.Wrap(faults.ErrMoveFailure, "staging", "restore", "could not move file back from quarantine", err)
	}
	if err := m.store.MarkFileRestored(ctx, pending.FileID); err != nil {
		return err
	}
	if err := m.store.DeletePending(ctx, pending.ID); err != nil {
		return err
	}
	m.logger.Info("file restored from quarantine",
		logging.Int64(logging.FieldFileID, pending.FileID),
		logging.String(logging.FieldPath, pending.OriginalPath))
	return nil
}

// Approve marks a staged deletion as eligible for the purge job. It never
// touches bytes itself.
func (m *Manager) Approve(ctx context.Context, pendingID int64) error {
	if err := m.store.ApprovePending(ctx, pendingID, time.Now().UTC()); err != nil {
		return faults.Wrap(faults.ErrValidation, "staging", "approve", err.Error(), nil)
	}
	m.logger.Info("pending deletion approved", logging.Int64("pending_id", pendingID))
	return nil
}

// PurgeSummary reports the outcome of one purge pass.
type PurgeSummary struct {
	Purged     int
	BytesFreed int64
	Errors     int
}

// PurgeApproved permanently removes quarantined bytes for approved rows,
// soft-deletes the inventory records, and drops the pending rows. Unapproved
// rows are never considered, regardless of age.
func (m *Manager) PurgeApproved(ctx context.Context) (*PurgeSummary, error) {
	approved, err := m.store.ListPending(ctx, store.PendingFilter{ApprovedOnly: true})
	if err != nil {
		return nil, err
	}
	summary := &PurgeSummary{}
	for _, pending := range approved {
		if err := m.purgeOne(ctx, pending); err != nil {
			summary.Errors++
			m.logger.Error("purge failed",
				logging.Int64(logging.FieldFileID, pending.FileID),
				logging.Error(err))
			continue
		}
		summary.Purged++
		summary.BytesFreed += pending.FileSize
	}
	if summary.Purged > 0 || summary.Errors > 0 {
		m.logger.Info("purge pass finished",
			logging.Int("purged", summary.Purged),
			logging.Int("errors", summary.Errors),
			logging.Int64("bytes_freed", summary.BytesFreed))
	}
	return summary, nil
}

func (m *Manager) purgeOne(ctx context.Context, pending *media.PendingDeletion) error {
	if !pending.Approved {
		return faults.Wrap(faults.ErrInvariant, "staging", "purge", "refusing to purge an unapproved deletion", nil)
	}
	if err := os.Remove(pending.QuarantinePath); err != nil && !os.IsNotExist(err) {
		return faults.Wrap(faults.ErrMoveFailure, "staging", "purge", "could not remove quarantined file", err)
	}
	if err := m.store.MarkFileDeleted(ctx, pending.FileID, time.Now().UTC()); err != nil {
		return err
	}
	return m.store.DeletePending(ctx, pending.ID)
}

// ExpireStale restores unapproved rows that have sat in quarantine longer
// than the configured expiry. A zero expiry disables the sweep. Bytes are
// never deleted here; expiry always errs on the side of giving files back.
func (m *Manager) ExpireStale(ctx context.Context) (int, error) {
	if m.cfg.Staging.ExpiryDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -m.cfg.Staging.ExpiryDays)
	stale, err := m.store.ListPending(ctx, store.PendingFilter{StagedOnly: true, StagedBefore: cutoff})
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, pending := range stale {
		if err := m.Restore(ctx, pending.ID); err != nil {
			m.logger.Warn("could not restore expired staging",
				logging.Int64(logging.FieldFileID, pending.FileID),
				logging.Error(err))
			continue
		}
		restored++
	}
	return restored, nil
}

// quarantineTarget builds the quarantine destination for a file, partitioned
// by media type and staging date, with a numeric suffix on name collisions.
func (m *Manager) quarantineTarget(file *media.File) (string, error) {
	mediaType := file.Parsed.MediaType
	if mediaType == "" {
		mediaType = media.TypeUnknown
	}
	target := filepath.Join(
		m.cfg.Paths.QuarantineDir,
		string(mediaType),
		time.Now().UTC().Format(datePartition),
		file.Name(),
	)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", faults.Wrap(faults.ErrMoveFailure, "staging", "stage", "could not create quarantine directory", err)
	}
	unique, err := fileutil.UniquePath(target)
	if err != nil {
		return "", faults.Wrap(faults.ErrMoveFailure, "staging", "stage", "could not pick quarantine path", err)
	}
	return unique, nil
}

// scoreDelta reports how far the file's score trails the group keeper, when
// the staging came out of a duplicate group.
func (m *Manager) scoreDelta(ctx context.Context, file *media.File, groupID int64) int {
	if groupID == 0 {
		return 0
	}
	members, err := m.store.ListMembers(ctx, groupID)
	if err != nil || len(members) == 0 {
		return 0
	}
	keeper, err := m.store.GetFileByID(ctx, members[0].FileID)
	if err != nil || keeper == nil {
		return 0
	}
	return keeper.QualityScore - file.QualityScore
}
