package api

import (
	"context"
	"fmt"
	"time"

	"mediavault/internal/dedupe"
	"mediavault/internal/faults"
	"mediavault/internal/media"
	"mediavault/internal/scanner"
	"mediavault/internal/staging"
	"mediavault/internal/store"
)

// Service exposes the inventory operations serving both the HTTP API and the
// CLI, returning transport-friendly views.
type Service struct {
	store   *store.Store
	scanner *scanner.Scanner
	engine  *dedupe.Engine
	staging *staging.Manager
}

// NewService wires the service over its collaborators.
func NewService(st *store.Store, sc *scanner.Scanner, engine *dedupe.Engine, mgr *staging.Manager) *Service {
	return &Service{
		store:   st,
		scanner: sc,
		engine:  engine,
		staging: mgr,
	}
}

// Scan runs one scan over the given roots.
func (s *Service) Scan(ctx context.Context, roots []string, scanType media.ScanType) (ScanView, error) {
	record, err := s.scanner.Run(ctx, roots, scanType)
	if record == nil && err != nil {
		return ScanView{}, err
	}
	return FromScanRecord(record), err
}

// Deduplicate runs the duplicate engine over the active inventory.
func (s *Service) Deduplicate(ctx context.Context) (DedupeView, error) {
	summary, err := s.engine.Run(ctx)
	if err != nil {
		return DedupeView{}, err
	}
	return DedupeView{
		FilesConsidered: summary.FilesConsidered,
		ExactGroups:     summary.ExactGroups,
		FuzzyGroups:     summary.FuzzyGroups,
		GroupsCreated:   summary.GroupsCreated,
		GroupsKept:      summary.GroupsKept,
		GroupsRemoved:   summary.GroupsRemoved,
	}, nil
}

// ListFiles returns inventory files, optionally filtered by media type.
func (s *Service) ListFiles(ctx context.Context, filter store.FileFilter) ([]FileView, error) {
	files, err := s.store.ListFiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromFiles(files), nil
}

// GetFile fetches a single file.
func (s *Service) GetFile(ctx context.Context, id int64) (FileView, error) {
	file, err := s.store.GetFileByID(ctx, id)
	if err != nil {
		return FileView{}, err
	}
	if file == nil {
		return FileView{}, faults.Wrap(faults.ErrNotFound, "api", "get file", fmt.Sprintf("file %d does not exist", id), nil)
	}
	return FromFile(file), nil
}

// ListGroups returns duplicate groups with ranked members and file details.
func (s *Service) ListGroups(ctx context.Context, includeDismissed bool) ([]GroupView, error) {
	groups, err := s.store.ListGroups(ctx, includeDismissed)
	if err != nil {
		return nil, err
	}
	views := make([]GroupView, 0, len(groups))
	for _, group := range groups {
		view, err := s.groupView(ctx, group)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetGroup fetches one duplicate group with members.
func (s *Service) GetGroup(ctx context.Context, id int64) (GroupView, error) {
	group, err := s.store.GetGroupByID(ctx, id)
	if err != nil {
		return GroupView{}, err
	}
	if group == nil {
		return GroupView{}, faults.Wrap(faults.ErrNotFound, "api", "get group", fmt.Sprintf("group %d does not exist", id), nil)
	}
	return s.groupView(ctx, group)
}

func (s *Service) groupView(ctx context.Context, group *media.Group) (GroupView, error) {
	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return GroupView{}, err
	}
	ids := make([]int64, len(members))
	for i, member := range members {
		ids[i] = member.FileID
	}
	files, err := s.store.FilesByIDs(ctx, ids)
	if err != nil {
		return GroupView{}, err
	}
	return FromGroup(group, members, files), nil
}

// DismissGroup hides a group from future runs without touching its files.
func (s *Service) DismissGroup(ctx context.Context, id int64) error {
	if err := s.store.DismissGroup(ctx, id, time.Now().UTC()); err != nil {
		return faults.Wrap(faults.ErrValidation, "api", "dismiss group", err.Error(), nil)
	}
	return nil
}

// SetKeeper marks the given file as a group's keeper.
func (s *Service) SetKeeper(ctx context.Context, groupID, fileID int64) error {
	group, err := s.store.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return faults.Wrap(faults.ErrNotFound, "api", "set keeper", fmt.Sprintf("group %d does not exist", groupID), nil)
	}
	if err := s.store.SetGroupKeeper(ctx, groupID, fileID); err != nil {
		return faults.Wrap(faults.ErrValidation, "api", "set keeper", err.Error(), nil)
	}
	return nil
}

// Stage moves a file into quarantine pending deletion.
func (s *Service) Stage(ctx context.Context, fileID int64, reason string, groupID int64) (PendingView, error) {
	pending, err := s.staging.Stage(ctx, fileID, reason, groupID)
	if err != nil {
		return PendingView{}, err
	}
	return FromPending(pending), nil
}

// ListPending returns staged deletions, optionally only approved ones.
func (s *Service) ListPending(ctx context.Context, approvedOnly bool) ([]PendingView, error) {
	rows, err := s.store.ListPending(ctx, store.PendingFilter{ApprovedOnly: approvedOnly})
	if err != nil {
		return nil, err
	}
	views := make([]PendingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, FromPending(row))
	}
	return views, nil
}

// Restore returns a staged file to its original path.
func (s *Service) Restore(ctx context.Context, pendingID int64) error {
	return s.staging.Restore(ctx, pendingID)
}

// Approve flags a staged deletion for the purge job.
func (s *Service) Approve(ctx context.Context, pendingID int64) error {
	return s.staging.Approve(ctx, pendingID)
}

// ExpireStale restores staged rows older than the configured retention
// window and returns the number of rows restored.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	return s.staging.ExpireStale(ctx)
}

// PurgeApproved permanently removes approved deletions.
func (s *Service) PurgeApproved(ctx context.Context) (PurgeView, error) {
	summary, err := s.staging.PurgeApproved(ctx)
	if err != nil {
		return PurgeView{}, err
	}
	return PurgeView{
		Purged:     summary.Purged,
		BytesFreed: summary.BytesFreed,
		Errors:     summary.Errors,
	}, nil
}

// History returns recent scan runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]ScanView, error) {
	records, err := s.store.ListScanHistory(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]ScanView, 0, len(records))
	for _, record := range records {
		views = append(views, FromScanRecord(record))
	}
	return views, nil
}

// Stats summarizes the current inventory.
func (s *Service) Stats(ctx context.Context) (StatsView, error) {
	count, totalSize, err := s.store.CountFiles(ctx)
	if err != nil {
		return StatsView{}, err
	}
	groups, err := s.store.ListGroups(ctx, false)
	if err != nil {
		return StatsView{}, err
	}
	pending, err := s.store.ListPending(ctx, store.PendingFilter{})
	if err != nil {
		return StatsView{}, err
	}
	stats := StatsView{
		Files:        count,
		TotalBytes:   totalSize,
		ActiveGroups: len(groups),
		Pending:      len(pending),
	}
	for _, row := range pending {
		if row.Approved {
			stats.Approved++
		}
	}
	return stats, nil
}
