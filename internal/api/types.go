package api

// FileView describes an inventory file in a transport-friendly format.
type FileView struct {
	ID            int64    `json:"id"`
	Path          string   `json:"path"`
	Name          string   `json:"name"`
	Size          int64    `json:"size"`
	ContentHash   string   `json:"contentHash,omitempty"`
	Container     string   `json:"container,omitempty"`
	VideoCodec    string   `json:"videoCodec,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	BitrateKbps   int64    `json:"bitrateKbps,omitempty"`
	HDR           bool     `json:"hdr,omitempty"`
	AudioLangs    []string `json:"audioLanguages,omitempty"`
	SubtitleLangs []string `json:"subtitleLanguages,omitempty"`
	Title         string   `json:"title,omitempty"`
	Year          int      `json:"year,omitempty"`
	Season        int      `json:"season,omitempty"`
	Episode       int      `json:"episode,omitempty"`
	MediaType     string   `json:"mediaType"`
	QualityScore  int      `json:"qualityScore"`
	Deleted       bool     `json:"deleted,omitempty"`
	DiscoveredAt  string   `json:"discoveredAt,omitempty"`
	LastScannedAt string   `json:"lastScannedAt,omitempty"`
}

// MemberView joins a group member with its file summary.
type MemberView struct {
	FileID                int64     `json:"fileId"`
	Rank                  int       `json:"rank"`
	Action                string    `json:"action"`
	Reason                string    `json:"reason,omitempty"`
	LanguageConcern       bool      `json:"languageConcern,omitempty"`
	LanguageConcernReason string    `json:"languageConcernReason,omitempty"`
	File                  *FileView `json:"file,omitempty"`
}

// GroupView describes a duplicate group with its ranked members.
type GroupView struct {
	ID         int64        `json:"id"`
	Kind       string       `json:"kind"`
	Title      string       `json:"title,omitempty"`
	Year       int          `json:"year,omitempty"`
	Season     int          `json:"season,omitempty"`
	Episode    int          `json:"episode,omitempty"`
	MediaType  string       `json:"mediaType"`
	Confidence float64      `json:"confidence"`
	DetectedAt string       `json:"detectedAt,omitempty"`
	Dismissed  bool         `json:"dismissed,omitempty"`
	Members    []MemberView `json:"members,omitempty"`
}

// PendingView describes a staged deletion awaiting a decision.
type PendingView struct {
	ID                    int64  `json:"id"`
	FileID                int64  `json:"fileId"`
	OriginalPath          string `json:"originalPath"`
	QuarantinePath        string `json:"quarantinePath"`
	FileSize              int64  `json:"fileSize"`
	Reason                string `json:"reason,omitempty"`
	GroupID               int64  `json:"groupId,omitempty"`
	ScoreDelta            int    `json:"scoreDelta,omitempty"`
	LanguageConcern       bool   `json:"languageConcern,omitempty"`
	LanguageConcernReason string `json:"languageConcernReason,omitempty"`
	StagedAt              string `json:"stagedAt"`
	Approved              bool   `json:"approved"`
	ApprovedAt            string `json:"approvedAt,omitempty"`
}

// ScanView describes one scan run.
type ScanView struct {
	RunID        string   `json:"runId"`
	ScanType     string   `json:"scanType"`
	Paths        []string `json:"paths"`
	Status       string   `json:"status"`
	StartedAt    string   `json:"startedAt"`
	CompletedAt  string   `json:"completedAt,omitempty"`
	DurationMS   int64    `json:"durationMs"`
	FilesFound   int      `json:"filesFound"`
	FilesNew     int      `json:"filesNew"`
	FilesUpdated int      `json:"filesUpdated"`
	ErrorCount   int      `json:"errorCount"`
	ErrorDetail  string   `json:"errorDetail,omitempty"`
}

// DedupeView summarizes one deduplication run.
type DedupeView struct {
	FilesConsidered int `json:"filesConsidered"`
	ExactGroups     int `json:"exactGroups"`
	FuzzyGroups     int `json:"fuzzyGroups"`
	GroupsCreated   int `json:"groupsCreated"`
	GroupsKept      int `json:"groupsKept"`
	GroupsRemoved   int `json:"groupsRemoved"`
}

// PurgeView summarizes one purge pass.
type PurgeView struct {
	Purged     int   `json:"purged"`
	BytesFreed int64 `json:"bytesFreed"`
	Errors     int   `json:"errors"`
}

// StatsView gives a quick inventory overview.
type StatsView struct {
	Files        int64 `json:"files"`
	TotalBytes   int64 `json:"totalBytes"`
	ActiveGroups int   `json:"activeGroups"`
	Pending      int   `json:"pending"`
	Approved     int   `json:"approved"`
}

// DaemonStatusView reports daemon runtime state alongside inventory stats.
type DaemonStatusView struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid"`
	DatabasePath string    `json:"databasePath"`
	LockFilePath string    `json:"lockFilePath"`
	Stats        StatsView `json:"stats"`
}

// FileListResponse wraps file listings.
type FileListResponse struct {
	Files []FileView `json:"files"`
}

// GroupListResponse wraps group listings.
type GroupListResponse struct {
	Groups []GroupView `json:"groups"`
}

// PendingListResponse wraps pending-deletion listings.
type PendingListResponse struct {
	Pending []PendingView `json:"pending"`
}

// HistoryResponse wraps scan history listings.
type HistoryResponse struct {
	Scans []ScanView `json:"scans"`
}
