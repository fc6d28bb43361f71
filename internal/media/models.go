package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Type classifies a file by the kind of content it represents.
type Type string

const (
	TypeMovie   Type = "movie"
	TypeTV      Type = "tv"
	TypeUnknown Type = "unknown"
)

// ParseType converts a string into a known media Type.
func ParseType(value string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeMovie:
		return TypeMovie
	case TypeTV:
		return TypeTV
	default:
		return TypeUnknown
	}
}

// GroupKind distinguishes how a duplicate group was detected.
type GroupKind string

const (
	KindExact GroupKind = "exact"
	KindFuzzy GroupKind = "fuzzy"
)

// MemberAction is the recommended disposition for a group member.
type MemberAction string

const (
	ActionKeep   MemberAction = "keep"
	ActionReview MemberAction = "review"
)

// Facts holds the container and stream properties reported by the fingerprint
// extractor for one file. Absent values stay at their zero value; consumers
// treat zero as unknown.
type Facts struct {
	Container          string
	VideoCodec         string
	Width              int
	Height             int
	BitrateKbps        int64
	FrameRate          float64
	DurationSeconds    float64
	AudioChannels      int
	AudioTrackCount    int
	SubtitleTrackCount int
	HDR                bool
	AudioLanguages     []string
	SubtitleLanguages  []string
}

// ParsedName is the title parser's best guess for a release filename.
type ParsedName struct {
	Title        string
	Year         int
	Season       int
	Episode      int
	ReleaseGroup string
	MediaType    Type
}

// Episodic reports whether the guess carries season/episode numbering.
func (p ParsedName) Episodic() bool {
	return p.Season > 0 && p.Episode > 0
}

// File is one physical media file tracked in the inventory.
type File struct {
	ID          int64
	Path        string
	Size        int64
	ModTime     time.Time
	ContentHash string

	Facts  Facts
	Parsed ParsedName

	QualityScore  int
	DiscoveredAt  time.Time
	LastScannedAt time.Time

	Deleted   bool
	DeletedAt *time.Time
}

// Name returns the file's base name for display.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// HasAudioLanguage reports whether any audio track carries the given
// normalized (ISO 639-1) language code.
func (f *File) HasAudioLanguage(code string) bool {
	for _, lang := range f.Facts.AudioLanguages {
		if strings.EqualFold(lang, code) {
			return true
		}
	}
	return false
}

// HasSubtitleLanguage reports whether any subtitle track carries the given
// normalized language code.
func (f *File) HasSubtitleLanguage(code string) bool {
	for _, lang := range f.Facts.SubtitleLanguages {
		if strings.EqualFold(lang, code) {
			return true
		}
	}
	return false
}

// Group is a cluster of files believed to represent the same title.
type Group struct {
	ID         int64
	Signature  string
	Kind       GroupKind
	Title      string
	Year       int
	Season     int
	Episode    int
	MediaType  Type
	Confidence float64
	DetectedAt time.Time

	Dismissed   bool
	DismissedAt *time.Time
}

// Member joins a file to a duplicate group with its computed disposition.
type Member struct {
	ID      int64
	GroupID int64
	FileID  int64
	Rank    int
	Action  MemberAction
	Reason  string

	LanguageConcern       bool
	LanguageConcernReason string
}

// PendingDeletion is a staged, reversible deletion awaiting operator approval.
type PendingDeletion struct {
	ID             int64
	FileID         int64
	OriginalPath   string
	QuarantinePath string
	FileSize       int64
	Reason         string

	GroupID    int64 // 0 when staged outside a duplicate group
	ScoreDelta int

	LanguageConcern       bool
	LanguageConcernReason string

	StagedAt   time.Time
	Approved   bool
	ApprovedAt *time.Time
}

// ScanType selects between a full rescan and an incremental pass.
type ScanType string

const (
	ScanFull        ScanType = "full"
	ScanIncremental ScanType = "incremental"
)

// ParseScanType converts a string into a known ScanType.
func ParseScanType(value string) (ScanType, bool) {
	switch ScanType(strings.ToLower(strings.TrimSpace(value))) {
	case ScanFull:
		return ScanFull, true
	case ScanIncremental:
		return ScanIncremental, true
	}
	return "", false
}

// ScanStatus is the terminal state of a scan run.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanRecord is the append-only audit row for one scan run.
type ScanRecord struct {
	ID          int64
	RunID       string
	ScanType    ScanType
	Paths       []string
	StartedAt   time.Time
	CompletedAt *time.Time
	Duration    time.Duration

	FilesFound   int
	FilesNew     int
	FilesUpdated int
	ErrorCount   int

	Status      ScanStatus
	ErrorDetail string
}
