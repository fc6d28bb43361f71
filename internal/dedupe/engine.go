package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"mediavault/internal/config"
	"mediavault/internal/logging"
	"mediavault/internal/media"
	"mediavault/internal/store"
)

// Engine finds duplicate groups across the active inventory and reconciles
// them with what the store already holds.
type Engine struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an Engine bound to the given store and configuration.
func New(st *store.Store, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:  st,
		cfg:    cfg,
		logger: logging.WithComponent(logger, "dedupe"),
	}
}

// Summary reports the outcome of one deduplication run.
type Summary struct {
	FilesConsidered int
	ExactGroups     int
	FuzzyGroups     int
	GroupsCreated   int
	GroupsKept      int
	GroupsRemoved   int
}

type cluster struct {
	files      []*media.File
	kind       media.GroupKind
	confidence float64
}

// Run executes the exact and fuzzy passes and reconciles the results.
//
// Reconciliation is keyed by a membership signature: groups whose membership
// is unchanged are left alone, groups the operator dismissed are never
// recreated, and active groups whose membership no longer holds are removed
// before their replacements are inserted.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	files, err := e.store.ListActiveFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active files: %w", err)
	}

	summary := &Summary{FilesConsidered: len(files)}
	clusters := e.exactClusters(files)
	summary.ExactGroups = len(clusters)

	grouped := make(map[int64]bool)
	for _, c := range clusters {
		for _, f := range c.files {
			grouped[f.ID] = true
		}
	}
	var remainder []*media.File
	for _, f := range files {
		if !grouped[f.ID] {
			remainder = append(remainder, f)
		}
	}
	fuzzy := e.fuzzyClusters(remainder)
	summary.FuzzyGroups = len(fuzzy)
	clusters = append(clusters, fuzzy...)

	active, dismissed, err := e.store.GroupSignatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load group signatures: %w", err)
	}

	seen := make(map[string]bool)
	for _, c := range clusters {
		sig := membershipSignature(c.files)
		seen[sig] = true
		if _, ok := dismissed[sig]; ok {
			continue
		}
		if _, ok := active[sig]; ok {
			summary.GroupsKept++
			continue
		}
		if err := e.createGroup(ctx, c, sig); err != nil {
			return nil, err
		}
		summary.GroupsCreated++
	}

	for sig, id := range active {
		if seen[sig] {
			continue
		}
		if err := e.store.DeleteGroup(ctx, id); err != nil {
			return nil, fmt.Errorf("remove stale group %d: %w", id, err)
		}
		summary.GroupsRemoved++
		e.logger.Debug("removed stale duplicate group", logging.Int64(logging.FieldGroupID, id))
	}

	e.logger.Info("deduplication finished",
		logging.Int("files", summary.FilesConsidered),
		logging.Int("exact", summary.ExactGroups),
		logging.Int("fuzzy", summary.FuzzyGroups),
		logging.Int("created", summary.GroupsCreated),
		logging.Int("removed", summary.GroupsRemoved),
		logging.Duration("elapsed", time.Since(started)))
	return summary, nil
}

func (e *Engine) createGroup(ctx context.Context, c cluster, signature string) error {
	members := rankMembers(c.files, e.cfg.Dedupe.EnglishAudioGuard)
	keeper := c.files[0]
	for _, f := range c.files {
		if f.ID == members[0].FileID {
			keeper = f
			break
		}
	}
	group := &media.Group{
		Signature:  signature,
		Kind:       c.kind,
		Title:      keeper.Parsed.Title,
		Year:       keeper.Parsed.Year,
		Season:     keeper.Parsed.Season,
		Episode:    keeper.Parsed.Episode,
		MediaType:  keeper.Parsed.MediaType,
		Confidence: c.confidence,
		DetectedAt: time.Now().UTC(),
	}
	if err := e.store.InsertGroup(ctx, group, members); err != nil {
		return fmt.Errorf("insert %s group for %q: %w", c.kind, keeper.Name(), err)
	}
	e.logger.Info("duplicate group created",
		logging.Int64(logging.FieldGroupID, group.ID),
		logging.String("kind", string(c.kind)),
		logging.String("title", group.Title),
		logging.Int("members", len(members)),
		logging.Float64("confidence", c.confidence))
	return nil
}

// exactClusters groups files that share a content hash.
func (e *Engine) exactClusters(files []*media.File) []cluster {
	byHash := make(map[string][]*media.File)
	for _, f := range files {
		if f.ContentHash == "" {
			continue
		}
		byHash[f.ContentHash] = append(byHash[f.ContentHash], f)
	}
	hashes := make([]string, 0, len(byHash))
	for hash, group := range byHash {
		if len(group) >= 2 {
			hashes = append(hashes, hash)
		}
	}
	sort.Strings(hashes)
	clusters := make([]cluster, 0, len(hashes))
	for _, hash := range hashes {
		clusters = append(clusters, cluster{
			files:      byHash[hash],
			kind:       media.KindExact,
			confidence: 1,
		})
	}
	return clusters
}

type candidate struct {
	file  *media.File
	title string
}

// fuzzyClusters merges pairwise title matches into connected components.
// Pairwise similarity is not transitive, so a component may contain pairs
// below the threshold; the component confidence is the weakest pair that
// justified an inclusion, as a conservative estimate.
func (e *Engine) fuzzyClusters(files []*media.File) []cluster {
	var candidates []candidate
	for _, f := range files {
		title := NormalizeTitle(f.Parsed.Title)
		if title == "" {
			continue
		}
		candidates = append(candidates, candidate{file: f, title: title})
	}

	uf := newUnionFind(len(candidates))
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if sim, ok := e.matchPair(candidates[i], candidates[j]); ok {
				uf.union(i, j, sim)
			}
		}
	}

	byRoot := make(map[int][]*media.File)
	var roots []int
	for i := range candidates {
		root := uf.find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], candidates[i].file)
	}

	var clusters []cluster
	for _, root := range roots {
		group := byRoot[root]
		if len(group) < 2 {
			continue
		}
		clusters = append(clusters, cluster{
			files:      group,
			kind:       media.KindFuzzy,
			confidence: uf.confidence[root],
		})
	}
	return clusters
}

// matchPair decides whether two files plausibly represent the same title.
func (e *Engine) matchPair(a, b candidate) (float64, bool) {
	pa, pb := a.file.Parsed, b.file.Parsed
	if pa.Episodic() != pb.Episodic() {
		return 0, false
	}
	if pa.MediaType != media.TypeUnknown && pb.MediaType != media.TypeUnknown && pa.MediaType != pb.MediaType {
		return 0, false
	}
	if pa.Episodic() {
		if pa.Season != pb.Season || pa.Episode != pb.Episode {
			return 0, false
		}
	} else if pa.Year != 0 && pb.Year != 0 && pa.Year != pb.Year {
		return 0, false
	}
	sim := TokenSortRatio(a.title, b.title)
	if sim < e.cfg.Dedupe.FuzzyThreshold {
		return 0, false
	}
	return sim, true
}

// membershipSignature derives a stable identity for a set of files. The same
// membership always yields the same signature regardless of discovery order.
func membershipSignature(files []*media.File) string {
	ids := make([]int64, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

type unionFind struct {
	parent     []int
	confidence []float64
}

func newUnionFind(size int) *unionFind {
	uf := &unionFind{
		parent:     make([]int, size),
		confidence: make([]float64, size),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.confidence[i] = 1
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int, similarity float64) {
	ri, rj := u.find(i), u.find(j)
	merged := similarity
	if u.confidence[ri] < merged {
		merged = u.confidence[ri]
	}
	if u.confidence[rj] < merged {
		merged = u.confidence[rj]
	}
	if ri != rj {
		u.parent[rj] = ri
	}
	u.confidence[ri] = merged
}
