package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/internal/lsh"
)

// fileEntry is one collected file's read state before indexing.
type fileEntry struct {
	path   string
	tokens []string
	err    error
}

// DedupServiceImpl implements the DedupService interface
type DedupServiceImpl struct {
	fileReader domain.FileReader
	progress   domain.ProgressManager
	runner     domain.TaskRunner
}

// NewDedupService creates a new near-duplicate detection service
func NewDedupService(fileReader domain.FileReader, progress domain.ProgressManager, runner domain.TaskRunner) *DedupServiceImpl {
	return &DedupServiceImpl{
		fileReader: fileReader,
		progress:   progress,
		runner:     runner,
	}
}

// DetectDuplicates indexes the requested files and reports candidate
// near-duplicates and their groups
func (s *DedupServiceImpl) DetectDuplicates(ctx context.Context, req *domain.DedupRequest) (*domain.DedupResponse, error) {
	if ctx == nil {
		return nil, domain.NewInvalidInputError("context cannot be nil", nil)
	}
	if req == nil {
		return nil, domain.NewInvalidInputError("dedup request cannot be nil", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewInvalidInputError("invalid dedup request", err)
	}

	files, err := s.fileReader.CollectFiles(req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no files found in the specified paths", nil)
	}

	return s.DetectDuplicatesInFiles(ctx, files, req)
}

// DetectDuplicatesInFiles runs detection on an explicit file list. Files are
// indexed in list order, so document ids are stable across runs.
func (s *DedupServiceImpl) DetectDuplicatesInFiles(ctx context.Context, filePaths []string, req *domain.DedupRequest) (*domain.DedupResponse, error) {
	if ctx == nil {
		return nil, domain.NewInvalidInputError("context cannot be nil", nil)
	}
	if req == nil {
		return nil, domain.NewInvalidInputError("dedup request cannot be nil", nil)
	}
	if len(filePaths) == 0 {
		return nil, domain.NewInvalidInputError("file list cannot be empty", nil)
	}

	reqCopy := *req
	if len(reqCopy.Paths) == 0 {
		reqCopy.Paths = filePaths
	}
	if err := reqCopy.Validate(); err != nil {
		return nil, domain.NewInvalidInputError("invalid dedup request", err)
	}

	startTime := time.Now()

	cache, err := lsh.NewCache(lsh.Config{
		Bands:           req.Bands,
		RowsPerBand:     req.RowsPerBand,
		NumHashes:       req.NumHashes,
		ShingleLen:      req.ShingleLen,
		MinShingle:      req.MinShingle,
		MaxShingle:      req.MaxShingle,
		HashFamily:      req.HashFamily,
		UniverseSize:    req.UniverseSize,
		Seed:            req.Seed,
		TrackDuplicates: true,
	})
	if err != nil {
		return nil, domain.NewConfigError("failed to build LSH cache", err)
	}

	entries, err := s.readFiles(ctx, filePaths)
	if err != nil {
		return nil, err
	}

	progress := s.progress
	if progress == nil || !req.ShowProgress {
		progress = NewNoOpProgressManager()
	}
	progress.Initialize(len(entries))
	progress.Start()
	defer progress.Close()

	// Index files in path order. Document ids are assigned sequentially, so
	// the id doubles as an index into insertedFile.
	var (
		insertedFile []int
		dupsPerDoc   [][]lsh.DocID
		skipped      int
	)
	for i := range entries {
		select {
		case <-ctx.Done():
			progress.Complete(false)
			return nil, domain.NewAnalysisError("duplicate detection cancelled", ctx.Err())
		default:
		}

		e := &entries[i]
		switch {
		case e.err != nil:
			fmt.Fprintf(os.Stderr, "Warning: failed to read file %s: %v\n", e.path, e.err)
			skipped++
		case len(e.tokens) < req.MinTokens:
			skipped++
		default:
			_, dups := cache.Insert(e.tokens)
			insertedFile = append(insertedFile, i)
			dupsPerDoc = append(dupsPerDoc, dups)
		}
		progress.Update(i+1, len(entries))
	}
	progress.Complete(true)

	matches, groups := buildMatchesAndGroups(entries, insertedFile, dupsPerDoc, req.SortBy)

	largest := 0
	for _, g := range groups {
		if g.Size > largest {
			largest = g.Size
		}
	}

	stats := cache.Stats()
	return &domain.DedupResponse{
		Matches: matches,
		Groups:  groups,
		Summary: domain.DedupSummary{
			TotalFiles:          len(entries),
			SkippedFiles:        skipped,
			FilesWithDuplicates: len(matches),
			TotalGroups:         len(groups),
			LargestGroupSize:    largest,
			IndexStats: domain.IndexStats{
				Bands:            stats.Bands,
				RowsPerBand:      stats.RowsPerBand,
				NumBuckets:       stats.NumBuckets,
				MinBucketSize:    stats.MinBucketSize,
				MaxBucketSize:    stats.MaxBucketSize,
				AvgBucketSize:    stats.AvgBucketSize,
				MedianBucketSize: stats.MedianBucketSize,
			},
		},
		Duration:    time.Since(startTime).Milliseconds(),
		GeneratedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// readFiles reads and tokenizes every file, in parallel when a task runner
// is available. Per-file read errors are recorded on the entry rather than
// failing the run.
func (s *DedupServiceImpl) readFiles(ctx context.Context, filePaths []string) ([]fileEntry, error) {
	entries := make([]fileEntry, len(filePaths))

	readFile := func(i int) {
		entries[i].path = filePaths[i]
		content, err := s.fileReader.ReadFile(filePaths[i])
		if err != nil {
			entries[i].err = err
			return
		}
		entries[i].tokens = strings.Fields(string(content))
	}

	if s.runner == nil || len(filePaths) < 2 {
		for i := range filePaths {
			readFile(i)
		}
		return entries, nil
	}

	tasks := make([]domain.Task, len(filePaths))
	for i := range filePaths {
		i := i
		tasks[i] = NewFuncTask(filePaths[i], func(ctx context.Context) error {
			readFile(i)
			return nil
		})
	}
	// Tasks record their own failures, so a runner error means cancellation.
	if err := s.runner.Run(ctx, tasks); err != nil {
		return nil, domain.NewAnalysisError("duplicate detection cancelled", err)
	}
	return entries, nil
}

// buildMatchesAndGroups turns the per-document candidate lists into the
// symmetric per-file match list and the connected groups.
func buildMatchesAndGroups(entries []fileEntry, insertedFile []int, dupsPerDoc [][]lsh.DocID, sortBy domain.SortCriteria) ([]domain.DuplicateMatch, []domain.DuplicateGroup) {
	n := len(insertedFile)
	matchLists := make([][]int, n)
	uf := newUnionFind(n)

	for j, dups := range dupsPerDoc {
		for _, d := range dups {
			i := int(d)
			matchLists[j] = append(matchLists[j], i)
			matchLists[i] = append(matchLists[i], j)
			uf.union(i, j)
		}
	}

	var matches []domain.DuplicateMatch
	for d := 0; d < n; d++ {
		if len(matchLists[d]) == 0 {
			continue
		}
		sort.Ints(matchLists[d])
		refs := make([]domain.DuplicateRef, len(matchLists[d]))
		for k, o := range matchLists[d] {
			refs[k] = domain.DuplicateRef{
				Path:  entries[insertedFile[o]].path,
				DocID: o,
			}
		}
		matches = append(matches, domain.DuplicateMatch{
			Path:       entries[insertedFile[d]].path,
			DocID:      d,
			TokenCount: len(entries[insertedFile[d]].tokens),
			Duplicates: refs,
		})
	}
	sortDuplicateMatches(matches, sortBy)

	components := make(map[int][]int)
	for d := 0; d < n; d++ {
		root := uf.find(d)
		components[root] = append(components[root], d)
	}

	var groups []domain.DuplicateGroup
	for _, member := range components {
		if len(member) < 2 {
			continue
		}
		paths := make([]string, len(member))
		for k, d := range member {
			paths[k] = entries[insertedFile[d]].path
		}
		sort.Strings(paths)
		groups = append(groups, domain.DuplicateGroup{
			Paths: paths,
			Size:  len(paths),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Paths[0] < groups[j].Paths[0]
	})
	for i := range groups {
		groups[i].ID = i + 1
	}

	return matches, groups
}

// sortDuplicateMatches orders matches by the requested criteria, with the
// file path as the tie breaker.
func sortDuplicateMatches(matches []domain.DuplicateMatch, sortBy domain.SortCriteria) {
	switch sortBy {
	case domain.SortBySize:
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].TokenCount != matches[j].TokenCount {
				return matches[i].TokenCount > matches[j].TokenCount
			}
			return matches[i].Path < matches[j].Path
		})
	case domain.SortByMatches:
		sort.SliceStable(matches, func(i, j int) bool {
			if len(matches[i].Duplicates) != len(matches[j].Duplicates) {
				return len(matches[i].Duplicates) > len(matches[j].Duplicates)
			}
			return matches[i].Path < matches[j].Path
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Path < matches[j].Path
		})
	}
}

// unionFind is a minimal disjoint-set over document ids.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
