package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/internal/lsh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDedupService() *DedupServiceImpl {
	return NewDedupService(NewFileReader(), nil, nil)
}

func newDedupRequest(paths ...string) *domain.DedupRequest {
	req := domain.DefaultDedupRequest()
	req.Paths = paths
	return req
}

func TestDetectDuplicatesInFiles_FindsIdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	pathC := filepath.Join(dir, "c.txt")
	writeTestFile(t, pathA, "alpha beta gamma delta epsilon")
	writeTestFile(t, pathB, "alpha beta gamma delta epsilon")
	writeTestFile(t, pathC, "one two three four five six")

	service := newTestDedupService()
	resp, err := service.DetectDuplicatesInFiles(context.Background(), []string{pathA, pathB, pathC}, newDedupRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, 3, resp.Summary.TotalFiles)
	assert.Equal(t, 0, resp.Summary.SkippedFiles)
	assert.Equal(t, 2, resp.Summary.FilesWithDuplicates)
	assert.Equal(t, 1, resp.Summary.TotalGroups)
	assert.Equal(t, 2, resp.Summary.LargestGroupSize)

	// Identical token streams hash to the same signature, so the match is
	// reported symmetrically on both files.
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, pathA, resp.Matches[0].Path)
	assert.Equal(t, 5, resp.Matches[0].TokenCount)
	require.Len(t, resp.Matches[0].Duplicates, 1)
	assert.Equal(t, pathB, resp.Matches[0].Duplicates[0].Path)
	assert.Equal(t, 1, resp.Matches[0].Duplicates[0].DocID)

	assert.Equal(t, pathB, resp.Matches[1].Path)
	require.Len(t, resp.Matches[1].Duplicates, 1)
	assert.Equal(t, pathA, resp.Matches[1].Duplicates[0].Path)
	assert.Equal(t, 0, resp.Matches[1].Duplicates[0].DocID)

	require.Len(t, resp.Groups, 1)
	assert.Equal(t, 1, resp.Groups[0].ID)
	assert.Equal(t, []string{pathA, pathB}, resp.Groups[0].Paths)
	assert.Equal(t, 2, resp.Groups[0].Size)

	assert.Equal(t, 20, resp.Summary.IndexStats.Bands)
	assert.Equal(t, 5, resp.Summary.IndexStats.RowsPerBand)
	assert.Greater(t, resp.Summary.IndexStats.NumBuckets, 0)
}

func TestDetectDuplicates_CollectsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "alpha beta gamma delta epsilon")
	writeTestFile(t, filepath.Join(dir, "sub", "b.txt"), "alpha beta gamma delta epsilon")
	writeTestFile(t, filepath.Join(dir, "c.txt"), "one two three four five six")

	service := newTestDedupService()
	resp, err := service.DetectDuplicates(context.Background(), newDedupRequest(dir))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Summary.TotalFiles)
	assert.Equal(t, 1, resp.Summary.TotalGroups)
	require.Len(t, resp.Groups, 1)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.txt"),
	}, resp.Groups[0].Paths)
}

func TestDetectDuplicates_NoMatchingFiles(t *testing.T) {
	service := newTestDedupService()
	_, err := service.DetectDuplicates(context.Background(), newDedupRequest(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files found")
}

func TestDetectDuplicatesInFiles_MinTokensSkipsShortFiles(t *testing.T) {
	dir := t.TempDir()
	short := filepath.Join(dir, "short.txt")
	long := filepath.Join(dir, "long.txt")
	writeTestFile(t, short, "too short")
	writeTestFile(t, long, "alpha beta gamma delta epsilon")

	req := newDedupRequest()
	req.MinTokens = 3

	service := newTestDedupService()
	resp, err := service.DetectDuplicatesInFiles(context.Background(), []string{short, long}, req)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Summary.TotalFiles)
	assert.Equal(t, 1, resp.Summary.SkippedFiles)
	assert.Empty(t, resp.Matches)
	assert.Empty(t, resp.Groups)
}

func TestDetectDuplicatesInFiles_UnreadableFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")
	good := filepath.Join(dir, "good.txt")
	writeTestFile(t, good, "alpha beta gamma delta epsilon")

	service := newTestDedupService()
	resp, err := service.DetectDuplicatesInFiles(context.Background(), []string{missing, good}, newDedupRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Summary.TotalFiles)
	assert.Equal(t, 1, resp.Summary.SkippedFiles)
	assert.Empty(t, resp.Matches)
}

func TestDetectDuplicatesInFiles_SortCriteria(t *testing.T) {
	dir := t.TempDir()
	smallContent := "red green blue yellow"
	bigContent := "one two three four five six seven eight nine ten"

	paths := []string{
		filepath.Join(dir, "small1.txt"),
		filepath.Join(dir, "small2.txt"),
		filepath.Join(dir, "small3.txt"),
		filepath.Join(dir, "big1.txt"),
		filepath.Join(dir, "big2.txt"),
	}
	for _, p := range paths[:3] {
		writeTestFile(t, p, smallContent)
	}
	for _, p := range paths[3:] {
		writeTestFile(t, p, bigContent)
	}

	service := newTestDedupService()

	matchOrder := func(sortBy domain.SortCriteria) []string {
		req := newDedupRequest()
		req.SortBy = sortBy
		resp, err := service.DetectDuplicatesInFiles(context.Background(), paths, req)
		require.NoError(t, err)
		order := make([]string, len(resp.Matches))
		for i, m := range resp.Matches {
			order[i] = filepath.Base(m.Path)
		}
		return order
	}

	assert.Equal(t, []string{"big1.txt", "big2.txt", "small1.txt", "small2.txt", "small3.txt"},
		matchOrder(domain.SortByLocation))
	assert.Equal(t, []string{"big1.txt", "big2.txt", "small1.txt", "small2.txt", "small3.txt"},
		matchOrder(domain.SortBySize))
	assert.Equal(t, []string{"small1.txt", "small2.txt", "small3.txt", "big1.txt", "big2.txt"},
		matchOrder(domain.SortByMatches))
}

func TestDetectDuplicatesInFiles_GroupsAreTransitive(t *testing.T) {
	dir := t.TempDir()
	content := "alpha beta gamma delta epsilon"
	paths := []string{
		filepath.Join(dir, "k1.txt"),
		filepath.Join(dir, "k2.txt"),
		filepath.Join(dir, "k3.txt"),
	}
	for _, p := range paths {
		writeTestFile(t, p, content)
	}

	service := newTestDedupService()
	resp, err := service.DetectDuplicatesInFiles(context.Background(), paths, newDedupRequest())
	require.NoError(t, err)

	require.Len(t, resp.Groups, 1)
	assert.Equal(t, 3, resp.Groups[0].Size)
	assert.Equal(t, 3, resp.Summary.LargestGroupSize)

	// The third copy collides with both earlier ones.
	require.Len(t, resp.Matches, 3)
	assert.Len(t, resp.Matches[2].Duplicates, 2)
}

func TestDetectDuplicatesInFiles_CancelledContextAborts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "alpha beta gamma")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := newTestDedupService()
	_, err := service.DetectDuplicatesInFiles(ctx, []string{path}, newDedupRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestDetectDuplicates_InvalidRequests(t *testing.T) {
	service := newTestDedupService()
	ctx := context.Background()

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // Intentionally testing nil context error handling
		_, err := service.DetectDuplicates(nil, newDedupRequest("."))
		assert.Error(t, err)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := service.DetectDuplicates(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("empty paths", func(t *testing.T) {
		_, err := service.DetectDuplicates(ctx, newDedupRequest())
		assert.Error(t, err)
	})

	t.Run("empty file list", func(t *testing.T) {
		_, err := service.DetectDuplicatesInFiles(ctx, nil, newDedupRequest())
		assert.Error(t, err)
	})

	t.Run("inconsistent banding", func(t *testing.T) {
		req := newDedupRequest(".")
		req.Bands = 3
		req.RowsPerBand = 5
		req.NumHashes = 16
		_, err := service.DetectDuplicates(ctx, req)
		assert.Error(t, err)
	})

	t.Run("unknown sort criteria", func(t *testing.T) {
		req := newDedupRequest(".")
		req.SortBy = domain.SortCriteria("frequency")
		_, err := service.DetectDuplicates(ctx, req)
		assert.Error(t, err)
	})
}

func TestBuildMatchesAndGroups_SymmetricAndTransitive(t *testing.T) {
	entries := []fileEntry{
		{path: "a.txt", tokens: []string{"x", "y"}},
		{path: "b.txt", tokens: []string{"x", "y"}},
		{path: "c.txt", tokens: []string{"x", "y"}},
	}
	insertedFile := []int{0, 1, 2}
	// b collides with a, c collides with b only: a chain, not a clique.
	dupsPerDoc := [][]lsh.DocID{nil, {0}, {1}}

	matches, groups := buildMatchesAndGroups(entries, insertedFile, dupsPerDoc, domain.SortByLocation)

	require.Len(t, matches, 3)
	assert.Equal(t, "a.txt", matches[0].Path)
	require.Len(t, matches[0].Duplicates, 1)
	assert.Equal(t, "b.txt", matches[0].Duplicates[0].Path)
	require.Len(t, matches[1].Duplicates, 2)
	assert.Equal(t, "a.txt", matches[1].Duplicates[0].Path)
	assert.Equal(t, "c.txt", matches[1].Duplicates[1].Path)

	// a and c never collided directly but share a group through b.
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, groups[0].Paths)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(2, 3)
	uf.union(1, 2)

	assert.Equal(t, uf.find(0), uf.find(3))
	assert.NotEqual(t, uf.find(0), uf.find(4))
	assert.Equal(t, uf.find(5), uf.find(5))
}
