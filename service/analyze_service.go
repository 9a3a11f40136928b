package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/internal/lsh"
)

// compareChunkSize is the number of prior documents one tally task covers
// when comparisons are fanned out across workers.
const compareChunkSize = 1024

// docEntry holds the per-document state the ground-truth metrics need:
// the raw token sequence for edit metrics and the shingle set for the
// set-overlap metrics.
type docEntry struct {
	tokens   []string
	shingles []uint64
}

// similarityFunc computes the true similarity between two documents.
type similarityFunc func(a, b *docEntry) float64

// AnalyzeServiceImpl implements the AnalyzeService interface
type AnalyzeServiceImpl struct {
	progress domain.ProgressManager
	runner   domain.TaskRunner
}

// NewAnalyzeService creates a new analysis service. Both dependencies may be
// nil; progress is then suppressed and comparisons run sequentially.
func NewAnalyzeService(progress domain.ProgressManager, runner domain.TaskRunner) *AnalyzeServiceImpl {
	return &AnalyzeServiceImpl{
		progress: progress,
		runner:   runner,
	}
}

// Analyze streams generated documents through a fresh cache and bins
// insert-time detections by true pairwise similarity. Cancelling the context
// stops document generation early and reports the pairs counted so far.
func (s *AnalyzeServiceImpl) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if ctx == nil {
		return nil, domain.NewInvalidInputError("context cannot be nil", nil)
	}
	if req == nil {
		return nil, domain.NewInvalidInputError("analyze request cannot be nil", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewInvalidInputError("invalid analysis request", err)
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
		Seed:            req.CacheSeed(),
		TrackDuplicates: true,
	})
	if err != nil {
		return nil, domain.NewConfigError("failed to build LSH cache", err)
	}

	calc, needShingles, err := resolveSimilarityFunc(req.Metric)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unsupported similarity metric: %s", req.Metric), err)
	}

	corpus, err := buildCorpus(req)
	if err != nil {
		return nil, domain.NewInvalidInputError("failed to build document generator", err)
	}

	simCuts := req.SimCuts
	lshCounts := make([]int, simCuts+1)
	totalCounts := make([]int, simCuts+1)

	progress := s.progress
	if progress == nil || !req.ShowProgress {
		progress = NewNoOpProgressManager()
	}
	progress.Initialize(req.NumDocs)
	progress.Start()
	defer progress.Close()

	var docs []docEntry
	if req.NumDocs > 0 {
		docs = make([]docEntry, 0, req.NumDocs)
	}

	cancelled := false
	for corpus != nil {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		tokens, ok := corpus.Next()
		if !ok {
			break
		}

		entry := docEntry{tokens: tokens}
		if needShingles {
			entry.shingles = cache.Shingler().Shingle(tokens)
		}

		_, dups := cache.Insert(tokens)

		if err := s.tallyComparisons(ctx, docs, &entry, dups, calc, simCuts, lshCounts, totalCounts); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				cancelled = true
			} else {
				return nil, domain.NewAnalysisError("failed to tally similarity comparisons", err)
			}
		}

		docs = append(docs, entry)
		progress.Update(len(docs), req.NumDocs)

		if cancelled || (req.NumDocs > 0 && len(docs) == req.NumDocs) {
			break
		}
	}
	progress.Complete(!cancelled)

	return buildAnalyzeResponse(req, cache, docs, lshCounts, totalCounts, startTime), nil
}

// tallyComparisons compares the new document against every prior document
// and counts each pair into its similarity bin, marking the pairs the cache
// flagged at insert time. Large prior sets are split across the task runner.
func (s *AnalyzeServiceImpl) tallyComparisons(ctx context.Context, priors []docEntry, doc *docEntry, dups []lsh.DocID, calc similarityFunc, simCuts int, lshCounts, totalCounts []int) error {
	if len(priors) == 0 {
		return nil
	}

	// Sequentially assigned ids make the prior index the document id.
	dupSet := make(map[int]struct{}, len(dups))
	for _, d := range dups {
		dupSet[int(d)] = struct{}{}
	}

	if s.runner == nil || len(priors) < 2*compareChunkSize {
		tallyRange(priors, 0, len(priors), doc, dupSet, calc, simCuts, lshCounts, totalCounts)
		return nil
	}

	var mu sync.Mutex
	var tasks []domain.Task
	for lo := 0; lo < len(priors); lo += compareChunkSize {
		lo := lo
		hi := min(lo+compareChunkSize, len(priors))
		tasks = append(tasks, NewFuncTask(fmt.Sprintf("tally[%d,%d)", lo, hi), func(ctx context.Context) error {
			localLSH := make([]int, len(lshCounts))
			localTotal := make([]int, len(totalCounts))
			tallyRange(priors, lo, hi, doc, dupSet, calc, simCuts, localLSH, localTotal)

			mu.Lock()
			for i := range localLSH {
				lshCounts[i] += localLSH[i]
				totalCounts[i] += localTotal[i]
			}
			mu.Unlock()
			return nil
		}))
	}
	return s.runner.Run(ctx, tasks)
}

// tallyRange counts the pairs (priors[lo:hi], doc) into the similarity bins.
func tallyRange(priors []docEntry, lo, hi int, doc *docEntry, dupSet map[int]struct{}, calc similarityFunc, simCuts int, lshCounts, totalCounts []int) {
	for o := lo; o < hi; o++ {
		sim := calc(&priors[o], doc)
		bin := int(float64(simCuts) * sim)
		if bin > simCuts {
			bin = simCuts
		}
		totalCounts[bin]++
		if _, ok := dupSet[o]; ok {
			lshCounts[bin]++
		}
	}
}

// resolveSimilarityFunc maps a metric name to its comparison function and
// reports whether the metric consumes shingle sets rather than raw tokens.
func resolveSimilarityFunc(metric string) (similarityFunc, bool, error) {
	switch metric {
	case lsh.MetricJaccard:
		return func(a, b *docEntry) float64 {
			return lsh.JaccardSimilarity(a.shingles, b.shingles)
		}, true, nil
	case lsh.MetricMASI:
		return func(a, b *docEntry) float64 {
			return lsh.MASISimilarity(a.shingles, b.shingles)
		}, true, nil
	case lsh.MetricEdit:
		return func(a, b *docEntry) float64 {
			return lsh.EditSimilarity(a.tokens, b.tokens, false)
		}, false, nil
	case lsh.MetricEditTransposition:
		return func(a, b *docEntry) float64 {
			return lsh.EditSimilarity(a.tokens, b.tokens, true)
		}, false, nil
	}
	return nil, false, lsh.ValidateMetric(metric)
}

// buildCorpus constructs the document stream for the request. A single
// document length of zero yields no documents at all, while a range starting
// at zero includes the empty document.
func buildCorpus(req *domain.AnalyzeRequest) (*lsh.Corpus, error) {
	if len(req.DocLen) == 1 && req.DocLen[0] == 0 {
		return nil, nil
	}
	return lsh.NewCorpus(req.Generator, req.NumTokens, req.MinDocLen(), req.MaxDocLen())
}

// buildAnalyzeResponse assembles the report from the tallied bins. Empty
// bins report a zero empirical fraction rather than NaN.
func buildAnalyzeResponse(req *domain.AnalyzeRequest, cache *lsh.Cache, docs []docEntry, lshCounts, totalCounts []int, startTime time.Time) *domain.AnalyzeResponse {
	simCuts := req.SimCuts
	minShingle, maxShingle := cache.ShingleRange()

	bins := make([]domain.SimilarityBin, simCuts+1)
	sumLSH, sumTotal := 0, 0
	weightedTheory := 0.0
	for i := 0; i <= simCuts; i++ {
		sim := float64(i) / float64(simCuts)
		bin := domain.SimilarityBin{
			Similarity:          sim,
			LSHCount:            lshCounts[i],
			TotalCount:          totalCounts[i],
			TheoreticalFraction: cache.TheoreticalPercentFound(sim),
		}
		if bin.TotalCount > 0 {
			bin.EmpiricalFraction = float64(bin.LSHCount) / float64(bin.TotalCount)
		}
		bins[i] = bin

		sumLSH += bin.LSHCount
		sumTotal += bin.TotalCount
		weightedTheory += float64(bin.TotalCount) * bin.TheoreticalFraction
	}

	totals := domain.AnalyzeTotals{
		LSHCount:   sumLSH,
		TotalCount: sumTotal,
	}
	if sumTotal > 0 {
		totals.EmpiricalFraction = float64(sumLSH) / float64(sumTotal)
		totals.TheoreticalFraction = weightedTheory / float64(sumTotal)
	}

	return &domain.AnalyzeResponse{
		Config: domain.AnalyzeConfigEcho{
			Bands:            cache.NumBands(),
			RowsPerBand:      cache.NumRowsPerBand(),
			NumHashes:        cache.NumTotalRows(),
			HashFamily:       cache.HashFamilyName(),
			MinShingle:       minShingle,
			MaxShingle:       maxShingle,
			Metric:           req.Metric,
			Generator:        req.Generator,
			NumTokens:        req.NumTokens,
			MinDocLen:        req.MinDocLen(),
			MaxDocLen:        req.MaxDocLen(),
			Seeds:            req.Seeds,
			ImpliedThreshold: lsh.ImpliedThreshold(cache.NumBands(), cache.NumRowsPerBand()),
		},
		Bins:          bins,
		Totals:        totals,
		DocsProcessed: len(docs),
		Comparisons:   sumTotal,
		Duration:      time.Since(startTime).Milliseconds(),
		GeneratedAt:   time.Now().Format(time.RFC3339),
	}
}
