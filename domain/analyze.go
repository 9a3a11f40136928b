package domain

import (
	"context"
	"io"
)

// AnalyzeRequest configures a synthetic-corpus LSH analysis run: it builds a
// cache from the banding parameters, streams generated documents through it,
// and bins insert-time detections by true pairwise similarity.
type AnalyzeRequest struct {
	// Banding parameters. Zero values are resolved against each other and
	// fall back to 20 bands of 5 rows.
	Bands       int `json:"bands"`
	RowsPerBand int `json:"rows_per_band"`
	NumHashes   int `json:"num_hashes"`

	// Hashing
	HashFamily   string `json:"hash_family"`
	UniverseSize uint64 `json:"universe_size"`

	// Shingling. ShingleLen is mutually exclusive with MinShingle/MaxShingle.
	ShingleLen int `json:"shingle_len"`
	MinShingle int `json:"min_shingle"`
	MaxShingle int `json:"max_shingle"`

	// Seeds makes runs reproducible. The first seed configures the cache's
	// hash family; the full list is echoed in the report.
	Seeds []int64 `json:"seeds"`

	// Synthetic corpus. NumDocs of 0 means the full generator stream.
	NumDocs   int    `json:"num_docs"`
	DocLen    []int  `json:"doc_len"`
	NumTokens int    `json:"num_tokens"`
	Generator string `json:"generator"`

	// Ground-truth metric and similarity binning
	Metric  string `json:"metric"`
	SimCuts int    `json:"sim_cuts"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"output_path,omitempty"`
	ShowProgress bool         `json:"show_progress"`

	// Configuration file
	ConfigPath string `json:"config_path"`
}

// SimilarityBin is one row of the analysis report: all document pairs whose
// true similarity falls in this bin, split into those LSH flagged and the
// total, against the closed-form detection probability for the bin's
// similarity.
type SimilarityBin struct {
	Similarity          float64 `json:"similarity" yaml:"similarity" csv:"similarity"`
	LSHCount            int     `json:"lsh_count" yaml:"lsh_count" csv:"lsh_count"`
	TotalCount          int     `json:"total_count" yaml:"total_count" csv:"total_count"`
	EmpiricalFraction   float64 `json:"empirical_fraction" yaml:"empirical_fraction" csv:"empirical_fraction"`
	TheoreticalFraction float64 `json:"theoretical_fraction" yaml:"theoretical_fraction" csv:"theoretical_fraction"`
}

// AnalyzeTotals is the report's totals row. The theoretical fraction is the
// count-weighted average of the per-bin theoretical fractions.
type AnalyzeTotals struct {
	LSHCount            int     `json:"lsh_count" yaml:"lsh_count" csv:"lsh_count"`
	TotalCount          int     `json:"total_count" yaml:"total_count" csv:"total_count"`
	EmpiricalFraction   float64 `json:"empirical_fraction" yaml:"empirical_fraction" csv:"empirical_fraction"`
	TheoreticalFraction float64 `json:"theoretical_fraction" yaml:"theoretical_fraction" csv:"theoretical_fraction"`
}

// AnalyzeConfigEcho reports the parameters the run actually used after
// resolution, so reports are reproducible from their own header.
type AnalyzeConfigEcho struct {
	Bands            int     `json:"bands" yaml:"bands"`
	RowsPerBand      int     `json:"rows_per_band" yaml:"rows_per_band"`
	NumHashes        int     `json:"num_hashes" yaml:"num_hashes"`
	HashFamily       string  `json:"hash_family" yaml:"hash_family"`
	MinShingle       int     `json:"min_shingle" yaml:"min_shingle"`
	MaxShingle       int     `json:"max_shingle" yaml:"max_shingle"`
	Metric           string  `json:"metric" yaml:"metric"`
	Generator        string  `json:"generator" yaml:"generator"`
	NumTokens        int     `json:"num_tokens" yaml:"num_tokens"`
	MinDocLen        int     `json:"min_doc_len" yaml:"min_doc_len"`
	MaxDocLen        int     `json:"max_doc_len" yaml:"max_doc_len"`
	Seeds            []int64 `json:"seeds" yaml:"seeds"`
	ImpliedThreshold float64 `json:"implied_threshold" yaml:"implied_threshold"`
}

// AnalyzeResponse represents the result of an analysis run
type AnalyzeResponse struct {
	Config AnalyzeConfigEcho `json:"config" yaml:"config"`
	Bins   []SimilarityBin   `json:"bins" yaml:"bins"`
	Totals AnalyzeTotals     `json:"totals" yaml:"totals"`

	// Metadata
	DocsProcessed int    `json:"docs_processed" yaml:"docs_processed"`
	Comparisons   int    `json:"comparisons" yaml:"comparisons"`
	Duration      int64  `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt   string `json:"generated_at" yaml:"generated_at"`
}

// AnalyzeService defines the interface for analysis runs
type AnalyzeService interface {
	// Analyze drives the cache over a synthetic corpus and reports
	// empirical vs theoretical detection rates
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error)
}

// AnalyzeOutputFormatter defines the interface for formatting analysis results
type AnalyzeOutputFormatter interface {
	// Format formats the analysis response according to the specified format
	Format(response *AnalyzeResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *AnalyzeResponse, format OutputFormat, writer io.Writer) error
}

// AnalyzeConfigurationLoader defines the interface for loading analysis configuration
type AnalyzeConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*AnalyzeRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *AnalyzeRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *AnalyzeRequest, override *AnalyzeRequest) *AnalyzeRequest
}

// DefaultAnalyzeRequest returns an analysis request with default values
func DefaultAnalyzeRequest() *AnalyzeRequest {
	return &AnalyzeRequest{
		Bands:        DefaultBands,
		RowsPerBand:  DefaultRowsPerBand,
		HashFamily:   DefaultHashFamily,
		UniverseSize: DefaultUniverseSize,
		ShingleLen:   DefaultShingleLen,
		NumDocs:      DefaultNumDocs,
		DocLen:       []int{DefaultDocLen},
		NumTokens:    DefaultNumTokens,
		Generator:    DefaultGenerator,
		Metric:       DefaultMetric,
		SimCuts:      DefaultSimCuts,
		OutputFormat: OutputFormatText,
	}
}

// Validate validates an analysis request
func (req *AnalyzeRequest) Validate() error {
	if req.NumDocs < 0 {
		return NewValidationError("num_docs must be >= 0")
	}
	if req.NumTokens < 1 {
		return NewValidationError("num_tokens must be >= 1")
	}
	if req.SimCuts < 1 {
		return NewValidationError("sim_cuts must be >= 1")
	}
	if len(req.DocLen) < 1 || len(req.DocLen) > 2 {
		return NewValidationError("doc_len takes one value or a min and max")
	}
	for _, l := range req.DocLen {
		if l < 0 {
			return NewValidationError("doc_len values must be >= 0")
		}
	}
	if len(req.DocLen) == 2 && req.DocLen[0] > req.DocLen[1] {
		return NewValidationError("doc_len range is inverted")
	}
	if req.Bands < 0 || req.RowsPerBand < 0 || req.NumHashes < 0 {
		return NewValidationError("banding parameters must be >= 0")
	}
	switch req.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
	default:
		return NewUnsupportedFormatError(string(req.OutputFormat))
	}
	return nil
}

// MinDocLen returns the lower bound of the document length range.
func (req *AnalyzeRequest) MinDocLen() int {
	if len(req.DocLen) == 0 {
		return DefaultDocLen
	}
	return req.DocLen[0]
}

// MaxDocLen returns the upper bound of the document length range.
func (req *AnalyzeRequest) MaxDocLen() int {
	if len(req.DocLen) == 0 {
		return DefaultDocLen
	}
	return req.DocLen[len(req.DocLen)-1]
}

// CacheSeed returns the seed for the cache's hash family: the first seed
// given, or 0. Document generation itself is deterministic, so any further
// seeds only appear in the report echo.
func (req *AnalyzeRequest) CacheSeed() int64 {
	if len(req.Seeds) == 0 {
		return 0
	}
	return req.Seeds[0]
}
