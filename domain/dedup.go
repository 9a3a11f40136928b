package domain

import (
	"context"
	"fmt"
	"io"
)

// DuplicateRef points at one previously indexed file that shares at least
// one LSH bucket with the match's file.
type DuplicateRef struct {
	Path  string `json:"path" yaml:"path" csv:"path"`
	DocID int    `json:"doc_id" yaml:"doc_id" csv:"doc_id"`
}

// DuplicateMatch lists the candidate near-duplicates found for one file at
// the moment it was inserted into the index.
type DuplicateMatch struct {
	Path       string         `json:"path" yaml:"path" csv:"path"`
	DocID      int            `json:"doc_id" yaml:"doc_id" csv:"doc_id"`
	TokenCount int            `json:"token_count" yaml:"token_count" csv:"token_count"`
	Duplicates []DuplicateRef `json:"duplicates" yaml:"duplicates" csv:"duplicates"`
}

// String returns string representation of DuplicateMatch
func (m *DuplicateMatch) String() string {
	return fmt.Sprintf("%s: %d candidate duplicates", m.Path, len(m.Duplicates))
}

// DuplicateGroup is a connected component of the candidate-duplicate
// relation: every file in the group is reachable from every other through
// shared buckets.
type DuplicateGroup struct {
	ID    int      `json:"id" yaml:"id" csv:"id"`
	Paths []string `json:"paths" yaml:"paths" csv:"paths"`
	Size  int      `json:"size" yaml:"size" csv:"size"`
}

// String returns string representation of DuplicateGroup
func (g *DuplicateGroup) String() string {
	return fmt.Sprintf("DuplicateGroup{ID: %d, Size: %d}", g.ID, g.Size)
}

// IndexStats summarizes the LSH bucket tables after indexing.
type IndexStats struct {
	Bands            int     `json:"bands" yaml:"bands"`
	RowsPerBand      int     `json:"rows_per_band" yaml:"rows_per_band"`
	NumBuckets       int     `json:"num_buckets" yaml:"num_buckets"`
	MinBucketSize    int     `json:"min_bucket_size" yaml:"min_bucket_size"`
	MaxBucketSize    int     `json:"max_bucket_size" yaml:"max_bucket_size"`
	AvgBucketSize    float64 `json:"avg_bucket_size" yaml:"avg_bucket_size"`
	MedianBucketSize float64 `json:"median_bucket_size" yaml:"median_bucket_size"`
}

// DedupSummary provides statistics about a deduplication run
type DedupSummary struct {
	TotalFiles          int        `json:"total_files" yaml:"total_files"`
	SkippedFiles        int        `json:"skipped_files" yaml:"skipped_files"`
	FilesWithDuplicates int        `json:"files_with_duplicates" yaml:"files_with_duplicates"`
	TotalGroups         int        `json:"total_groups" yaml:"total_groups"`
	LargestGroupSize    int        `json:"largest_group_size" yaml:"largest_group_size"`
	IndexStats          IndexStats `json:"index_stats" yaml:"index_stats"`
}

// DedupRequest represents a request for near-duplicate file detection
type DedupRequest struct {
	// Input parameters
	Paths           []string `json:"paths"`
	Recursive       bool     `json:"recursive"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`

	// Banding parameters, resolved the same way as analysis requests.
	Bands       int `json:"bands"`
	RowsPerBand int `json:"rows_per_band"`
	NumHashes   int `json:"num_hashes"`

	// Hashing
	HashFamily   string `json:"hash_family"`
	UniverseSize uint64 `json:"universe_size"`
	Seed         int64  `json:"seed"`

	// Shingling
	ShingleLen int `json:"shingle_len"`
	MinShingle int `json:"min_shingle"`
	MaxShingle int `json:"max_shingle"`

	// MinTokens skips files with fewer whitespace tokens than this.
	MinTokens int `json:"min_tokens"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"output_path,omitempty"`
	ShowDetails  bool         `json:"show_details"`
	SortBy       SortCriteria `json:"sort_by"`
	ShowProgress bool         `json:"show_progress"`

	// Configuration file
	ConfigPath string `json:"config_path"`
}

// DedupResponse represents the response from near-duplicate detection
type DedupResponse struct {
	// Results
	Matches []DuplicateMatch `json:"matches" yaml:"matches"`
	Groups  []DuplicateGroup `json:"groups" yaml:"groups"`
	Summary DedupSummary     `json:"summary" yaml:"summary"`

	// Metadata
	Duration    int64  `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
}

// DedupService defines the interface for near-duplicate detection services
type DedupService interface {
	// DetectDuplicates indexes the requested files and reports candidate
	// near-duplicates and their groups
	DetectDuplicates(ctx context.Context, req *DedupRequest) (*DedupResponse, error)

	// DetectDuplicatesInFiles runs detection on an explicit file list
	DetectDuplicatesInFiles(ctx context.Context, filePaths []string, req *DedupRequest) (*DedupResponse, error)
}

// DedupOutputFormatter defines the interface for formatting dedup results
type DedupOutputFormatter interface {
	// Format formats the dedup response according to the specified format
	Format(response *DedupResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *DedupResponse, format OutputFormat, writer io.Writer) error
}

// DedupConfigurationLoader defines the interface for loading dedup configuration
type DedupConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*DedupRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *DedupRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *DedupRequest, override *DedupRequest) *DedupRequest
}

// FileReader abstracts file collection and reading for deduplication
type FileReader interface {
	// CollectFiles finds candidate text files under the given paths
	CollectFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// FileExists checks whether path exists and is a regular file
	FileExists(path string) (bool, error)
}

// DefaultDedupRequest returns a dedup request with default values
func DefaultDedupRequest() *DedupRequest {
	return &DedupRequest{
		Recursive:       true,
		IncludePatterns: DefaultIncludePatterns(),
		Bands:           DefaultBands,
		RowsPerBand:     DefaultRowsPerBand,
		HashFamily:      DefaultHashFamily,
		UniverseSize:    DefaultUniverseSize,
		ShingleLen:      DefaultShingleLen,
		MinTokens:       DefaultMinTokens,
		OutputFormat:    OutputFormatText,
		SortBy:          DefaultDedupSortBy,
	}
}

// Validate validates a dedup request
func (req *DedupRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewValidationError("paths cannot be empty")
	}
	if req.MinTokens < 0 {
		return NewValidationError("min_tokens must be >= 0")
	}
	if req.Bands < 0 || req.RowsPerBand < 0 || req.NumHashes < 0 {
		return NewValidationError("banding parameters must be >= 0")
	}
	switch req.SortBy {
	case "", SortByLocation, SortBySize, SortByMatches:
	default:
		return NewValidationError(fmt.Sprintf("unknown sort criteria: %s", req.SortBy))
	}
	switch req.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
	default:
		return NewUnsupportedFormatError(string(req.OutputFormat))
	}
	return nil
}
