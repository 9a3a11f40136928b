package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LshTomlConfig represents the structure of .lsh.toml
type LshTomlConfig struct {
	Cache   LshTomlCacheConfig   `toml:"cache"`
	Analyze LshTomlAnalyzeConfig `toml:"analyze"`
	Dedup   LshTomlDedupConfig   `toml:"dedup"`
	Output  LshTomlOutputConfig  `toml:"output"`
}

// LshTomlCacheConfig represents the [cache] section.
//
// The banding and shingle fields use pointers so an absent key can be told
// apart from an explicit zero: zero is a meaningful value for both (it asks
// the cache to derive the member from the others).
type LshTomlCacheConfig struct {
	Bands        *int   `toml:"bands"`         // pointer to detect unset
	RowsPerBand  *int   `toml:"rows_per_band"` // pointer to detect unset
	NumHashes    *int   `toml:"num_hashes"`    // pointer to detect unset
	HashFamily   string `toml:"hash_family"`
	UniverseSize uint64 `toml:"universe_size"`
	ShingleLen   *int   `toml:"shingle_len"` // pointer to detect unset
	MinShingle   *int   `toml:"min_shingle"` // pointer to detect unset
	MaxShingle   *int   `toml:"max_shingle"` // pointer to detect unset
	Seed         *int64 `toml:"seed"`        // pointer to detect unset
}

// LshTomlAnalyzeConfig represents the [analyze] section
type LshTomlAnalyzeConfig struct {
	NumDocs   *int    `toml:"num_docs"` // pointer to detect unset, 0 means no cap
	DocLen    []int   `toml:"doc_len"`
	NumTokens int     `toml:"num_tokens"`
	Generator string  `toml:"generator"`
	Metric    string  `toml:"metric"`
	SimCuts   int     `toml:"sim_cuts"`
	Seeds     []int64 `toml:"seeds"`
}

// LshTomlDedupConfig represents the [dedup] section
type LshTomlDedupConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"`  // pointer to detect unset
	MinTokens       *int     `toml:"min_tokens"` // pointer to detect unset
	SortBy          string   `toml:"sort_by"`
	ShowDetails     *bool    `toml:"show_details"` // pointer to detect unset
}

// LshTomlOutputConfig represents the [output] section
type LshTomlOutputConfig struct {
	Format       string `toml:"format"`
	Directory    string `toml:"directory"`
	ShowProgress *bool  `toml:"show_progress"` // pointer to detect unset
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from .lsh.toml, walking up the directory
// tree from startDir, and falls back to defaults when no file is found.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	if config, err := l.loadFromLshToml(startDir); err == nil {
		return config, nil
	}

	// Return defaults if no config found
	return DefaultConfig(), nil
}

// loadFromLshToml loads config from .lsh.toml (dedicated config file)
func (l *TomlConfigLoader) loadFromLshToml(startDir string) (*Config, error) {
	configPath, err := l.FindLshToml(startDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config LshTomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Merge with defaults
	defaults := DefaultConfig()
	l.mergeLshTomlConfig(defaults, &config)

	return defaults, nil
}

// FindLshToml walks up the directory tree to find .lsh.toml
func (l *TomlConfigLoader) FindLshToml(startDir string) (string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".lsh.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// mergeLshTomlConfig merges .lsh.toml config into defaults, using pointer
// fields to detect unset values.
//
// The banding triple and the shingle triple each override as a group: when
// any member of a group appears in the file, the whole group is replaced and
// absent members become zero, leaving them for the cache to derive. Merging
// members independently would stitch file values onto stale defaults and
// produce inconsistent triples.
func (l *TomlConfigLoader) mergeLshTomlConfig(defaults *Config, lshToml *LshTomlConfig) {
	// Cache config
	if lshToml.Cache.Bands != nil || lshToml.Cache.RowsPerBand != nil || lshToml.Cache.NumHashes != nil {
		defaults.Cache.Bands = intOrZero(lshToml.Cache.Bands)
		defaults.Cache.RowsPerBand = intOrZero(lshToml.Cache.RowsPerBand)
		defaults.Cache.NumHashes = intOrZero(lshToml.Cache.NumHashes)
	}
	if lshToml.Cache.ShingleLen != nil || lshToml.Cache.MinShingle != nil || lshToml.Cache.MaxShingle != nil {
		defaults.Cache.ShingleLen = intOrZero(lshToml.Cache.ShingleLen)
		defaults.Cache.MinShingle = intOrZero(lshToml.Cache.MinShingle)
		defaults.Cache.MaxShingle = intOrZero(lshToml.Cache.MaxShingle)
	}
	if lshToml.Cache.HashFamily != "" {
		defaults.Cache.HashFamily = lshToml.Cache.HashFamily
	}
	if lshToml.Cache.UniverseSize > 0 {
		defaults.Cache.UniverseSize = lshToml.Cache.UniverseSize
	}
	if lshToml.Cache.Seed != nil {
		defaults.Cache.Seed = *lshToml.Cache.Seed
	}

	// Analyze config
	if lshToml.Analyze.NumDocs != nil {
		defaults.Analyze.NumDocs = *lshToml.Analyze.NumDocs
	}
	if len(lshToml.Analyze.DocLen) > 0 {
		defaults.Analyze.DocLen = lshToml.Analyze.DocLen
	}
	if lshToml.Analyze.NumTokens > 0 {
		defaults.Analyze.NumTokens = lshToml.Analyze.NumTokens
	}
	if lshToml.Analyze.Generator != "" {
		defaults.Analyze.Generator = lshToml.Analyze.Generator
	}
	if lshToml.Analyze.Metric != "" {
		defaults.Analyze.Metric = lshToml.Analyze.Metric
	}
	if lshToml.Analyze.SimCuts > 0 {
		defaults.Analyze.SimCuts = lshToml.Analyze.SimCuts
	}
	if len(lshToml.Analyze.Seeds) > 0 {
		defaults.Analyze.Seeds = lshToml.Analyze.Seeds
	}

	// Dedup config
	if len(lshToml.Dedup.IncludePatterns) > 0 {
		defaults.Dedup.IncludePatterns = lshToml.Dedup.IncludePatterns
	}
	if len(lshToml.Dedup.ExcludePatterns) > 0 {
		defaults.Dedup.ExcludePatterns = lshToml.Dedup.ExcludePatterns
	}
	// Boolean fields: only override if explicitly set (pointer not nil)
	if lshToml.Dedup.Recursive != nil {
		defaults.Dedup.Recursive = *lshToml.Dedup.Recursive
	}
	if lshToml.Dedup.MinTokens != nil {
		defaults.Dedup.MinTokens = *lshToml.Dedup.MinTokens
	}
	if lshToml.Dedup.SortBy != "" {
		defaults.Dedup.SortBy = lshToml.Dedup.SortBy
	}
	if lshToml.Dedup.ShowDetails != nil {
		defaults.Dedup.ShowDetails = *lshToml.Dedup.ShowDetails
	}

	// Output config
	if lshToml.Output.Format != "" {
		defaults.Output.Format = lshToml.Output.Format
	}
	if lshToml.Output.Directory != "" {
		defaults.Output.Directory = lshToml.Output.Directory
	}
	if lshToml.Output.ShowProgress != nil {
		defaults.Output.ShowProgress = *lshToml.Output.ShowProgress
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
