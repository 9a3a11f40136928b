package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"

	"github.com/kecaps/lsh/domain"
)

// Config represents the main configuration structure
type Config struct {
	// Cache holds LSH cache construction parameters shared by all commands
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Analyze holds synthetic-corpus analysis configuration
	Analyze AnalyzeConfig `mapstructure:"analyze" yaml:"analyze"`

	// Dedup holds file deduplication configuration
	Dedup DedupConfig `mapstructure:"dedup" yaml:"dedup"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// CacheConfig holds LSH cache construction parameters.
//
// The banding triple (bands, rows_per_band, num_hashes) is resolved by the
// cache itself: any member left at zero is derived from the others, and an
// all-zero triple selects the 20x5 default. Keeping zeros here instead of
// concrete numbers lets a config file or flag pin one member without
// contradicting the rest.
type CacheConfig struct {
	// Bands is the number of LSH bands (b). 0 derives it.
	Bands int `mapstructure:"bands" yaml:"bands"`

	// RowsPerBand is the number of signature rows per band (r). 0 derives it.
	RowsPerBand int `mapstructure:"rows_per_band" yaml:"rows_per_band"`

	// NumHashes is the MinHash signature length (n = b*r). 0 derives it.
	NumHashes int `mapstructure:"num_hashes" yaml:"num_hashes"`

	// HashFamily selects the MinHash hash family: multiply or xor
	HashFamily string `mapstructure:"hash_family" yaml:"hash_family"`

	// UniverseSize bounds the hash universe the family maps into
	UniverseSize uint64 `mapstructure:"universe_size" yaml:"universe_size"`

	// ShingleLen is the token n-gram length when min/max are not used
	ShingleLen int `mapstructure:"shingle_len" yaml:"shingle_len"`

	// MinShingle and MaxShingle select a range of n-gram lengths
	MinShingle int `mapstructure:"min_shingle" yaml:"min_shingle"`
	MaxShingle int `mapstructure:"max_shingle" yaml:"max_shingle"`

	// Seed seeds the hash family RNG for reproducible signatures
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// AnalyzeConfig holds configuration for the synthetic-corpus analysis harness
type AnalyzeConfig struct {
	// NumDocs caps the number of generated documents. 0 means no cap.
	NumDocs int `mapstructure:"num_docs" yaml:"num_docs"`

	// DocLen is the generated document length, either one value or an
	// inclusive [min, max] pair
	DocLen []int `mapstructure:"doc_len" yaml:"doc_len"`

	// NumTokens is the synthetic token alphabet size
	NumTokens int `mapstructure:"num_tokens" yaml:"num_tokens"`

	// Generator enumerates documents: combinations,
	// combinations_replacement, or permutations
	Generator string `mapstructure:"generator" yaml:"generator"`

	// Metric is the ground-truth similarity metric: jaccard, masi, edit,
	// or edit_transposition
	Metric string `mapstructure:"metric" yaml:"metric"`

	// SimCuts is the number of similarity bins per unit interval
	SimCuts int `mapstructure:"sim_cuts" yaml:"sim_cuts"`

	// Seeds are the RNG seeds; the first seeds the cache hash family
	Seeds []int64 `mapstructure:"seeds" yaml:"seeds"`
}

// DedupConfig holds configuration for file deduplication
type DedupConfig struct {
	// IncludePatterns specifies file patterns to scan
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to skip
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether directories are walked recursively
	Recursive bool `mapstructure:"recursive" yaml:"recursive"`

	// MinTokens skips files with fewer whitespace tokens
	MinTokens int `mapstructure:"min_tokens" yaml:"min_tokens"`

	// SortBy orders duplicate matches: location, size, or matches
	SortBy string `mapstructure:"sort_by" yaml:"sort_by"`

	// ShowDetails controls whether per-file match detail is printed
	ShowDetails bool `mapstructure:"show_details" yaml:"show_details"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" yaml:"format"`

	// Directory is where generated reports are written; empty means
	// the working directory
	Directory string `mapstructure:"directory" yaml:"directory"`

	// ShowProgress enables the progress bar on interactive terminals
	ShowProgress bool `mapstructure:"show_progress" yaml:"show_progress"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Bands:        0,
			RowsPerBand:  0,
			NumHashes:    0,
			HashFamily:   domain.DefaultHashFamily,
			UniverseSize: domain.DefaultUniverseSize,
			ShingleLen:   domain.DefaultShingleLen,
			Seed:         0,
		},
		Analyze: AnalyzeConfig{
			NumDocs:   domain.DefaultNumDocs,
			DocLen:    []int{domain.DefaultDocLen},
			NumTokens: domain.DefaultNumTokens,
			Generator: domain.DefaultGenerator,
			Metric:    domain.DefaultMetric,
			SimCuts:   domain.DefaultSimCuts,
		},
		Dedup: DedupConfig{
			IncludePatterns: domain.DefaultIncludePatterns(),
			ExcludePatterns: domain.DefaultExcludePatterns(),
			Recursive:       true,
			MinTokens:       domain.DefaultMinTokens,
			SortBy:          string(domain.DefaultDedupSortBy),
			ShowDetails:     false,
		},
		Output: OutputConfig{
			Format:       "text",
			Directory:    "",
			ShowProgress: true,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try to find default config files
	if configPath == "" {
		configPath = findDefaultConfig()
	}

	// If still no config found, return default
	if configPath == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigWithTarget loads configuration for a run against targetPath. An
// explicit configPath wins; otherwise a .lsh.toml discovered upward from the
// target directory; otherwise the usual lsh.yaml discovery.
func LoadConfigWithTarget(configPath, targetPath string) (*Config, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}

	if targetPath != "" {
		startDir := targetPath
		if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
			startDir = filepath.Dir(targetPath)
		}
		loader := NewTomlConfigLoader()
		if _, err := loader.FindLshToml(startDir); err == nil {
			return loader.LoadConfig(startDir)
		}
	}

	return LoadConfig("")
}

// findDefaultConfig looks for default configuration files in common locations
func findDefaultConfig() string {
	candidates := []string{
		"lsh.yaml",
		"lsh.yml",
		".lsh.yaml",
		".lsh.yml",
		"lsh.json",
		".lsh.json",
	}

	// Check current directory first
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if err := c.validateCacheConfig(); err != nil {
		return err
	}
	if err := c.validateAnalyzeConfig(); err != nil {
		return err
	}
	if err := c.validateDedupConfig(); err != nil {
		return err
	}
	return c.validateOutputConfig()
}

func (c *Config) validateCacheConfig() error {
	cc := &c.Cache

	if cc.Bands < 0 || cc.RowsPerBand < 0 || cc.NumHashes < 0 {
		return fmt.Errorf("cache banding parameters must be >= 0, got bands=%d rows_per_band=%d num_hashes=%d",
			cc.Bands, cc.RowsPerBand, cc.NumHashes)
	}

	if cc.Bands > 0 && cc.RowsPerBand > 0 && cc.NumHashes > 0 && cc.Bands*cc.RowsPerBand != cc.NumHashes {
		return fmt.Errorf("cache.num_hashes (%d) must equal bands*rows_per_band (%d*%d)",
			cc.NumHashes, cc.Bands, cc.RowsPerBand)
	}

	if cc.HashFamily != "" && !slices.Contains(domain.HashFamilyNames(), cc.HashFamily) {
		return fmt.Errorf("invalid cache.hash_family '%s', must be one of: %v", cc.HashFamily, domain.HashFamilyNames())
	}

	if cc.UniverseSize == 1 {
		return fmt.Errorf("cache.universe_size must be >= 2, got %d", cc.UniverseSize)
	}

	if cc.ShingleLen < 0 || cc.MinShingle < 0 || cc.MaxShingle < 0 {
		return fmt.Errorf("cache shingle lengths must be >= 0")
	}

	if cc.ShingleLen > 0 && (cc.MinShingle > 0 || cc.MaxShingle > 0) {
		return fmt.Errorf("cache.shingle_len conflicts with cache.min_shingle/max_shingle")
	}

	if cc.MaxShingle > 0 && cc.MinShingle > cc.MaxShingle {
		return fmt.Errorf("cache.min_shingle (%d) must be <= max_shingle (%d)", cc.MinShingle, cc.MaxShingle)
	}

	return nil
}

func (c *Config) validateAnalyzeConfig() error {
	ac := &c.Analyze

	if ac.NumDocs < 0 {
		return fmt.Errorf("analyze.num_docs must be >= 0, got %d", ac.NumDocs)
	}

	if len(ac.DocLen) > 2 {
		return fmt.Errorf("analyze.doc_len takes one value or a [min, max] pair, got %d values", len(ac.DocLen))
	}
	for _, l := range ac.DocLen {
		if l < 0 {
			return fmt.Errorf("analyze.doc_len values must be >= 0, got %d", l)
		}
	}
	if len(ac.DocLen) == 2 && ac.DocLen[0] > ac.DocLen[1] {
		return fmt.Errorf("analyze.doc_len range is inverted: [%d, %d]", ac.DocLen[0], ac.DocLen[1])
	}

	if ac.NumTokens < 1 {
		return fmt.Errorf("analyze.num_tokens must be >= 1, got %d", ac.NumTokens)
	}

	if ac.Generator != "" && !slices.Contains(domain.GeneratorNames(), ac.Generator) {
		return fmt.Errorf("invalid analyze.generator '%s', must be one of: %v", ac.Generator, domain.GeneratorNames())
	}

	if ac.Metric != "" && !slices.Contains(domain.MetricNames(), ac.Metric) {
		return fmt.Errorf("invalid analyze.metric '%s', must be one of: %v", ac.Metric, domain.MetricNames())
	}

	if ac.SimCuts < 1 {
		return fmt.Errorf("analyze.sim_cuts must be >= 1, got %d", ac.SimCuts)
	}

	return nil
}

func (c *Config) validateDedupConfig() error {
	dc := &c.Dedup

	if len(dc.IncludePatterns) == 0 {
		return fmt.Errorf("dedup.include_patterns cannot be empty")
	}

	if dc.MinTokens < 0 {
		return fmt.Errorf("dedup.min_tokens must be >= 0, got %d", dc.MinTokens)
	}

	validSortBy := map[string]bool{
		"location": true,
		"size":     true,
		"matches":  true,
	}
	if !validSortBy[dc.SortBy] {
		return fmt.Errorf("invalid dedup.sort_by '%s', must be one of: location, size, matches", dc.SortBy)
	}

	return nil
}

func (c *Config) validateOutputConfig() error {
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}

	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set all config values in viper
	v.Set("cache", config.Cache)
	v.Set("analyze", config.Analyze)
	v.Set("dedup", config.Dedup)
	v.Set("output", config.Output)

	return v.WriteConfig()
}
