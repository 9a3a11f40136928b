package service

import (
	"fmt"

	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/internal/config"
)

// DedupConfigLoaderImpl loads dedup configuration and merges CLI flags over
// it, using the same group semantics as the analysis loader.
type DedupConfigLoaderImpl struct {
	explicitFlags map[string]bool
}

// NewDedupConfigLoader creates a config loader that knows which CLI flags
// were explicitly set
func NewDedupConfigLoader(explicitFlags map[string]bool) *DedupConfigLoaderImpl {
	return &DedupConfigLoaderImpl{
		explicitFlags: explicitFlags,
	}
}

// LoadConfig loads configuration from the specified path
func (c *DedupConfigLoaderImpl) LoadConfig(path string) (*domain.DedupRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
	}
	return dedupRequestFromConfig(cfg), nil
}

// LoadDefaultConfig loads the default configuration, honoring any config
// file discovered from the current directory.
func (c *DedupConfigLoaderImpl) LoadDefaultConfig() *domain.DedupRequest {
	cfg, err := config.LoadConfigWithTarget("", ".")
	if err != nil {
		return domain.DefaultDedupRequest()
	}
	return dedupRequestFromConfig(cfg)
}

// MergeConfig merges CLI flags with configuration file values
func (c *DedupConfigLoaderImpl) MergeConfig(base *domain.DedupRequest, override *domain.DedupRequest) *domain.DedupRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base

	// Target paths always come from the command line
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	merged.Recursive = config.MergeBool(merged.Recursive, override.Recursive, "recursive", c.explicitFlags)
	merged.IncludePatterns = config.MergeStringSlice(merged.IncludePatterns, override.IncludePatterns, "include", c.explicitFlags)
	merged.ExcludePatterns = config.MergeStringSlice(merged.ExcludePatterns, override.ExcludePatterns, "exclude", c.explicitFlags)

	// The banding triple and the shingle triple override as groups: a
	// partially specified override must not inherit remaining members from
	// a different resolution.
	if config.WasExplicitlySet(c.explicitFlags, "bands") ||
		config.WasExplicitlySet(c.explicitFlags, "rows-per-band") ||
		config.WasExplicitlySet(c.explicitFlags, "num-hashes") {
		merged.Bands = override.Bands
		merged.RowsPerBand = override.RowsPerBand
		merged.NumHashes = override.NumHashes
	}
	if config.WasExplicitlySet(c.explicitFlags, "shingle-len") {
		merged.ShingleLen = override.ShingleLen
		merged.MinShingle = override.MinShingle
		merged.MaxShingle = override.MaxShingle
	}

	merged.HashFamily = config.MergeString(merged.HashFamily, override.HashFamily, "hash-family", c.explicitFlags)
	merged.UniverseSize = config.MergeUint64(merged.UniverseSize, override.UniverseSize, "universe-size", c.explicitFlags)
	merged.Seed = config.MergeInt64(merged.Seed, override.Seed, "seed", c.explicitFlags)
	merged.MinTokens = config.MergeInt(merged.MinTokens, override.MinTokens, "min-tokens", c.explicitFlags)

	if config.WasExplicitlySet(c.explicitFlags, "sort") {
		merged.SortBy = override.SortBy
	}
	merged.ShowDetails = config.MergeBool(merged.ShowDetails, override.ShowDetails, "details", c.explicitFlags)

	if override.OutputFormat != domain.OutputFormatText {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if config.WasExplicitlySet(c.explicitFlags, "no-progress") {
		merged.ShowProgress = override.ShowProgress
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// dedupRequestFromConfig maps the unified config onto a dedup request
func dedupRequestFromConfig(cfg *config.Config) *domain.DedupRequest {
	req := domain.DefaultDedupRequest()

	req.Recursive = cfg.Dedup.Recursive
	if len(cfg.Dedup.IncludePatterns) > 0 {
		req.IncludePatterns = append([]string(nil), cfg.Dedup.IncludePatterns...)
	}
	req.ExcludePatterns = append([]string(nil), cfg.Dedup.ExcludePatterns...)
	req.MinTokens = cfg.Dedup.MinTokens
	if cfg.Dedup.SortBy != "" {
		req.SortBy = domain.SortCriteria(cfg.Dedup.SortBy)
	}
	req.ShowDetails = cfg.Dedup.ShowDetails

	req.Bands = cfg.Cache.Bands
	req.RowsPerBand = cfg.Cache.RowsPerBand
	req.NumHashes = cfg.Cache.NumHashes
	req.HashFamily = cfg.Cache.HashFamily
	req.UniverseSize = cfg.Cache.UniverseSize
	req.ShingleLen = cfg.Cache.ShingleLen
	req.MinShingle = cfg.Cache.MinShingle
	req.MaxShingle = cfg.Cache.MaxShingle
	req.Seed = cfg.Cache.Seed

	req.OutputFormat = outputFormatFromString(cfg.Output.Format)
	req.ShowProgress = cfg.Output.ShowProgress

	return req
}
