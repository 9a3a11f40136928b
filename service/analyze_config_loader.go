package service

import (
	"fmt"

	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/internal/config"
)

// AnalyzeConfigLoaderImpl loads analysis configuration and merges CLI flags
// over it. Only flags the user actually set override file values.
type AnalyzeConfigLoaderImpl struct {
	flagTracker *config.FlagTracker
}

// NewAnalyzeConfigLoader creates a config loader that knows which CLI flags
// were explicitly set
func NewAnalyzeConfigLoader(explicitFlags map[string]bool) *AnalyzeConfigLoaderImpl {
	return &AnalyzeConfigLoaderImpl{
		flagTracker: config.NewFlagTrackerWithFlags(explicitFlags),
	}
}

// LoadConfig loads configuration from the specified path
func (c *AnalyzeConfigLoaderImpl) LoadConfig(path string) (*domain.AnalyzeRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
	}
	return analyzeRequestFromConfig(cfg), nil
}

// LoadDefaultConfig loads the default configuration, honoring any config
// file discovered from the current directory.
func (c *AnalyzeConfigLoaderImpl) LoadDefaultConfig() *domain.AnalyzeRequest {
	cfg, err := config.LoadConfigWithTarget("", ".")
	if err != nil {
		return domain.DefaultAnalyzeRequest()
	}
	return analyzeRequestFromConfig(cfg)
}

// MergeConfig merges CLI flags with configuration file values. The banding
// triple and the shingle triple override as groups: a partially specified
// override must not inherit remaining members from a different resolution.
func (c *AnalyzeConfigLoaderImpl) MergeConfig(base *domain.AnalyzeRequest, override *domain.AnalyzeRequest) *domain.AnalyzeRequest {
	merged := *base

	if c.flagTracker.WasSet("bands") || c.flagTracker.WasSet("rows-per-band") || c.flagTracker.WasSet("num-hashes") {
		merged.Bands = override.Bands
		merged.RowsPerBand = override.RowsPerBand
		merged.NumHashes = override.NumHashes
	}
	if c.flagTracker.WasSet("shingle-len") {
		merged.ShingleLen = override.ShingleLen
		merged.MinShingle = override.MinShingle
		merged.MaxShingle = override.MaxShingle
	}

	merged.HashFamily = c.flagTracker.MergeString(base.HashFamily, override.HashFamily, "hash-family")
	merged.UniverseSize = c.flagTracker.MergeUint64(base.UniverseSize, override.UniverseSize, "universe-size")
	merged.Seeds = c.flagTracker.MergeInt64Slice(base.Seeds, override.Seeds, "seed")

	merged.NumDocs = c.flagTracker.MergeInt(base.NumDocs, override.NumDocs, "num-docs")
	merged.DocLen = c.flagTracker.MergeIntSlice(base.DocLen, override.DocLen, "doc-len")
	merged.NumTokens = c.flagTracker.MergeInt(base.NumTokens, override.NumTokens, "num-tokens")
	merged.Generator = c.flagTracker.MergeString(base.Generator, override.Generator, "generator")
	merged.Metric = c.flagTracker.MergeString(base.Metric, override.Metric, "similarity")
	merged.SimCuts = c.flagTracker.MergeInt(base.SimCuts, override.SimCuts, "sim-cuts")

	if override.OutputFormat != domain.OutputFormatText {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if c.flagTracker.WasSet("no-progress") {
		merged.ShowProgress = override.ShowProgress
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// analyzeRequestFromConfig maps the unified config onto an analysis request
func analyzeRequestFromConfig(cfg *config.Config) *domain.AnalyzeRequest {
	req := domain.DefaultAnalyzeRequest()

	req.Bands = cfg.Cache.Bands
	req.RowsPerBand = cfg.Cache.RowsPerBand
	req.NumHashes = cfg.Cache.NumHashes
	req.HashFamily = cfg.Cache.HashFamily
	req.UniverseSize = cfg.Cache.UniverseSize
	req.ShingleLen = cfg.Cache.ShingleLen
	req.MinShingle = cfg.Cache.MinShingle
	req.MaxShingle = cfg.Cache.MaxShingle

	if len(cfg.Analyze.Seeds) > 0 {
		req.Seeds = append([]int64(nil), cfg.Analyze.Seeds...)
	} else if cfg.Cache.Seed != 0 {
		req.Seeds = []int64{cfg.Cache.Seed}
	}

	req.NumDocs = cfg.Analyze.NumDocs
	if len(cfg.Analyze.DocLen) > 0 {
		req.DocLen = append([]int(nil), cfg.Analyze.DocLen...)
	}
	req.NumTokens = cfg.Analyze.NumTokens
	req.Generator = cfg.Analyze.Generator
	req.Metric = cfg.Analyze.Metric
	req.SimCuts = cfg.Analyze.SimCuts

	req.OutputFormat = outputFormatFromString(cfg.Output.Format)
	req.ShowProgress = cfg.Output.ShowProgress

	return req
}

// outputFormatFromString maps a config file format name onto the domain
// type, falling back to text.
func outputFormatFromString(format string) domain.OutputFormat {
	switch format {
	case "json":
		return domain.OutputFormatJSON
	case "yaml":
		return domain.OutputFormatYAML
	case "csv":
		return domain.OutputFormatCSV
	default:
		return domain.OutputFormatText
	}
}
