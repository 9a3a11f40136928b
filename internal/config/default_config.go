package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"

	"github.com/kecaps/lsh/domain"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
// All values are sourced from the domain package to ensure a single source of truth.
type DefaultConfigValues struct {
	// Cache
	Bands        int
	RowsPerBand  int
	NumHashes    int
	HashFamily   string
	UniverseSize uint64
	ShingleLen   int

	// Analyze
	NumDocs   int
	DocLen    int
	NumTokens int
	Generator string
	Metric    string
	SimCuts   int

	// Dedup
	IncludePatterns string
	MinTokens       int
	SortBy          string

	// Output
	Format string
}

// newDefaultConfigValues creates a DefaultConfigValues populated from domain constants.
func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{
		// Cache
		Bands:        domain.DefaultBands,
		RowsPerBand:  domain.DefaultRowsPerBand,
		NumHashes:    domain.DefaultNumHashes,
		HashFamily:   domain.DefaultHashFamily,
		UniverseSize: domain.DefaultUniverseSize,
		ShingleLen:   domain.DefaultShingleLen,

		// Analyze
		NumDocs:   domain.DefaultNumDocs,
		DocLen:    domain.DefaultDocLen,
		NumTokens: domain.DefaultNumTokens,
		Generator: domain.DefaultGenerator,
		Metric:    domain.DefaultMetric,
		SimCuts:   domain.DefaultSimCuts,

		// Dedup
		IncludePatterns: tomlStringArray(domain.DefaultIncludePatterns()),
		MinTokens:       domain.DefaultMinTokens,
		SortBy:          string(domain.DefaultDedupSortBy),

		// Output
		Format: "text",
	}
}

// tomlStringArray renders a string slice as a TOML array literal
func tomlStringArray(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// GenerateDefaultConfigTOML renders the default config template with domain values
// and returns the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}

// LoadDefaultConfigFromTOML parses the embedded default config and returns
// the resulting Config. Because the template ships fully commented out, the
// result matches DefaultConfig; parsing it in tests guards the template
// against drifting into invalid TOML.
func LoadDefaultConfigFromTOML() (*Config, error) {
	configTOML, err := GenerateDefaultConfigTOML()
	if err != nil {
		return nil, err
	}

	var tomlCfg LshTomlConfig
	if err := toml.Unmarshal([]byte(configTOML), &tomlCfg); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	loader := &TomlConfigLoader{}
	loader.mergeLshTomlConfig(defaults, &tomlCfg)

	return defaults, nil
}
