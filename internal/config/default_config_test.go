package config

import (
	"strings"
	"testing"
)

func TestGenerateDefaultConfigTOML(t *testing.T) {
	rendered, err := GenerateDefaultConfigTOML()
	if err != nil {
		t.Fatalf("Failed to render default config template: %v", err)
	}

	for _, section := range []string{"[cache]", "[analyze]", "[dedup]", "[output]"} {
		if !strings.Contains(rendered, section) {
			t.Errorf("Expected rendered template to contain %s", section)
		}
	}

	// Defaults from the domain package land in the commented values
	for _, line := range []string{
		"# bands = 20",
		"# rows_per_band = 5",
		"# num_hashes = 100",
		`# hash_family = "multiply"`,
		"# universe_size = 2147483647",
		"# num_tokens = 10",
		`# generator = "combinations"`,
		`# metric = "jaccard"`,
		`# sort_by = "location"`,
	} {
		if !strings.Contains(rendered, line) {
			t.Errorf("Expected rendered template to contain %q", line)
		}
	}
}

func TestDefaultConfigTemplateParsesAsDefaults(t *testing.T) {
	config, err := LoadDefaultConfigFromTOML()
	if err != nil {
		t.Fatalf("Failed to parse rendered default config: %v", err)
	}

	// Every value ships commented out, so parsing yields plain defaults
	defaults := DefaultConfig()
	if config.Cache.HashFamily != defaults.Cache.HashFamily {
		t.Errorf("Expected default hash family, got %s", config.Cache.HashFamily)
	}
	if config.Cache.Bands != defaults.Cache.Bands {
		t.Errorf("Expected default bands, got %d", config.Cache.Bands)
	}
	if config.Analyze.SimCuts != defaults.Analyze.SimCuts {
		t.Errorf("Expected default sim_cuts, got %d", config.Analyze.SimCuts)
	}
	if config.Output.Format != defaults.Output.Format {
		t.Errorf("Expected default format, got %s", config.Output.Format)
	}
}
