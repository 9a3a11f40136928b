package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kecaps/lsh/internal/config"
)

// generateTimestampedFileName generates a filename with timestamp suffix
func generateTimestampedFileName(command, extension string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", command, timestamp, extension)
}

// resolveOutputDirectory determines the output directory from configuration.
// Returns directory path and any error encountered during config loading.
func resolveOutputDirectory(targetPath string) (string, error) {
	cfg, err := config.LoadConfigWithTarget("", targetPath)
	if err != nil {
		// Don't hide configuration errors - they should be visible to users
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg != nil && cfg.Output.Directory != "" {
		return cfg.Output.Directory, nil
	}

	// Default output directory when not specified in config.
	// A tool-specific hidden directory under the current working directory
	// avoids writing reports into the scanned directories themselves.
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".lsh", "reports"), nil
	}
	return filepath.Join(cwd, ".lsh", "reports"), nil
}

// generateOutputFilePath combines filename generation and directory resolution
// and ensures the directory exists before returning the full path.
func generateOutputFilePath(command, extension, targetPath string) (string, error) {
	filename := generateTimestampedFileName(command, extension)
	outputDir, err := resolveOutputDirectory(targetPath)
	if err != nil {
		return "", err
	}

	// outputDir is always non-empty because resolveOutputDirectory falls
	// back to .lsh/reports under the CWD when config is unset.
	if mkErr := os.MkdirAll(outputDir, 0o755); mkErr != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, mkErr)
	}
	return filepath.Join(outputDir, filename), nil
}

// getTargetPathFromArgs extracts the first argument as target path, or returns empty string
func getTargetPathFromArgs(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// splitShingleFlag maps the --shingle-len flag values onto the request's
// fixed-length or min/max form. An empty slice leaves all three unset so the
// configuration file (or the built-in bigram default) decides.
func splitShingleFlag(values []int) (shingleLen, minShingle, maxShingle int, err error) {
	switch len(values) {
	case 0:
		return 0, 0, 0, nil
	case 1:
		return values[0], 0, 0, nil
	case 2:
		return 0, values[0], values[1], nil
	default:
		return 0, 0, 0, fmt.Errorf("--shingle-len takes one length or a min and max, got %d values", len(values))
	}
}

// joinChoices renders a list of recognized option values for flag help text
func joinChoices(choices []string) string {
	return strings.Join(choices, "|")
}
