package main

import (
	"os"

	"github.com/kecaps/lsh/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lsh",
	Short: "MinHash LSH toolkit for near-duplicate text detection",
	Long: `lsh indexes token sequences with MinHash signatures and banded
Locality-Sensitive Hashing to find near-duplicate documents without
comparing every pair.

Features:
  • Near-duplicate file detection over directories of text
  • Detection-rate analysis against exact similarity on synthetic corpora
  • Tunable banding (bands x rows) with the implied similarity threshold
  • Reproducible runs via seeded hash families`,
	Version: version.Short(),
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Add main subcommands
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewDedupCmd())
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
