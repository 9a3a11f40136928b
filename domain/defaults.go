package domain

import (
	"github.com/kecaps/lsh/internal/lsh"
)

// Banding defaults. Twenty bands of five rows put the S-curve threshold
// (1/b)^(1/r) near 0.55, a reasonable near-duplicate cutoff for token sets.
// Reference: Rajaraman, A. & Ullman, J. (2011). Mining of Massive Datasets, ch. 3.
const (
	// DefaultBands is the default number of LSH bands (b).
	DefaultBands = lsh.DefaultBands

	// DefaultRowsPerBand is the default number of signature rows per band (r).
	DefaultRowsPerBand = lsh.DefaultRowsPerBand

	// DefaultNumHashes is the default MinHash signature length (n = b*r).
	DefaultNumHashes = DefaultBands * DefaultRowsPerBand

	// DefaultShingleLen is the default token n-gram length. Bigrams keep
	// word order relevant without exploding the shingle universe.
	DefaultShingleLen = lsh.DefaultShingleLen

	// DefaultUniverseSize bounds the hash universe. 2^31-1 is a Mersenne
	// prime, required by the multiply hash family.
	DefaultUniverseSize = lsh.DefaultUniverseSize

	// DefaultHashFamily selects the MinHash hash family.
	DefaultHashFamily = lsh.DefaultHashFamily
)

// Analysis harness defaults.
const (
	// DefaultMetric is the ground-truth similarity metric the harness
	// compares LSH hits against.
	DefaultMetric = lsh.MetricJaccard

	// DefaultGenerator enumerates synthetic documents as token-set
	// combinations, the cheapest stream with a wide similarity spread.
	DefaultGenerator = lsh.GeneratorCombinations

	// DefaultSimCuts is the number of similarity bins per unit interval;
	// the report has DefaultSimCuts+1 rows because similarity 1.0 gets its
	// own bin.
	DefaultSimCuts = 10

	// DefaultNumTokens is the synthetic token alphabet size.
	DefaultNumTokens = 10

	// DefaultDocLen is the synthetic document length.
	DefaultDocLen = 10

	// DefaultNumDocs caps the number of synthetic documents processed.
	DefaultNumDocs = 1000
)

// Deduplication defaults.
const (
	// DefaultMinTokens filters out files too short to shingle meaningfully.
	DefaultMinTokens = 1

	// DefaultDedupSortBy orders duplicate matches by file location.
	DefaultDedupSortBy = SortByLocation
)

// DefaultIncludePatterns returns the file patterns dedup scans by default.
func DefaultIncludePatterns() []string { return []string{"**/*.txt", "**/*.md"} }

// DefaultExcludePatterns returns the file patterns dedup skips by default.
func DefaultExcludePatterns() []string { return []string{} }

// HashFamilyNames lists the recognized MinHash family names for help text.
func HashFamilyNames() []string { return lsh.HashFamilyNames() }

// MetricNames lists the recognized similarity metric names for help text.
func MetricNames() []string { return lsh.MetricNames() }

// GeneratorNames lists the recognized document generator names for help text.
func GeneratorNames() []string { return lsh.GeneratorNames() }
