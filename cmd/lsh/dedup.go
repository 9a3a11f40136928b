package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kecaps/lsh/app"
	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/service"
)

// DedupCommand handles the near-duplicate file detection CLI command
type DedupCommand struct {
	// Input parameters
	recursive       bool
	configFile      string
	includePatterns []string
	excludePatterns []string

	// LSH cache parameters (zero banding values are derived, see analyze)
	bands        int
	rowsPerBand  int
	numHashes    int
	hashFamily   string
	universeSize uint64
	seed         int64
	shingleLen   []int

	// Filtering
	minTokens int

	// Output format flags (only one should be true)
	json bool
	csv  bool
	yaml bool

	// Output options
	showDetails bool
	sortBy      string
	noProgress  bool
}

// NewDedupCommand creates a new near-duplicate detection command
func NewDedupCommand() *DedupCommand {
	return &DedupCommand{
		recursive:       true,
		includePatterns: domain.DefaultIncludePatterns(),
		excludePatterns: domain.DefaultExcludePatterns(),
		hashFamily:      domain.DefaultHashFamily,
		universeSize:    domain.DefaultUniverseSize,
		minTokens:       domain.DefaultMinTokens,
		sortBy:          string(domain.DefaultDedupSortBy),
	}
}

// CreateCobraCommand creates the Cobra command for near-duplicate detection
func (c *DedupCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup [paths...]",
		Short: "Find near-duplicate text files",
		Long: `Find near-duplicate text files using MinHash signatures and banded LSH.

Each file is whitespace-tokenized, shingled, and inserted into an LSH cache.
Files sharing at least one band bucket are reported as candidate
near-duplicates, without ever comparing every pair of files. Candidates are
grouped transitively, so a report group holds files that are all connected
through shared buckets.

The banding parameters trade precision against recall: more bands with fewer
rows flag more distant pairs, fewer bands with more rows flag only close
ones. Run 'lsh analyze' with the same parameters to see the detection curve
they imply.

Examples:
  # Scan the current directory tree
  lsh dedup

  # Scan specific directories, text files only
  lsh dedup --include "**/*.txt" docs/ archive/

  # Stricter matching: 10 bands of 10 rows
  lsh dedup -b 10 -r 10 corpus/

  # Show each file's candidates and write a JSON report
  lsh dedup --details --json corpus/`,
		RunE: c.runDedup,
	}

	// Input flags
	cmd.Flags().BoolVar(&c.recursive, "recursive", c.recursive,
		"Recursively scan directories")
	cmd.Flags().StringSliceVar(&c.includePatterns, "include", c.includePatterns,
		"File patterns to include")
	cmd.Flags().StringSliceVar(&c.excludePatterns, "exclude", c.excludePatterns,
		"File patterns to exclude")

	// LSH cache flags
	cmd.Flags().IntVarP(&c.bands, "bands", "b", c.bands,
		"Number of LSH bands (0 = derive; defaults to 20)")
	cmd.Flags().IntVarP(&c.rowsPerBand, "rows-per-band", "r", c.rowsPerBand,
		"Signature rows per band (0 = derive; defaults to 5)")
	cmd.Flags().IntVarP(&c.numHashes, "num-hashes", "n", c.numHashes,
		"Total MinHash signature length (0 = bands*rows-per-band)")
	cmd.Flags().StringVar(&c.hashFamily, "hash-family", c.hashFamily,
		fmt.Sprintf("MinHash hash family: %s", joinChoices(domain.HashFamilyNames())))
	cmd.Flags().Uint64VarP(&c.universeSize, "universe-size", "u", c.universeSize,
		"Size of the hash universe")
	cmd.Flags().Int64Var(&c.seed, "seed", c.seed,
		"Hash family random seed")
	cmd.Flags().IntSliceVar(&c.shingleLen, "shingle-len", nil,
		"Shingle length, or a min and max (e.g. --shingle-len 2,3)")

	// Filtering flags
	cmd.Flags().IntVar(&c.minTokens, "min-tokens", c.minTokens,
		"Skip files with fewer whitespace tokens")

	// Output format flags
	cmd.Flags().BoolVar(&c.json, "json", false, "Generate JSON report file")
	cmd.Flags().BoolVar(&c.csv, "csv", false, "Generate CSV report file")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Generate YAML report file")

	// Output options
	cmd.Flags().BoolVarP(&c.showDetails, "details", "d", c.showDetails,
		"Show each file's candidate duplicates")
	cmd.Flags().StringVar(&c.sortBy, "sort", c.sortBy,
		"Sort results by: location, size, matches")
	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", c.configFile,
		"Configuration file path")

	return cmd
}

// runDedup executes the near-duplicate detection command
func (c *DedupCommand) runDedup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	request, err := c.buildDedupRequest(cmd, args)
	if err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}

	useCase, err := c.createDedupUseCase(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize duplicate detection: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := useCase.Execute(ctx, *request); err != nil {
		return c.handleDetectionError(err)
	}

	return nil
}

// buildDedupRequest creates a domain request from CLI flags
func (c *DedupCommand) buildDedupRequest(cmd *cobra.Command, paths []string) (*domain.DedupRequest, error) {
	outputFormat, extension, err := service.NewOutputFormatResolver().Determine(c.json, c.csv, c.yaml)
	if err != nil {
		return nil, err
	}

	// Text goes to stdout; the file formats generate a report file
	var outputWriter io.Writer
	var outputPath string
	if outputFormat == domain.OutputFormatText {
		outputWriter = cmd.OutOrStdout()
	} else {
		targetPath := getTargetPathFromArgs(paths)
		outputPath, err = generateOutputFilePath("dedup", extension, targetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to generate output path: %w", err)
		}
	}

	sortBy, err := c.parseSortCriteria(c.sortBy)
	if err != nil {
		return nil, err
	}

	shingleLen, minShingle, maxShingle, err := splitShingleFlag(c.shingleLen)
	if err != nil {
		return nil, err
	}

	return &domain.DedupRequest{
		Paths:           paths,
		Recursive:       c.recursive,
		IncludePatterns: c.includePatterns,
		ExcludePatterns: c.excludePatterns,
		Bands:           c.bands,
		RowsPerBand:     c.rowsPerBand,
		NumHashes:       c.numHashes,
		HashFamily:      c.hashFamily,
		UniverseSize:    c.universeSize,
		Seed:            c.seed,
		ShingleLen:      shingleLen,
		MinShingle:      minShingle,
		MaxShingle:      maxShingle,
		MinTokens:       c.minTokens,
		OutputFormat:    outputFormat,
		OutputWriter:    outputWriter,
		OutputPath:      outputPath,
		ShowDetails:     c.showDetails,
		SortBy:          sortBy,
		ShowProgress:    !c.noProgress,
		ConfigPath:      c.configFile,
	}, nil
}

// createDedupUseCase creates the use case with all dependencies. No formatter
// is injected: the use case builds one per run from the merged request, so a
// config file can still toggle candidate details.
func (c *DedupCommand) createDedupUseCase(cmd *cobra.Command) (*app.DedupUseCase, error) {
	// Track which flags were explicitly set by the user
	explicitFlags := GetExplicitFlags(cmd)

	fileReader := service.NewFileReader()
	configLoader := service.NewDedupConfigLoader(explicitFlags)

	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	dedupService := service.NewDedupService(fileReader, progress, service.NewTaskRunner())

	return app.NewDedupUseCaseBuilder().
		WithService(dedupService).
		WithFileReader(fileReader).
		WithConfigLoader(configLoader).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
}

// parseSortCriteria parses and validates the sort criteria
func (c *DedupCommand) parseSortCriteria(sort string) (domain.SortCriteria, error) {
	switch strings.ToLower(sort) {
	case "location":
		return domain.SortByLocation, nil
	case "size":
		return domain.SortBySize, nil
	case "matches":
		return domain.SortByMatches, nil
	default:
		return "", fmt.Errorf("unsupported sort criteria: %s (supported: location, size, matches)", sort)
	}
}

// handleDetectionError converts domain errors to user-friendly messages
func (c *DedupCommand) handleDetectionError(err error) error {
	if domainErr, ok := domain.AsDomainError(err); ok {
		switch domainErr.Code {
		case domain.ErrCodeFileNotFound:
			return fmt.Errorf("file not found: %s", domainErr.Message)
		case domain.ErrCodeInvalidInput:
			return fmt.Errorf("invalid input: %s", domainErr.Message)
		case domain.ErrCodeConfigError:
			return fmt.Errorf("configuration error: %s", domainErr.Message)
		case domain.ErrCodeAnalysisError:
			return fmt.Errorf("duplicate detection failed: %s", domainErr.Message)
		case domain.ErrCodeOutputError:
			return fmt.Errorf("output error: %s", domainErr.Message)
		case domain.ErrCodeUnsupportedFormat:
			return fmt.Errorf("unsupported format: %s", domainErr.Message)
		default:
			return fmt.Errorf("detection error: %s", domainErr.Message)
		}
	}
	return err
}

// NewDedupCmd creates and returns the dedup cobra command
func NewDedupCmd() *cobra.Command {
	dedupCommand := NewDedupCommand()
	return dedupCommand.CreateCobraCommand()
}
