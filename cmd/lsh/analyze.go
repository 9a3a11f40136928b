package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kecaps/lsh/app"
	"github.com/kecaps/lsh/domain"
	"github.com/kecaps/lsh/service"
)

// AnalyzeCommand handles the detection-rate analysis CLI command
type AnalyzeCommand struct {
	// LSH cache parameters. The banding triple stays at zero so a single
	// explicit flag never contradicts values derived from the others.
	bands        int
	rowsPerBand  int
	numHashes    int
	hashFamily   string
	universeSize uint64
	shingleLen   []int

	// Document generation parameters
	numDocs   int
	docLen    []int
	numTokens int
	generator string

	// Measurement parameters
	similarity string
	simCuts    int
	seeds      []int64

	// Output format flags (only one should be true)
	json bool
	csv  bool
	yaml bool

	// Output options
	noProgress bool
	configFile string
}

// NewAnalyzeCommand creates a new analysis command
func NewAnalyzeCommand() *AnalyzeCommand {
	return &AnalyzeCommand{
		hashFamily:   domain.DefaultHashFamily,
		universeSize: domain.DefaultUniverseSize,
		numDocs:      domain.DefaultNumDocs,
		docLen:       []int{domain.DefaultDocLen},
		numTokens:    domain.DefaultNumTokens,
		generator:    domain.DefaultGenerator,
		similarity:   domain.DefaultMetric,
		simCuts:      domain.DefaultSimCuts,
	}
}

// CreateCobraCommand creates the Cobra command for detection-rate analysis
func (c *AnalyzeCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Measure LSH detection rates on a synthetic corpus",
		Long: `Measure how often the LSH cache flags document pairs as near-duplicates,
compared against their true similarity.

The command generates synthetic documents over a small token alphabet,
inserts each one into a fresh cache, and records which previously inserted
documents the cache reports as candidates. Every pair is binned by its true
similarity, and the report compares the empirical detection fraction per bin
with the theoretical banding curve 1-(1-s^r)^b.

Use it to validate banding parameters before indexing real data: the
empirical column should track the theoretical one, and the curve's steep
section marks the similarity threshold the parameters imply.

Examples:
  # Analyze the default 20x5 banding over combination documents
  lsh analyze

  # Loose banding: 50 bands of 2 rows
  lsh analyze -b 50 -r 2

  # Factor 70 hashes into the most even banding automatically
  lsh analyze -n 70

  # Longer documents drawn with repetition, measured with edit similarity
  lsh analyze -g combinations_replacement --doc-len 8,12 -s edit

  # Reproducible run written to a JSON report file
  lsh analyze --seed 42 --json`,
		Args: cobra.NoArgs,
		RunE: c.runAnalyze,
	}

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
	cmd.Flags().IntSliceVar(&c.shingleLen, "shingle-len", nil,
		"Shingle length, or a min and max (e.g. --shingle-len 2,3)")

	// Document generation flags
	cmd.Flags().IntVarP(&c.numDocs, "num-docs", "d", c.numDocs,
		"Number of documents to generate (0 = full generator stream)")
	cmd.Flags().IntSliceVar(&c.docLen, "doc-len", c.docLen,
		"Generated document length, or a min and max")
	cmd.Flags().IntVarP(&c.numTokens, "num-tokens", "t", c.numTokens,
		"Number of distinct tokens in generated documents")
	cmd.Flags().StringVarP(&c.generator, "generator", "g", c.generator,
		fmt.Sprintf("Document generator: %s", joinChoices(domain.GeneratorNames())))

	// Measurement flags
	cmd.Flags().StringVarP(&c.similarity, "similarity", "s", c.similarity,
		fmt.Sprintf("Ground-truth similarity metric: %s", joinChoices(domain.MetricNames())))
	cmd.Flags().IntVar(&c.simCuts, "sim-cuts", c.simCuts,
		"Number of similarity bins in the report")
	cmd.Flags().Int64SliceVar(&c.seeds, "seed", nil,
		"Random seed; the first seed fixes the hash family (repeatable)")

	// Output format flags
	cmd.Flags().BoolVar(&c.json, "json", false, "Generate JSON report file")
	cmd.Flags().BoolVar(&c.csv, "csv", false, "Generate CSV report file")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Generate YAML report file")

	// Output options
	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", c.configFile,
		"Configuration file path")

	return cmd
}

// runAnalyze executes the analysis command
func (c *AnalyzeCommand) runAnalyze(cmd *cobra.Command, args []string) error {
	request, err := c.buildAnalyzeRequest(cmd)
	if err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}

	useCase, err := c.createAnalyzeUseCase(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := useCase.Execute(ctx, *request); err != nil {
		return c.handleAnalysisError(err)
	}

	return nil
}

// buildAnalyzeRequest creates a domain request from CLI flags
func (c *AnalyzeCommand) buildAnalyzeRequest(cmd *cobra.Command) (*domain.AnalyzeRequest, error) {
	outputFormat, extension, err := service.NewOutputFormatResolver().Determine(c.json, c.csv, c.yaml)
	if err != nil {
		return nil, err
	}

	// Text goes to stdout; the file formats generate a report file. The
	// working directory anchors config discovery since analyze takes no
	// target paths.
	var outputWriter io.Writer
	var outputPath string
	if outputFormat == domain.OutputFormatText {
		outputWriter = cmd.OutOrStdout()
	} else {
		outputPath, err = generateOutputFilePath("analyze", extension, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to generate output path: %w", err)
		}
	}

	shingleLen, minShingle, maxShingle, err := splitShingleFlag(c.shingleLen)
	if err != nil {
		return nil, err
	}

	return &domain.AnalyzeRequest{
		Bands:        c.bands,
		RowsPerBand:  c.rowsPerBand,
		NumHashes:    c.numHashes,
		HashFamily:   c.hashFamily,
		UniverseSize: c.universeSize,
		ShingleLen:   shingleLen,
		MinShingle:   minShingle,
		MaxShingle:   maxShingle,
		Seeds:        c.seeds,
		NumDocs:      c.numDocs,
		DocLen:       c.docLen,
		NumTokens:    c.numTokens,
		Generator:    c.generator,
		Metric:       c.similarity,
		SimCuts:      c.simCuts,
		OutputFormat: outputFormat,
		OutputWriter: outputWriter,
		OutputPath:   outputPath,
		ShowProgress: !c.noProgress,
		ConfigPath:   c.configFile,
	}, nil
}

// createAnalyzeUseCase creates the use case with all dependencies
func (c *AnalyzeCommand) createAnalyzeUseCase(cmd *cobra.Command) (*app.AnalyzeUseCase, error) {
	// Track which flags were explicitly set by the user
	explicitFlags := GetExplicitFlags(cmd)

	formatter := service.NewAnalyzeFormatter()
	configLoader := service.NewAnalyzeConfigLoader(explicitFlags)

	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	analyzeService := service.NewAnalyzeService(progress, service.NewTaskRunner())

	return app.NewAnalyzeUseCaseBuilder().
		WithService(analyzeService).
		WithFormatter(formatter).
		WithConfigLoader(configLoader).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
}

// handleAnalysisError converts domain errors to user-friendly messages
func (c *AnalyzeCommand) handleAnalysisError(err error) error {
	if domainErr, ok := domain.AsDomainError(err); ok {
		switch domainErr.Code {
		case domain.ErrCodeInvalidInput:
			return fmt.Errorf("invalid input: %s", domainErr.Message)
		case domain.ErrCodeConfigError:
			return fmt.Errorf("configuration error: %s", domainErr.Message)
		case domain.ErrCodeAnalysisError:
			return fmt.Errorf("analysis failed: %s", domainErr.Message)
		case domain.ErrCodeOutputError:
			return fmt.Errorf("output error: %s", domainErr.Message)
		case domain.ErrCodeUnsupportedFormat:
			return fmt.Errorf("unsupported format: %s", domainErr.Message)
		default:
			return fmt.Errorf("analysis error: %s", domainErr.Message)
		}
	}
	return err
}

// NewAnalyzeCmd creates and returns the analyze cobra command
func NewAnalyzeCmd() *cobra.Command {
	analyzeCommand := NewAnalyzeCommand()
	return analyzeCommand.CreateCobraCommand()
}
