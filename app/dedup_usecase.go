package app

import (
	"context"
	"fmt"
	"io"

	"github.com/kecaps/lsh/domain"
	svc "github.com/kecaps/lsh/service"
)

// DedupUseCase orchestrates the duplicate detection workflow
type DedupUseCase struct {
	service      domain.DedupService
	fileReader   domain.FileReader
	formatter    domain.DedupOutputFormatter
	configLoader domain.DedupConfigurationLoader
	output       domain.ReportWriter
}

// NewDedupUseCase creates a new duplicate detection use case
func NewDedupUseCase(
	service domain.DedupService,
	fileReader domain.FileReader,
	formatter domain.DedupOutputFormatter,
	configLoader domain.DedupConfigurationLoader,
) *DedupUseCase {
	return &DedupUseCase{
		service:      service,
		fileReader:   fileReader,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// formatterFor returns the formatter to use for a run. When none was injected
// a default one is built per run, since candidate details are a request-level
// toggle and the response does not carry the request back.
func (uc *DedupUseCase) formatterFor(req *domain.DedupRequest) domain.DedupOutputFormatter {
	if uc.formatter != nil {
		return uc.formatter
	}
	return svc.NewDedupFormatter(req.ShowDetails)
}

// prepareDetection handles common preparation steps for a run. Config is
// merged before validation so that callers may leave banding fields at zero
// and rely on the config file (or built-in defaults) to supply valid values.
// On success the returned request carries the resolved file list in Paths.
func (uc *DedupUseCase) prepareDetection(req domain.DedupRequest) (domain.DedupRequest, error) {
	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return req, domain.NewConfigError("failed to load configuration", err)
	}

	if err := uc.validateRequest(finalReq); err != nil {
		return req, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveFilePaths(
		uc.fileReader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return req, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return req, domain.NewInvalidInputError("no files found in the specified paths", nil)
	}

	finalReq.Paths = files
	return finalReq, nil
}

// Execute performs the complete duplicate detection workflow
func (uc *DedupUseCase) Execute(ctx context.Context, req domain.DedupRequest) error {
	finalReq, err := uc.prepareDetection(req)
	if err != nil {
		return err
	}

	response, err := uc.service.DetectDuplicatesInFiles(ctx, finalReq.Paths, &finalReq)
	if err != nil {
		return domain.NewAnalysisError("duplicate detection failed", err)
	}

	return uc.writeResponse(response, &finalReq)
}

// ExecuteWithFiles performs duplicate detection on a pre-collected file list
func (uc *DedupUseCase) ExecuteWithFiles(ctx context.Context, filePaths []string, req domain.DedupRequest) error {
	validFiles := make([]string, 0, len(filePaths))
	for _, path := range filePaths {
		exists, err := uc.fileReader.FileExists(path)
		if err == nil && exists {
			validFiles = append(validFiles, path)
		}
	}
	if len(validFiles) == 0 {
		return domain.NewInvalidInputError("no valid files provided", nil)
	}

	// Resolution short-circuits on a list of plain files, so the shared
	// preparation path reuses the list as is.
	req.Paths = validFiles
	return uc.Execute(ctx, req)
}

// DetectAndReturn performs duplicate detection and returns the response
// without formatting
func (uc *DedupUseCase) DetectAndReturn(ctx context.Context, req domain.DedupRequest) (*domain.DedupResponse, error) {
	finalReq, err := uc.prepareDetection(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.DetectDuplicatesInFiles(ctx, finalReq.Paths, &finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("duplicate detection failed", err)
	}

	return response, nil
}

// writeResponse formats the response and writes it to the configured target
func (uc *DedupUseCase) writeResponse(response *domain.DedupResponse, req *domain.DedupRequest) error {
	formatter := uc.formatterFor(req)

	var out io.Writer
	if req.OutputPath == "" {
		out = req.OutputWriter
	}
	if err := uc.output.Write(out, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}

// validateRequest validates the duplicate detection request
func (uc *DedupUseCase) validateRequest(req domain.DedupRequest) error {
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	return req.Validate()
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *DedupUseCase) loadAndMergeConfig(req domain.DedupRequest) (domain.DedupRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.DedupRequest
	var err error

	if req.ConfigPath != "" {
		configReq, err = uc.configLoader.LoadConfig(req.ConfigPath)
		if err != nil {
			return req, fmt.Errorf("failed to load config from %s: %w", req.ConfigPath, err)
		}
	} else {
		configReq = uc.configLoader.LoadDefaultConfig()
	}

	if configReq != nil {
		merged := uc.configLoader.MergeConfig(configReq, &req)
		return *merged, nil
	}

	return req, nil
}

// DedupUseCaseBuilder provides a builder pattern for creating DedupUseCase
type DedupUseCaseBuilder struct {
	service      domain.DedupService
	fileReader   domain.FileReader
	formatter    domain.DedupOutputFormatter
	configLoader domain.DedupConfigurationLoader
	output       domain.ReportWriter
}

// NewDedupUseCaseBuilder creates a new builder
func NewDedupUseCaseBuilder() *DedupUseCaseBuilder {
	return &DedupUseCaseBuilder{}
}

// WithService sets the duplicate detection service
func (b *DedupUseCaseBuilder) WithService(service domain.DedupService) *DedupUseCaseBuilder {
	b.service = service
	return b
}

// WithFileReader sets the file reader
func (b *DedupUseCaseBuilder) WithFileReader(fileReader domain.FileReader) *DedupUseCaseBuilder {
	b.fileReader = fileReader
	return b
}

// WithFormatter sets the output formatter
func (b *DedupUseCaseBuilder) WithFormatter(formatter domain.DedupOutputFormatter) *DedupUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *DedupUseCaseBuilder) WithConfigLoader(configLoader domain.DedupConfigurationLoader) *DedupUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *DedupUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *DedupUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the DedupUseCase with the configured dependencies
func (b *DedupUseCaseBuilder) Build() (*DedupUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("duplicate detection service is required")
	}
	if b.fileReader == nil {
		return nil, fmt.Errorf("file reader is required")
	}

	uc := NewDedupUseCase(
		b.service,
		b.fileReader,
		b.formatter,
		b.configLoader,
	)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}
