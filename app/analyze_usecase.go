package app

import (
	"context"
	"fmt"
	"io"

	"github.com/kecaps/lsh/domain"
	svc "github.com/kecaps/lsh/service"
)

// AnalyzeUseCase orchestrates the detection-rate analysis workflow
type AnalyzeUseCase struct {
	service      domain.AnalyzeService
	formatter    domain.AnalyzeOutputFormatter
	configLoader domain.AnalyzeConfigurationLoader
	output       domain.ReportWriter
}

// NewAnalyzeUseCase creates a new analysis use case
func NewAnalyzeUseCase(
	service domain.AnalyzeService,
	formatter domain.AnalyzeOutputFormatter,
	configLoader domain.AnalyzeConfigurationLoader,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		service:      service,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// prepareRequest handles common preparation steps for a run. Config is
// merged before validation so that callers may leave banding fields at zero
// and rely on the config file (or built-in defaults) to supply valid values.
func (uc *AnalyzeUseCase) prepareRequest(req domain.AnalyzeRequest) (domain.AnalyzeRequest, error) {
	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return req, domain.NewConfigError("failed to load configuration", err)
	}

	if err := uc.validateRequest(finalReq); err != nil {
		return req, domain.NewInvalidInputError("invalid request", err)
	}

	return finalReq, nil
}

// Execute performs the complete analysis workflow
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest) error {
	finalReq, err := uc.prepareRequest(req)
	if err != nil {
		return err
	}

	response, err := uc.service.Analyze(ctx, &finalReq)
	if err != nil {
		return domain.NewAnalysisError("similarity analysis failed", err)
	}

	var out io.Writer
	if finalReq.OutputPath == "" {
		out = finalReq.OutputWriter
	}
	if err := uc.output.Write(out, finalReq.OutputPath, finalReq.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, finalReq.OutputFormat, w)
	}); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}

// AnalyzeAndReturn performs the analysis and returns the response without
// formatting
func (uc *AnalyzeUseCase) AnalyzeAndReturn(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	finalReq, err := uc.prepareRequest(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.Analyze(ctx, &finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("similarity analysis failed", err)
	}

	return response, nil
}

// validateRequest validates the analysis request
func (uc *AnalyzeUseCase) validateRequest(req domain.AnalyzeRequest) error {
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	return req.Validate()
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *AnalyzeUseCase) loadAndMergeConfig(req domain.AnalyzeRequest) (domain.AnalyzeRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.AnalyzeRequest
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

// AnalyzeUseCaseBuilder provides a builder pattern for creating AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	service      domain.AnalyzeService
	formatter    domain.AnalyzeOutputFormatter
	configLoader domain.AnalyzeConfigurationLoader
	output       domain.ReportWriter
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithService sets the analysis service
func (b *AnalyzeUseCaseBuilder) WithService(service domain.AnalyzeService) *AnalyzeUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the output formatter
func (b *AnalyzeUseCaseBuilder) WithFormatter(formatter domain.AnalyzeOutputFormatter) *AnalyzeUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *AnalyzeUseCaseBuilder) WithConfigLoader(configLoader domain.AnalyzeConfigurationLoader) *AnalyzeUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *AnalyzeUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *AnalyzeUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the AnalyzeUseCase with the configured dependencies
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := NewAnalyzeUseCase(
		b.service,
		b.formatter,
		b.configLoader,
	)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}
