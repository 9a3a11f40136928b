package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/kecaps/lsh/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations
type mockDedupService struct {
	mock.Mock
}

func (m *mockDedupService) DetectDuplicates(ctx context.Context, req *domain.DedupRequest) (*domain.DedupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DedupResponse), args.Error(1)
}

func (m *mockDedupService) DetectDuplicatesInFiles(ctx context.Context, filePaths []string, req *domain.DedupRequest) (*domain.DedupResponse, error) {
	args := m.Called(ctx, filePaths, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DedupResponse), args.Error(1)
}

type mockDedupFormatter struct {
	mock.Mock
}

func (m *mockDedupFormatter) Format(response *domain.DedupResponse, format domain.OutputFormat) (string, error) {
	args := m.Called(response, format)
	return args.String(0), args.Error(1)
}

func (m *mockDedupFormatter) Write(response *domain.DedupResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	return args.Error(0)
}

type mockDedupConfigLoader struct {
	mock.Mock
}

func (m *mockDedupConfigLoader) LoadConfig(path string) (*domain.DedupRequest, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DedupRequest), args.Error(1)
}

func (m *mockDedupConfigLoader) LoadDefaultConfig() *domain.DedupRequest {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.DedupRequest)
}

func (m *mockDedupConfigLoader) MergeConfig(base *domain.DedupRequest, override *domain.DedupRequest) *domain.DedupRequest {
	args := m.Called(base, override)
	return args.Get(0).(*domain.DedupRequest)
}

// Helper functions
func setupDedupUseCaseMocks() (*DedupUseCase, *mockDedupService, *MockFileReader, *mockDedupFormatter, *mockDedupConfigLoader) {
	service := &mockDedupService{}
	fileReader := &MockFileReader{}
	formatter := &mockDedupFormatter{}
	configLoader := &mockDedupConfigLoader{}

	useCase := NewDedupUseCase(service, fileReader, formatter, configLoader)
	return useCase, service, fileReader, formatter, configLoader
}

func createValidDedupRequest() domain.DedupRequest {
	req := *domain.DefaultDedupRequest()
	req.Paths = []string{"/test/a.txt"}
	req.OutputWriter = os.Stdout
	return req
}

func createMockDedupResponse() *domain.DedupResponse {
	return &domain.DedupResponse{
		Matches: []domain.DuplicateMatch{
			{
				Path:       "/test/a.txt",
				DocID:      0,
				TokenCount: 12,
				Duplicates: []domain.DuplicateRef{{Path: "/test/b.txt", DocID: 1}},
			},
			{
				Path:       "/test/b.txt",
				DocID:      1,
				TokenCount: 12,
				Duplicates: []domain.DuplicateRef{{Path: "/test/a.txt", DocID: 0}},
			},
		},
		Groups: []domain.DuplicateGroup{
			{ID: 1, Paths: []string{"/test/a.txt", "/test/b.txt"}, Size: 2},
		},
		Summary: domain.DedupSummary{
			TotalFiles:          2,
			FilesWithDuplicates: 2,
			TotalGroups:         1,
			LargestGroupSize:    2,
			IndexStats:          domain.IndexStats{Bands: 20, RowsPerBand: 5, NumBuckets: 40},
		},
		Duration:    3,
		GeneratedAt: "2025-01-01T00:00:00Z",
	}
}

func TestDedupUseCase_Execute(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(*mockDedupService, *MockFileReader, *mockDedupFormatter, *mockDedupConfigLoader)
		request     domain.DedupRequest
		expectError bool
		errorMsg    string
	}{
		{
			name: "successful execution with valid request",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
				fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
				service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
					Return(createMockDedupResponse(), nil)
				formatter.On("Write", mock.Anything, domain.OutputFormatText, mock.AnythingOfType("*os.File")).Return(nil)
			},
			request:     createValidDedupRequest(),
			expectError: false,
		},
		{
			name: "validation error - no output target",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				// Config is merged before validation, so the loader still runs
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.OutputWriter = nil
				return req
			}(),
			expectError: true,
			errorMsg:    "output writer or output path is required",
		},
		{
			name: "validation error - empty paths",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.Paths = nil
				return req
			}(),
			expectError: true,
			errorMsg:    "paths cannot be empty",
		},
		{
			name: "configuration loading error",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadConfig", "/invalid/config.yaml").
					Return((*domain.DedupRequest)(nil), errors.New("config file not found"))
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.ConfigPath = "/invalid/config.yaml"
				return req
			}(),
			expectError: true,
			errorMsg:    "failed to load configuration",
		},
		{
			name: "file collection error",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
				fileReader.On("FileExists", "/invalid/path").Return(false, nil)
				fileReader.On("CollectFiles", []string{"/invalid/path"}, true, domain.DefaultIncludePatterns(), []string(nil)).
					Return(nil, errors.New("path not found"))
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.Paths = []string{"/invalid/path"}
				return req
			}(),
			expectError: true,
			errorMsg:    "failed to collect files",
		},
		{
			name: "no files found error",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
				fileReader.On("FileExists", "/empty/path").Return(false, nil)
				fileReader.On("CollectFiles", []string{"/empty/path"}, true, domain.DefaultIncludePatterns(), []string(nil)).
					Return([]string{}, nil)
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.Paths = []string{"/empty/path"}
				return req
			}(),
			expectError: true,
			errorMsg:    "no files found in the specified paths",
		},
		{
			name: "detection service error",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
				fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
				service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
					Return((*domain.DedupResponse)(nil), errors.New("index insertion failed"))
			},
			request:     createValidDedupRequest(),
			expectError: true,
			errorMsg:    "duplicate detection failed",
		},
		{
			name: "output formatting error",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
				fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
				service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
					Return(createMockDedupResponse(), nil)
				formatter.On("Write", mock.Anything, domain.OutputFormatText, os.Stdout).
					Return(errors.New("write failed"))
			},
			request:     createValidDedupRequest(),
			expectError: true,
			errorMsg:    "failed to write output",
		},
		{
			name: "successful execution with config loading",
			setupMocks: func(service *mockDedupService, fileReader *MockFileReader, formatter *mockDedupFormatter, configLoader *mockDedupConfigLoader) {
				configReq := domain.DefaultDedupRequest()
				configReq.MinTokens = 25
				mergedReq := createValidDedupRequest()
				mergedReq.MinTokens = 25

				configLoader.On("LoadConfig", "/config.yaml").Return(configReq, nil)
				configLoader.On("MergeConfig", configReq, mock.AnythingOfType("*domain.DedupRequest")).
					Return(&mergedReq)
				fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
				service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.MatchedBy(func(r *domain.DedupRequest) bool {
					return r.MinTokens == 25
				})).Return(createMockDedupResponse(), nil)
				formatter.On("Write", mock.Anything, domain.OutputFormatText, mock.AnythingOfType("*os.File")).Return(nil)
			},
			request: func() domain.DedupRequest {
				req := createValidDedupRequest()
				req.ConfigPath = "/config.yaml"
				return req
			}(),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase, service, fileReader, formatter, configLoader := setupDedupUseCaseMocks()

			tt.setupMocks(service, fileReader, formatter, configLoader)

			err := useCase.Execute(context.Background(), tt.request)

			if tt.expectError {
				assert.Error(t, err)
				assert.IsType(t, domain.DomainError{}, err)
				if tt.errorMsg != "" {
					assert.Contains(t, err.Error(), tt.errorMsg)
				}
			} else {
				assert.NoError(t, err)
			}

			// Verify all mock expectations
			service.AssertExpectations(t)
			fileReader.AssertExpectations(t)
			formatter.AssertExpectations(t)
			configLoader.AssertExpectations(t)
		})
	}
}

func TestDedupUseCase_ExecuteWithFiles(t *testing.T) {
	t.Run("filters out missing files before detection", func(t *testing.T) {
		useCase, service, fileReader, formatter, configLoader := setupDedupUseCaseMocks()

		configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
		fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
		fileReader.On("FileExists", "/test/missing.txt").Return(false, nil)
		service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
			Return(createMockDedupResponse(), nil)
		formatter.On("Write", mock.Anything, domain.OutputFormatText, mock.AnythingOfType("*os.File")).Return(nil)

		req := createValidDedupRequest()
		req.Paths = nil

		err := useCase.ExecuteWithFiles(context.Background(), []string{"/test/a.txt", "/test/missing.txt"}, req)

		assert.NoError(t, err)
		service.AssertExpectations(t)
		fileReader.AssertExpectations(t)
		formatter.AssertExpectations(t)
	})

	t.Run("fails when no valid files remain", func(t *testing.T) {
		useCase, service, fileReader, formatter, _ := setupDedupUseCaseMocks()

		fileReader.On("FileExists", "/test/missing.txt").Return(false, nil)

		req := createValidDedupRequest()
		req.Paths = nil

		err := useCase.ExecuteWithFiles(context.Background(), []string{"/test/missing.txt"}, req)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no valid files provided")
		service.AssertNotCalled(t, "DetectDuplicatesInFiles")
		formatter.AssertNotCalled(t, "Write")
	})
}

func TestDedupUseCase_DetectAndReturn(t *testing.T) {
	t.Run("returns response without formatting", func(t *testing.T) {
		useCase, service, fileReader, formatter, configLoader := setupDedupUseCaseMocks()

		configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
		fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
		service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
			Return(createMockDedupResponse(), nil)

		response, err := useCase.DetectAndReturn(context.Background(), createValidDedupRequest())

		assert.NoError(t, err)
		assert.NotNil(t, response)
		assert.Len(t, response.Groups, 1)
		assert.Equal(t, 2, response.Summary.FilesWithDuplicates)
		formatter.AssertNotCalled(t, "Write")
		service.AssertExpectations(t)
	})

	t.Run("propagates detection errors", func(t *testing.T) {
		useCase, service, fileReader, _, configLoader := setupDedupUseCaseMocks()

		configLoader.On("LoadDefaultConfig").Return((*domain.DedupRequest)(nil))
		fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
		service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
			Return((*domain.DedupResponse)(nil), errors.New("boom"))

		response, err := useCase.DetectAndReturn(context.Background(), createValidDedupRequest())

		assert.Error(t, err)
		assert.Nil(t, response)
		assert.Contains(t, err.Error(), "duplicate detection failed")
	})
}

func TestDedupUseCase_DefaultFormatterWhenNoneInjected(t *testing.T) {
	service := &mockDedupService{}
	fileReader := &MockFileReader{}
	useCase := NewDedupUseCase(service, fileReader, nil, nil)

	fileReader.On("FileExists", "/test/a.txt").Return(true, nil)
	service.On("DetectDuplicatesInFiles", mock.Anything, []string{"/test/a.txt"}, mock.AnythingOfType("*domain.DedupRequest")).
		Return(createMockDedupResponse(), nil)

	var buf bytes.Buffer
	req := createValidDedupRequest()
	req.OutputWriter = &buf

	err := useCase.Execute(context.Background(), req)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Duplicate Detection Results")
	assert.Contains(t, buf.String(), "Duplicate Groups:")
}

func TestDedupUseCaseBuilder(t *testing.T) {
	t.Run("build fails without service", func(t *testing.T) {
		_, err := NewDedupUseCaseBuilder().
			WithFileReader(&MockFileReader{}).
			Build()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate detection service is required")
	})

	t.Run("build fails without file reader", func(t *testing.T) {
		_, err := NewDedupUseCaseBuilder().
			WithService(&mockDedupService{}).
			Build()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file reader is required")
	})

	t.Run("build succeeds with required dependencies", func(t *testing.T) {
		uc, err := NewDedupUseCaseBuilder().
			WithService(&mockDedupService{}).
			WithFileReader(&MockFileReader{}).
			WithFormatter(&mockDedupFormatter{}).
			Build()
		assert.NoError(t, err)
		assert.NotNil(t, uc)
	})
}
