package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"epw-insights/internal/epw"
	"epw-insights/internal/repository"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// DefaultPattern matches EPW files in a data directory.
const DefaultPattern = "*.epw"

// datasetNamespace seeds the name-based dataset IDs, so identical file
// contents always map to the same ID.
var datasetNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("epw-insights/datasets"))

// ErrNoDataFiles is returned when a directory scan finds nothing to ingest.
var ErrNoDataFiles = errors.New("no data files found")

// Per-file outcomes, also used as the ingestion_files_total status label.
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusFailed  = "failed"
)

// IngestionService loads EPW files into the repository
type IngestionService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	pattern string
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles   int
	LoadedFiles  int
	FailedFiles  int
	PartialYear  int
	TotalRecords int
	Files        []FileIngestionResult
	Duration     time.Duration
	Errors       []string
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	Source    string
	DatasetID string
	Status    string
	Records   int
	Partial   bool
	Warnings  []string
}

// NewIngestionService creates a new ingestion service. An empty pattern
// falls back to DefaultPattern.
func NewIngestionService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, pattern string) *IngestionService {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		pattern: pattern,
	}
}

// DatasetID returns the content-derived dataset ID for raw EPW bytes.
func DatasetID(content []byte) string {
	return uuid.NewSHA1(datasetNamespace, content).String()
}

// IngestDirectory ingests every file matching the service pattern in dataDir.
// A failing file is recorded in the result and does not stop the scan.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"data_dir": dataDir,
		"pattern":  s.pattern,
		"stage":    "INITIALIZATION",
	})

	files, err := filepath.Glob(filepath.Join(dataDir, s.pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDataFiles, dataDir)
	}
	sort.Strings(files)

	result := &IngestionResult{
		TotalFiles: len(files),
		Files:      make([]FileIngestionResult, 0, len(files)),
		Errors:     make([]string, 0),
	}

	s.logger.Info(ctx, "[INGEST_FILES] Found data files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("ingestion cancelled: %w", err)
		}

		fileResult, err := s.ingestFile(ctx, filePath)
		if err != nil {
			result.FailedFiles++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", filePath, err))
			result.Files = append(result.Files, FileIngestionResult{Source: filepath.Base(filePath), Status: StatusFailed})
			continue
		}

		result.LoadedFiles++
		result.TotalRecords += fileResult.Records
		if fileResult.Partial {
			result.PartialYear++
		}
		result.Files = append(result.Files, *fileResult)
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_files":      result.TotalFiles,
		"loaded_files":     result.LoadedFiles,
		"failed_files":     result.FailedFiles,
		"partial_year":     result.PartialYear,
		"total_records":    result.TotalRecords,
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (s *IngestionService) ingestFile(ctx context.Context, filePath string) (*FileIngestionResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		s.fail(ctx, filePath, "read_error", err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.IngestReader(ctx, filepath.Base(filePath), file)
}

// IngestReader parses one EPW source and stores it under a content-derived ID.
// Re-ingesting identical content updates the existing entry in place.
func (s *IngestionService) IngestReader(ctx context.Context, source string, r io.Reader) (*FileIngestionResult, error) {
	timer := s.metrics.NewTimer(s.metrics.IngestionDuration)

	content, err := io.ReadAll(r)
	if err != nil {
		s.fail(ctx, source, "read_error", err)
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	dataset, err := epw.Parse(bytes.NewReader(content))
	if err != nil {
		s.fail(ctx, source, "parse_error", err)
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	sum := sha256.Sum256(content)
	stored := &repository.StoredDataset{
		ID:         DatasetID(content),
		SourceName: source,
		Checksum:   hex.EncodeToString(sum[:]),
		Dataset:    dataset,
	}

	created, err := s.repo.SaveDataset(ctx, stored)
	if err != nil {
		s.fail(ctx, source, "store_error", err)
		return nil, fmt.Errorf("failed to store %s: %w", source, err)
	}

	status := StatusUpdated
	if created {
		status = StatusCreated
	}
	partial := dataset.IsPartialYear()
	s.metrics.RecordFileIngested(status, len(dataset.Records), partial)
	duration := timer.ObserveDuration()

	for _, w := range dataset.Warnings {
		s.logger.Warn(ctx, "[INGEST_WARNING] "+w, logging.Fields{
			"source":     source,
			"dataset_id": stored.ID,
			"records":    len(dataset.Records),
		})
	}

	s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
		"source":      source,
		"dataset_id":  stored.ID,
		"location":    dataset.Location.DisplayName(),
		"records":     len(dataset.Records),
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"stage":       "FILE_COMPLETE",
	})

	return &FileIngestionResult{
		Source:    source,
		DatasetID: stored.ID,
		Status:    status,
		Records:   len(dataset.Records),
		Partial:   partial,
		Warnings:  dataset.Warnings,
	}, nil
}

func (s *IngestionService) fail(ctx context.Context, source, errorType string, err error) {
	s.metrics.RecordIngestionError(errorType)
	s.metrics.RecordFileIngested(StatusFailed, 0, false)

	fields := logging.Fields{
		"source":     source,
		"error_type": errorType,
		"stage":      "FILE_PROCESSING",
	}
	var pe *epw.ParseError
	if errors.As(err, &pe) {
		fields["line"] = pe.Line
		fields["field"] = pe.Field
	}
	s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", fields, err)
}
