package services

import (
	"context"
	"time"

	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// WeatherService handles weather dataset queries
type WeatherService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// DatasetSummary describes a loaded dataset without its hourly records.
type DatasetSummary struct {
	ID          string                  `json:"id"`
	SourceName  string                  `json:"source_name"`
	DisplayName string                  `json:"display_name"`
	SimpleName  string                  `json:"simple_name"`
	Location    models.LocationMetadata `json:"location"`
	RecordCount int                     `json:"record_count"`
	PartialYear bool                    `json:"partial_year"`
	Warnings    []string                `json:"warnings,omitempty"`
	LoadedAt    time.Time               `json:"loaded_at"`
}

// NewWeatherService creates a new weather service
func NewWeatherService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *WeatherService {
	return &WeatherService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Summarize builds the listing view of a stored dataset.
func Summarize(ds *repository.StoredDataset) DatasetSummary {
	loc := ds.Dataset.Location
	return DatasetSummary{
		ID:          ds.ID,
		SourceName:  ds.SourceName,
		DisplayName: loc.DisplayName(),
		SimpleName:  loc.SimpleName(),
		Location:    loc,
		RecordCount: len(ds.Dataset.Records),
		PartialYear: ds.Dataset.IsPartialYear(),
		Warnings:    ds.Dataset.Warnings,
		LoadedAt:    ds.LoadedAt,
	}
}

// ListDatasets returns a page of dataset summaries and the total count
func (s *WeatherService) ListDatasets(ctx context.Context, limit, offset int) ([]DatasetSummary, int, error) {
	stored, total, err := s.repo.ListDatasets(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DatasetSummary, 0, len(stored))
	for _, ds := range stored {
		out = append(out, Summarize(ds))
	}
	return out, total, nil
}

// GetDataset retrieves a stored dataset by ID
func (s *WeatherService) GetDataset(ctx context.Context, id string) (*repository.StoredDataset, error) {
	return s.repo.GetDataset(ctx, id)
}

// GetRecords retrieves hourly records with filtering
func (s *WeatherService) GetRecords(ctx context.Context, filter repository.RecordFilter) ([]models.WeatherRecord, int, error) {
	return s.repo.GetRecords(ctx, filter)
}

// DeleteDataset unloads a dataset
func (s *WeatherService) DeleteDataset(ctx context.Context, id string) error {
	if err := s.repo.DeleteDataset(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "[DATASET_DELETED] Dataset unloaded", logging.Fields{
		"dataset_id": id,
	})
	return nil
}

// HealthCheck reports repository health
func (s *WeatherService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
