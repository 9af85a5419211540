package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"epw-insights/internal/models"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// StoredDataset is a parsed EPW file held for the lifetime of the process.
type StoredDataset struct {
	ID         string                 `json:"id"`
	SourceName string                 `json:"source_name"`
	Checksum   string                 `json:"checksum"`
	LoadedAt   time.Time              `json:"loaded_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Dataset    *models.WeatherDataset `json:"-"`
}

// WeatherRepository provides data access for loaded weather datasets
type WeatherRepository interface {
	// Dataset operations
	SaveDataset(ctx context.Context, ds *StoredDataset) (created bool, err error)
	GetDataset(ctx context.Context, id string) (*StoredDataset, error)
	ListDatasets(ctx context.Context, limit, offset int) ([]*StoredDataset, int, error)
	DeleteDataset(ctx context.Context, id string) error
	CountDatasets(ctx context.Context) int

	// Record operations
	GetRecords(ctx context.Context, filter RecordFilter) ([]models.WeatherRecord, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// RecordFilter defines filters for querying hourly records of one dataset.
// Dates compare against the record timestamp; EndDate is exclusive.
type RecordFilter struct {
	DatasetID string
	Month     *int
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func (f RecordFilter) matches(r *models.WeatherRecord) bool {
	if f.Month != nil && r.Month != *f.Month {
		return false
	}
	if f.StartDate != nil && r.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !r.Timestamp.Before(*f.EndDate) {
		return false
	}
	return true
}

// weatherRepository is an in-memory WeatherRepository guarded by a RWMutex.
// Datasets are immutable once stored, so readers share them without copying.
type weatherRepository struct {
	mu       sync.RWMutex
	datasets map[string]*StoredDataset
	bySource map[string]string // source name -> id
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewWeatherRepository creates an empty in-memory repository
func NewWeatherRepository(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) WeatherRepository {
	return &weatherRepository{
		datasets: make(map[string]*StoredDataset),
		bySource: make(map[string]string),
		logger:   logger,
		metrics:  metricsCollector,
	}
}

func (r *weatherRepository) observe(queryType string) func() {
	timer := r.metrics.NewTimer(r.metrics.RepositoryQueryDuration.WithLabelValues(queryType))
	return func() { timer.ObserveDuration() }
}

// SaveDataset inserts or replaces a dataset. A dataset from a source that
// was loaded before under a different ID replaces the old entry.
func (r *weatherRepository) SaveDataset(ctx context.Context, ds *StoredDataset) (bool, error) {
	defer r.observe("save_dataset")()

	if ds == nil || ds.ID == "" || ds.Dataset == nil {
		return false, &models.ValidationError{Field: "dataset", Message: "dataset id and content are required"}
	}

	now := clock.Now().UTC()

	r.mu.Lock()
	existing, exists := r.datasets[ds.ID]
	if exists {
		ds.LoadedAt = existing.LoadedAt
	} else {
		ds.LoadedAt = now
	}
	ds.UpdatedAt = now

	if ds.SourceName != "" {
		if prevID, ok := r.bySource[ds.SourceName]; ok && prevID != ds.ID {
			delete(r.datasets, prevID)
		}
		if exists && existing.SourceName != ds.SourceName {
			delete(r.bySource, existing.SourceName)
		}
		r.bySource[ds.SourceName] = ds.ID
	}
	r.datasets[ds.ID] = ds
	count := len(r.datasets)
	r.mu.Unlock()

	r.metrics.SetDatasetsLoaded(count)

	r.logger.Debug(ctx, "[REPO_SAVE_DATASET] Dataset stored", logging.Fields{
		"dataset_id": ds.ID,
		"source":     ds.SourceName,
		"records":    len(ds.Dataset.Records),
		"created":    !exists,
	})

	return !exists, nil
}

// GetDataset retrieves a dataset by ID
func (r *weatherRepository) GetDataset(ctx context.Context, id string) (*StoredDataset, error) {
	defer r.observe("get_dataset")()

	r.mu.RLock()
	ds, ok := r.datasets[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Resource: "dataset", ID: id}
	}
	return ds, nil
}

// ListDatasets returns datasets ordered by source name, then ID, with the total count
func (r *weatherRepository) ListDatasets(ctx context.Context, limit, offset int) ([]*StoredDataset, int, error) {
	defer r.observe("list_datasets")()

	r.mu.RLock()
	all := make([]*StoredDataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		all = append(all, ds)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].SourceName != all[j].SourceName {
			return all[i].SourceName < all[j].SourceName
		}
		return all[i].ID < all[j].ID
	})

	return paginate(all, limit, offset), len(all), nil
}

// DeleteDataset removes a dataset
func (r *weatherRepository) DeleteDataset(ctx context.Context, id string) error {
	defer r.observe("delete_dataset")()

	r.mu.Lock()
	ds, ok := r.datasets[id]
	if ok {
		delete(r.datasets, id)
		if r.bySource[ds.SourceName] == id {
			delete(r.bySource, ds.SourceName)
		}
	}
	count := len(r.datasets)
	r.mu.Unlock()

	if !ok {
		return &NotFoundError{Resource: "dataset", ID: id}
	}

	r.metrics.SetDatasetsLoaded(count)
	r.logger.Debug(ctx, "[REPO_DELETE_DATASET] Dataset removed", logging.Fields{
		"dataset_id": id,
	})
	return nil
}

// CountDatasets returns the number of stored datasets
func (r *weatherRepository) CountDatasets(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}

// GetRecords returns a page of filtered records in file order, with the filtered total
func (r *weatherRepository) GetRecords(ctx context.Context, filter RecordFilter) ([]models.WeatherRecord, int, error) {
	defer r.observe("get_records")()

	ds, err := r.GetDataset(ctx, filter.DatasetID)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]models.WeatherRecord, 0, len(ds.Dataset.Records))
	for i := range ds.Dataset.Records {
		if filter.matches(&ds.Dataset.Records[i]) {
			matched = append(matched, ds.Dataset.Records[i])
		}
	}

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// HealthCheck verifies the store is usable
func (r *weatherRepository) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repository health check: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.datasets == nil {
		return fmt.Errorf("repository not initialised")
	}
	return nil
}

// paginate slices items; a non-positive limit returns everything after offset.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as not found errors are permanent
func (e *NotFoundError) IsTransient() bool {
	return false
}
