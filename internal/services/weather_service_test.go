package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epw-insights/internal/repository"
)

func TestWeatherService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ingest := NewIngestionService(f.repo, f.logger, f.metrics, "")
	svc := NewWeatherService(f.repo, f.logger, f.metrics)

	res, err := ingest.IngestReader(ctx, "oslo.epw", strings.NewReader(epwText(
		hour{1, 1, 1, 5, 80, 180, 2},
		hour{1, 1, 2, 6, 75, 190, 2},
	)))
	require.NoError(t, err)

	t.Run("list summarizes datasets", func(t *testing.T) {
		list, total, err := svc.ListDatasets(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)

		s := list[0]
		assert.Equal(t, res.DatasetID, s.ID)
		assert.Equal(t, "oslo.epw", s.SourceName)
		assert.Equal(t, 2, s.RecordCount)
		assert.True(t, s.PartialYear)
		assert.NotEmpty(t, s.Warnings)
		assert.Equal(t, "NOR", s.Location.Country)
	})

	t.Run("records honour the month filter", func(t *testing.T) {
		month := 2
		records, total, err := svc.GetRecords(ctx, repository.RecordFilter{DatasetID: res.DatasetID, Month: &month})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, records)
	})

	t.Run("delete removes the dataset", func(t *testing.T) {
		require.NoError(t, svc.DeleteDataset(ctx, res.DatasetID))

		_, err := svc.GetDataset(ctx, res.DatasetID)
		var nf *repository.NotFoundError
		assert.True(t, errors.As(err, &nf))

		err = svc.DeleteDataset(ctx, res.DatasetID)
		assert.True(t, errors.As(err, &nf))
	})

	assert.NoError(t, svc.HealthCheck(ctx))
}
