package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/pkg/comfort"
	"epw-insights/pkg/psychro"
)

func newPsychroService(t *testing.T) (*PsychrometricService, fixture) {
	t.Helper()
	f := newFixture(t)
	svc := NewPsychrometricService(f.repo, f.logger, f.metrics, psychro.DefaultChartBounds, comfort.ASHRAE55Defaults, comfort.ISO7730Defaults)
	return svc, f
}

func TestChartPoints(t *testing.T) {
	records := []models.WeatherRecord{
		{DryBulbTemperature: 20, RelativeHumidity: 50},
		{DryBulbTemperature: math.NaN(), RelativeHumidity: 50},
		{DryBulbTemperature: 20, RelativeHumidity: math.NaN()},
		{DryBulbTemperature: 60, RelativeHumidity: 10},
		{DryBulbTemperature: 45, RelativeHumidity: 100},
	}
	pts := ChartPoints(records, psychro.DefaultChartBounds)
	require.Len(t, pts, 1)
	assert.Equal(t, 20.0, pts[0].T)
	assert.InDelta(t, psychro.HumidityRatioFromRH(20, 50), pts[0].W, 1e-15)
}

func TestPsychrometricService_PointsAndHeatmap(t *testing.T) {
	svc, f := newPsychroService(t)
	ctx := context.Background()

	ingest := NewIngestionService(f.repo, f.logger, f.metrics, "")
	res, err := ingest.IngestReader(ctx, "x.epw", strings.NewReader(epwText(
		hour{1, 1, 1, 20.2, 50, 0, 0},
		hour{1, 1, 2, 20.2, 50, 0, 0},
		hour{1, 1, 3, 20.3, 50, 0, 0},
		hour{1, 1, 4, 30, 40, 0, 0},
		hour{1, 1, 5, 70, 40, 0, 0},
	)))
	require.NoError(t, err)

	data, err := svc.Points(ctx, res.DatasetID, svc.DefaultBounds(), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, data.Total)
	assert.Len(t, data.Points, 4)

	sampled, err := svc.Points(ctx, res.DatasetID, svc.DefaultBounds(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, sampled.Total)
	assert.Len(t, sampled.Points, 2)

	heat, err := svc.Heatmap(ctx, res.DatasetID, svc.DefaultBounds())
	require.NoError(t, err)
	assert.Equal(t, psychro.HeatmapXBins, heat.XBins)
	require.Len(t, heat.Bins, 2)
	assert.Equal(t, 3, heat.Bins[0].Count)
	assert.Equal(t, 1, heat.Bins[1].Count)

	assert.Greater(t, testutil.CollectAndCount(f.metrics.ComputationDuration), 0)

	_, err = svc.Points(ctx, "missing", svc.DefaultBounds(), 0)
	var nf *repository.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.Heatmap(ctx, res.DatasetID, psychro.ChartBounds{TMin: 5, TMax: 5, WMax: 1})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPsychrometricService_State(t *testing.T) {
	svc, _ := newPsychroService(t)
	rh := 50.0
	w := psychro.HumidityRatioFromRH(20, 50)

	fromRH, err := svc.State(20, &rh, nil)
	require.NoError(t, err)
	fromW, err := svc.State(20, nil, &w)
	require.NoError(t, err)
	assert.InDelta(t, float64(fromRH.RelativeHumidity), float64(fromW.RelativeHumidity), 1e-9)
	assert.InDelta(t, 9.28, float64(fromRH.DewPoint), 0.05)

	_, err = svc.State(20, nil, nil)
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
	_, err = svc.State(20, &rh, &w)
	assert.ErrorAs(t, err, &ve)

	over := 120.0
	_, err = svc.State(20, &over, nil)
	assert.True(t, errors.Is(err, psychro.ErrHumidityOutOfRange))
}

func TestPsychrometricService_Readout(t *testing.T) {
	svc, _ := newPsychroService(t)

	st, ok := svc.Readout(svc.DefaultBounds(), 25, 0.01)
	require.True(t, ok)
	assert.Equal(t, models.Float(25), st.DryBulb)

	_, ok = svc.Readout(svc.DefaultBounds(), 10, 0.025)
	assert.False(t, ok, "above saturation")
	_, ok = svc.Readout(svc.DefaultBounds(), 55, 0.01)
	assert.False(t, ok, "outside bounds")
}

func TestPsychrometricService_Comfort(t *testing.T) {
	svc, _ := newPsychroService(t)
	b := svc.DefaultBounds()

	ashrae, err := svc.Preset("")
	require.NoError(t, err)
	assert.Equal(t, comfort.ASHRAE55Defaults, ashrae)
	iso, err := svc.Preset("ISO")
	require.NoError(t, err)
	assert.Equal(t, comfort.ISO7730Defaults, iso)
	_, err = svc.Preset("adaptive")
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	bounds, ok, err := svc.ComfortBounds(ashrae, 50)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 19.3, bounds.Lower, 0.2)

	_, _, err = svc.ComfortBounds(ashrae, 150)
	assert.ErrorAs(t, err, &ve)

	poly, err := svc.ComfortPolygon(ashrae)
	require.NoError(t, err)
	assert.Len(t, poly, 2*len(comfort.PolygonRelativeHumidities))

	bad := ashrae
	bad.MetabolicRate = -1
	_, err = svc.ComfortPolygon(bad)
	var pe *comfort.ParameterError
	assert.ErrorAs(t, err, &pe)

	field, err := svc.PMVField(iso, b)
	require.NoError(t, err)
	assert.NotEmpty(t, field)

	contours, err := svc.Isopleths(iso, nil, b)
	require.NoError(t, err)
	assert.Len(t, contours, len(comfort.DefaultIsoplethLevels))

	contours, err = svc.Isopleths(iso, []float64{0.5}, b)
	require.NoError(t, err)
	require.Len(t, contours, 1)
	assert.Equal(t, 0.5, contours[0].Level)

	lines, err := svc.ChartLines(b)
	require.NoError(t, err)
	assert.Len(t, lines.RelativeHumidity, len(psychro.DefaultRelativeHumidityLevels))
}
