package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/pkg/comfort"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
	"epw-insights/pkg/psychro"
)

// Comfort model names accepted by the API.
const (
	ModelASHRAE = "ashrae"
	ModelISO    = "iso"
)

// PsychrometricService computes chart data and comfort overlays
type PsychrometricService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	bounds  psychro.ChartBounds
	presets map[string]comfort.Parameters
}

// StateView is a psychrometric state with undefined values as JSON null.
type StateView struct {
	DryBulb          models.Float `json:"dry_bulb"`
	HumidityRatio    models.Float `json:"humidity_ratio"`
	RelativeHumidity models.Float `json:"relative_humidity"`
	WetBulb          models.Float `json:"wet_bulb"`
	DewPoint         models.Float `json:"dew_point"`
	Enthalpy         models.Float `json:"enthalpy"`
	VaporPressure    models.Float `json:"vapor_pressure"`
}

// NewStateView converts a state for serialization.
func NewStateView(s psychro.State) StateView {
	return StateView{
		DryBulb:          models.Float(s.DryBulb),
		HumidityRatio:    models.Float(s.HumidityRatio),
		RelativeHumidity: models.Float(s.RelativeHumidity),
		WetBulb:          models.Float(s.WetBulb),
		DewPoint:         models.Float(s.DewPoint),
		Enthalpy:         models.Float(s.Enthalpy),
		VaporPressure:    models.Float(s.VaporPressure),
	}
}

// CellView is a PMV field cell with undefined values as JSON null.
type CellView struct {
	T   float64      `json:"t"`
	W   float64      `json:"w"`
	RH  models.Float `json:"rh"`
	PMV models.Float `json:"pmv"`
}

// ChartData is the point cloud of one dataset on the chart.
type ChartData struct {
	DatasetID string              `json:"dataset_id"`
	Bounds    psychro.ChartBounds `json:"bounds"`
	Total     int                 `json:"total"`
	Points    []psychro.Point     `json:"points"`
}

// HeatmapData is the binned point cloud of one dataset.
type HeatmapData struct {
	DatasetID string               `json:"dataset_id"`
	Bounds    psychro.ChartBounds  `json:"bounds"`
	XBins     int                  `json:"x_bins"`
	YBins     int                  `json:"y_bins"`
	Bins      []psychro.HeatmapBin `json:"bins"`
}

// NewPsychrometricService creates a psychrometric service with default chart
// bounds and the comfort presets keyed by model name.
func NewPsychrometricService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, bounds psychro.ChartBounds, ashrae, iso comfort.Parameters) *PsychrometricService {
	return &PsychrometricService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		bounds:  bounds,
		presets: map[string]comfort.Parameters{
			ModelASHRAE: ashrae,
			ModelISO:    iso,
		},
	}
}

// DefaultBounds returns the configured chart window.
func (s *PsychrometricService) DefaultBounds() psychro.ChartBounds {
	return s.bounds
}

// Preset returns the comfort parameters of a model. An empty name selects ASHRAE.
func (s *PsychrometricService) Preset(model string) (comfort.Parameters, error) {
	if model == "" {
		model = ModelASHRAE
	}
	p, ok := s.presets[strings.ToLower(model)]
	if !ok {
		return comfort.Parameters{}, &models.ValidationError{Field: "model", Value: model, Message: fmt.Sprintf("unknown comfort model %q", model)}
	}
	return p, nil
}

func (s *PsychrometricService) track(operation string) func() {
	timer := s.metrics.TimeComputation(operation)
	return func() {
		elapsed := timer.ObserveDuration()
		s.metrics.ProcessingTimeMS.WithLabelValues(operation).Observe(float64(elapsed) / float64(time.Millisecond))
	}
}

// ChartPoints maps records to (dry bulb, humidity ratio), dropping records
// with missing values or outside b.
func ChartPoints(records []models.WeatherRecord, b psychro.ChartBounds) []psychro.Point {
	pts := make([]psychro.Point, 0, len(records))
	for _, r := range records {
		w := psychro.HumidityRatioFromRH(r.DryBulbTemperature, r.RelativeHumidity)
		if b.Contains(r.DryBulbTemperature, w) {
			pts = append(pts, psychro.Point{T: r.DryBulbTemperature, W: w})
		}
	}
	return pts
}

// Points returns the chart points of a dataset. A stride above one keeps
// every stride-th point; Total always counts all points inside the bounds.
func (s *PsychrometricService) Points(ctx context.Context, datasetID string, b psychro.ChartBounds, stride int) (*ChartData, error) {
	if !b.Valid() {
		return nil, &models.ValidationError{Field: "bounds", Message: "chart bounds must be finite and non-empty"}
	}
	ds, err := s.repo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	defer s.track("chart_points")()

	all := ChartPoints(ds.Dataset.Records, b)
	out := all
	if stride > 1 {
		out = make([]psychro.Point, 0, len(all)/stride+1)
		for i := 0; i < len(all); i += stride {
			out = append(out, all[i])
		}
	}
	return &ChartData{DatasetID: datasetID, Bounds: b, Total: len(all), Points: out}, nil
}

// Heatmap bins the chart points of a dataset on the default grid.
func (s *PsychrometricService) Heatmap(ctx context.Context, datasetID string, b psychro.ChartBounds) (*HeatmapData, error) {
	if !b.Valid() {
		return nil, &models.ValidationError{Field: "bounds", Message: "chart bounds must be finite and non-empty"}
	}
	ds, err := s.repo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	defer s.track("heatmap")()

	bins := psychro.Heatmap(ChartPoints(ds.Dataset.Records, b), b, psychro.HeatmapXBins, psychro.HeatmapYBins)
	if bins == nil {
		bins = []psychro.HeatmapBin{}
	}
	s.logger.Debug(ctx, "[PSYCHRO_HEATMAP] Heatmap computed", logging.Fields{
		"dataset_id": datasetID,
		"bins":       len(bins),
	})
	return &HeatmapData{
		DatasetID: datasetID,
		Bounds:    b,
		XBins:     psychro.HeatmapXBins,
		YBins:     psychro.HeatmapYBins,
		Bins:      bins,
	}, nil
}

// ChartLines returns the reference curves for b.
func (s *PsychrometricService) ChartLines(b psychro.ChartBounds) (psychro.Lines, error) {
	if !b.Valid() {
		return psychro.Lines{}, &models.ValidationError{Field: "bounds", Message: "chart bounds must be finite and non-empty"}
	}
	defer s.track("chart_lines")()
	return psychro.ChartLines(b), nil
}

// State resolves a state from dry bulb and exactly one of rh or w.
func (s *PsychrometricService) State(tdb float64, rh, w *float64) (StateView, error) {
	if (rh == nil) == (w == nil) {
		return StateView{}, &models.ValidationError{Field: "rh", Message: "exactly one of rh or w is required"}
	}
	var (
		st  psychro.State
		err error
	)
	if rh != nil {
		st, err = psychro.NewState(tdb, *rh)
	} else {
		st, err = psychro.StateFromHumidityRatio(tdb, *w)
	}
	if err != nil {
		return StateView{}, err
	}
	return NewStateView(st), nil
}

// Readout returns the state under a chart cursor, or false when the cursor
// is outside b or above saturation.
func (s *PsychrometricService) Readout(b psychro.ChartBounds, t, w float64) (StateView, bool) {
	st, ok := psychro.Readout(b, t, w)
	if !ok {
		return StateView{}, false
	}
	return NewStateView(st), true
}

// ComfortBounds returns the comfortable dry bulb range at rh.
func (s *PsychrometricService) ComfortBounds(p comfort.Parameters, rh float64) (comfort.Bounds, bool, error) {
	if err := p.Validate(); err != nil {
		return comfort.Bounds{}, false, err
	}
	if math.IsNaN(rh) || rh < 0 || rh > 100 {
		return comfort.Bounds{}, false, &models.ValidationError{Field: "rh", Value: fmt.Sprint(rh), Message: "rh must be within [0, 100]"}
	}
	defer s.track("comfort_bounds")()
	b, ok := p.Bounds(rh)
	return b, ok, nil
}

// ComfortPolygon returns the comfort zone outline for p.
func (s *PsychrometricService) ComfortPolygon(p comfort.Parameters) ([]psychro.Point, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	defer s.track("comfort_polygon")()
	return comfort.Polygon(p), nil
}

// PMVField samples PMV over b on the default grid.
func (s *PsychrometricService) PMVField(p comfort.Parameters, b psychro.ChartBounds) ([]CellView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !b.Valid() {
		return nil, &models.ValidationError{Field: "bounds", Message: "chart bounds must be finite and non-empty"}
	}
	defer s.track("pmv_field")()

	cells := comfort.DefaultField(p, b)
	out := make([]CellView, 0, len(cells))
	for _, c := range cells {
		out = append(out, CellView{T: c.T, W: c.W, RH: models.Float(c.RH), PMV: models.Float(c.PMV)})
	}
	return out, nil
}

// Isopleths traces PMV contours over b. No levels selects the defaults.
func (s *PsychrometricService) Isopleths(p comfort.Parameters, levels []float64, b psychro.ChartBounds) ([]comfort.Contour, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !b.Valid() {
		return nil, &models.ValidationError{Field: "bounds", Message: "chart bounds must be finite and non-empty"}
	}
	if len(levels) == 0 {
		levels = comfort.DefaultIsoplethLevels
	}
	defer s.track("isopleths")()

	contours := comfort.Isopleths(p, levels, b)
	if contours == nil {
		contours = []comfort.Contour{}
	}
	return contours, nil
}
