package psychro

import (
	"math"
	"strconv"
)

// ChartBounds is the dry bulb (°C) by humidity ratio (kg/kg) window of a
// psychrometric chart.
type ChartBounds struct {
	TMin float64 `json:"t_min" koanf:"t_min"`
	TMax float64 `json:"t_max" koanf:"t_max"`
	WMin float64 `json:"w_min" koanf:"w_min"`
	WMax float64 `json:"w_max" koanf:"w_max"`
}

// DefaultChartBounds covers -10..50 °C and 0..0.030 kg/kg.
var DefaultChartBounds = ChartBounds{TMin: -10, TMax: 50, WMin: 0, WMax: 0.030}

// Contains reports whether (t, w) lies inside the bounds, edges included.
func (b ChartBounds) Contains(t, w float64) bool {
	return t >= b.TMin && t <= b.TMax && w >= b.WMin && w <= b.WMax
}

// Physical limits of a chart window.
const (
	MinChartTemperature   = -100.0
	MaxChartTemperature   = 100.0
	MaxChartHumidityRatio = 0.1
)

// maxRangeLen caps the number of values Range will produce.
const maxRangeLen = 1 << 20

// Valid reports whether both ranges are non-empty and lie inside
// [MinChartTemperature, MaxChartTemperature] by [0, MaxChartHumidityRatio].
// NaN and infinite edges fail the comparisons.
func (b ChartBounds) Valid() bool {
	return b.TMin >= MinChartTemperature && b.TMax <= MaxChartTemperature &&
		b.WMin >= 0 && b.WMax <= MaxChartHumidityRatio &&
		b.TMin < b.TMax && b.WMin < b.WMax
}

// Point is a chart coordinate.
type Point struct {
	T float64 `json:"t"`
	W float64 `json:"w"`
}

// Range returns start, start+step, ... for values strictly below stop.
// It returns nil for a zero or non-finite step and for ranges longer
// than 2^20 values.
func Range(start, stop, step float64) []float64 {
	if step == 0 || !finite(start) || !finite(stop) || !finite(step) {
		return nil
	}
	f := math.Ceil((stop - start) / step)
	if f <= 0 || f > maxRangeLen {
		return nil
	}
	n := int(f)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// SaturationCurve traces RH=100% every 0.2 °C, clamping W to WMax.
func SaturationCurve(b ChartBounds) []Point {
	ts := Range(b.TMin, b.TMax+0.2, 0.2)
	pts := make([]Point, 0, len(ts))
	for _, t := range ts {
		pts = append(pts, Point{T: t, W: math.Min(b.WMax, HumidityRatioFromRH(t, 100))})
	}
	return pts
}

// DefaultRelativeHumidityLevels are the RH curves drawn below saturation.
var DefaultRelativeHumidityLevels = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90}

// RelativeHumidityCurve traces a constant RH line every 0.5 °C, keeping points inside the W range.
func RelativeHumidityCurve(b ChartBounds, rh float64) []Point {
	var pts []Point
	for _, t := range Range(b.TMin, b.TMax+0.5, 0.5) {
		if t > b.TMax {
			continue
		}
		w := HumidityRatioFromRH(t, rh)
		if w >= b.WMin && w <= b.WMax {
			pts = append(pts, Point{T: t, W: w})
		}
	}
	return pts
}

// DefaultWetBulbLevels are the wet bulb lines in °C.
var DefaultWetBulbLevels = Range(-10, 35, 5)

// WetBulbLine traces constant wet bulb twb from saturation toward higher dry bulbs.
func WetBulbLine(b ChartBounds, twb float64) []Point {
	hwb := Enthalpy(twb, HumidityRatioFromRH(twb, 100))
	var pts []Point
	for _, t := range Range(twb, b.TMax+0.5, 0.5) {
		w := (hwb - 1.006*t) / (2501 + 1.86*t)
		if w >= b.WMin && w <= b.WMax && t >= twb {
			pts = append(pts, Point{T: t, W: w})
		}
	}
	return pts
}

// DefaultEnthalpyLevels are the enthalpy lines in kJ/kg.
var DefaultEnthalpyLevels = Range(-10, 121, 10)

// EnthalpyLine returns the segment of constant enthalpy h from W=0 to W=WMax.
func EnthalpyLine(b ChartBounds, h float64) [2]Point {
	return [2]Point{
		{T: DryBulbFromEnthalpyAndW(h, 0), W: 0},
		{T: DryBulbFromEnthalpyAndW(h, b.WMax), W: b.WMax},
	}
}

// Lines groups every reference curve of a chart.
type Lines struct {
	Saturation       []Point             `json:"saturation"`
	RelativeHumidity map[string][]Point  `json:"relative_humidity"`
	WetBulb          map[string][]Point  `json:"wet_bulb"`
	Enthalpy         map[string][2]Point `json:"enthalpy"`
}

// ChartLines computes all reference curves for b, keyed by their level.
func ChartLines(b ChartBounds) Lines {
	lines := Lines{
		Saturation:       SaturationCurve(b),
		RelativeHumidity: make(map[string][]Point, len(DefaultRelativeHumidityLevels)),
		WetBulb:          make(map[string][]Point, len(DefaultWetBulbLevels)),
		Enthalpy:         make(map[string][2]Point, len(DefaultEnthalpyLevels)),
	}
	for _, rh := range DefaultRelativeHumidityLevels {
		lines.RelativeHumidity[formatLevel(rh)] = RelativeHumidityCurve(b, rh)
	}
	for _, twb := range DefaultWetBulbLevels {
		lines.WetBulb[formatLevel(twb)] = WetBulbLine(b, twb)
	}
	for _, h := range DefaultEnthalpyLevels {
		lines.Enthalpy[formatLevel(h)] = EnthalpyLine(b, h)
	}
	return lines
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// HeatmapBin counts points in one rectangular cell.
type HeatmapBin struct {
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Y0    float64 `json:"y0"`
	Y1    float64 `json:"y1"`
	Count int     `json:"count"`
}

// Default heatmap resolution.
const (
	HeatmapXBins = 70
	HeatmapYBins = 35
)

// Heatmap bins points onto an xBins by yBins grid over b. Points outside the
// grid are dropped. Bins appear in order of first occupancy; empty bins are omitted.
func Heatmap(points []Point, b ChartBounds, xBins, yBins int) []HeatmapBin {
	if xBins <= 0 || yBins <= 0 {
		return nil
	}
	xw := (b.TMax - b.TMin) / float64(xBins)
	yw := (b.WMax - b.WMin) / float64(yBins)

	index := make(map[[2]int]int)
	var bins []HeatmapBin
	for _, p := range points {
		xf := math.Floor((p.T - b.TMin) / xw)
		yf := math.Floor((p.W - b.WMin) / yw)
		if math.IsNaN(xf) || math.IsNaN(yf) || xf < 0 || xf >= float64(xBins) || yf < 0 || yf >= float64(yBins) {
			continue
		}
		key := [2]int{int(xf), int(yf)}
		i, ok := index[key]
		if !ok {
			i = len(bins)
			index[key] = i
			bins = append(bins, HeatmapBin{
				X0: b.TMin + xf*xw,
				X1: b.TMin + (xf+1)*xw,
				Y0: b.WMin + yf*yw,
				Y1: b.WMin + (yf+1)*yw,
			})
		}
		bins[i].Count++
	}
	return bins
}

// Readout returns the state under a chart cursor, or false when (t, w) is
// outside the bounds or above saturation.
func Readout(b ChartBounds, t, w float64) (State, bool) {
	w = math.Max(0, w)
	if !b.Contains(t, w) || w > HumidityRatioFromRH(t, 100) {
		return State{}, false
	}
	return stateAt(t, w), true
}
