package comfort

import (
	"math"

	"epw-insights/pkg/psychro"
)

// Default PMV field resolution.
const (
	FieldTemperatureStep   = 1.0    // °C
	FieldHumidityRatioStep = 0.0005 // kg/kg
)

// DefaultIsoplethLevels are the PMV contour levels drawn over the field.
var DefaultIsoplethLevels = []float64{-2.5, -1.5, -0.5, 0.5, 1.5, 2.5}

// Cell is one PMV field sample.
type Cell struct {
	T   float64 `json:"t"`
	W   float64 `json:"w"`
	RH  float64 `json:"rh"`
	PMV float64 `json:"pmv"`
}

// Field evaluates PMV on every (t, w) grid pair whose humidity ratio is below
// saturation at t. Cells are ordered by t, then w.
func Field(p Parameters, tGrid, wGrid []float64) []Cell {
	var cells []Cell
	for _, t := range tGrid {
		wSat := psychro.HumidityRatioFromRH(t, 100)
		for _, w := range wGrid {
			if !(w < wSat) {
				continue
			}
			rh := psychro.RelativeHumidityFromW(t, w)
			cells = append(cells, Cell{T: t, W: w, RH: rh, PMV: p.PMV(t, rh)})
		}
	}
	return cells
}

// DefaultField samples the chart at 1 °C by 0.0005 kg/kg, dry bulb in
// [TMin, TMax) and humidity ratio in [WMin, min(WMax, Wsat)). Invalid bounds
// yield no cells.
func DefaultField(p Parameters, b psychro.ChartBounds) []Cell {
	if !b.Valid() {
		return nil
	}
	tGrid := psychro.Range(b.TMin, b.TMax, FieldTemperatureStep)
	var cells []Cell
	for _, t := range tGrid {
		top := math.Min(b.WMax, psychro.HumidityRatioFromRH(t, 100))
		cells = append(cells, Field(p, []float64{t}, psychro.Range(b.WMin, top, FieldHumidityRatioStep))...)
	}
	return cells
}

// Isopleth traces the PMV = level contour. For each t in tGrid the RH where
// PMV crosses level is bisected on [0, 100] for IsoplethIterations rounds.
// Points whose humidity ratio falls outside [WMin, WMax] are dropped.
func Isopleth(p Parameters, level float64, tGrid []float64, b psychro.ChartBounds) []psychro.Point {
	var pts []psychro.Point
	for _, t := range tGrid {
		low, high := 0.0, 100.0
		for i := 0; i < IsoplethIterations; i++ {
			mid := (low + high) / 2
			if p.PMV(t, mid) < level {
				low = mid
			} else {
				high = mid
			}
		}
		w := psychro.HumidityRatioFromRH(t, high)
		if w >= b.WMin && w <= b.WMax {
			pts = append(pts, psychro.Point{T: t, W: w})
		}
	}
	return pts
}

// IsoplethTemperatures is the isopleth dry bulb grid: TMin to TMax inclusive
// in 1 °C steps. Invalid bounds yield no temperatures.
func IsoplethTemperatures(b psychro.ChartBounds) []float64 {
	if !b.Valid() {
		return nil
	}
	n := int(math.Floor(b.TMax-b.TMin)) + 1
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = b.TMin + float64(i)
	}
	return ts
}

// Contour is one isopleth polyline.
type Contour struct {
	Level  float64         `json:"level"`
	Points []psychro.Point `json:"points"`
}

// Isopleths traces each level over IsoplethTemperatures(b), keeping contours
// with more than one point.
func Isopleths(p Parameters, levels []float64, b psychro.ChartBounds) []Contour {
	ts := IsoplethTemperatures(b)
	var out []Contour
	for _, level := range levels {
		pts := Isopleth(p, level, ts, b)
		if len(pts) > 1 {
			out = append(out, Contour{Level: level, Points: pts})
		}
	}
	return out
}
