// Package comfort derives thermal comfort regions on the psychrometric chart
// from Fanger's PMV model.
package comfort

import (
	"fmt"
	"math"

	"epw-insights/pkg/psychro"
)

const (
	// BoundsIterations is the bisection budget for each comfort temperature bound.
	BoundsIterations = 30
	// IsoplethIterations is the RH bisection budget per isopleth point.
	IsoplethIterations = 15

	searchMin = -50.0
	searchMax = 50.0
)

// Parameters are the personal and environmental inputs of the PMV model
// other than air temperature and humidity.
type Parameters struct {
	MeanRadiantTemperature float64 `json:"mean_radiant_temperature" koanf:"mean_radiant_temperature"` // °C
	AirSpeed               float64 `json:"air_speed" koanf:"air_speed"`                               // m/s
	MetabolicRate          float64 `json:"metabolic_rate" koanf:"metabolic_rate"`                     // met
	Clothing               float64 `json:"clothing" koanf:"clothing"`                                 // clo
	PMVLimit               float64 `json:"pmv_limit" koanf:"pmv_limit"`
	ExternalWork           float64 `json:"external_work" koanf:"external_work"` // met
}

// ASHRAE55Defaults is the office reference used for the comfort polygon.
var ASHRAE55Defaults = Parameters{
	MeanRadiantTemperature: 24,
	AirSpeed:               0.1,
	MetabolicRate:          1.0,
	Clothing:               1.0,
	PMVLimit:               0.5,
}

// ISO7730Defaults is the reference used for the PMV field and isopleths.
var ISO7730Defaults = Parameters{
	MeanRadiantTemperature: 20,
	AirSpeed:               0.2,
	MetabolicRate:          1.0,
	Clothing:               1.0,
	PMVLimit:               0.5,
}

// ParameterError reports an unusable comfort parameter.
type ParameterError struct {
	Field string
	Value float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("comfort: invalid %s: %g", e.Field, e.Value)
}

// IsTransient returns false as parameter errors are permanent
func (e *ParameterError) IsTransient() bool {
	return false
}

// Validate checks that every parameter is finite and physically meaningful.
func (p Parameters) Validate() error {
	checks := []struct {
		name string
		v    float64
		ok   bool
	}{
		{"mean_radiant_temperature", p.MeanRadiantTemperature, p.MeanRadiantTemperature > -50 && p.MeanRadiantTemperature < 100},
		{"air_speed", p.AirSpeed, p.AirSpeed >= 0},
		{"metabolic_rate", p.MetabolicRate, p.MetabolicRate > 0},
		{"clothing", p.Clothing, p.Clothing >= 0},
		{"pmv_limit", p.PMVLimit, p.PMVLimit > 0},
		{"external_work", p.ExternalWork, p.ExternalWork >= 0 && p.ExternalWork < p.MetabolicRate},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || !c.ok {
			return &ParameterError{Field: c.name, Value: c.v}
		}
	}
	return nil
}

// PMV evaluates the predicted mean vote at air temperature ta and relative humidity rh.
func (p Parameters) PMV(ta, rh float64) float64 {
	return psychro.PMV(ta, p.MeanRadiantTemperature, p.AirSpeed, rh, p.MetabolicRate, p.Clothing, p.ExternalWork)
}

// Bounds is the air temperature interval in which |PMV| stays within the limit.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TemperatureBounds locates the air temperatures in [-50, 50] °C where PMV
// crosses -|pmvLimit| and +|pmvLimit|. Each search is a fixed bisection that
// stops early only once the midpoint no longer moves. A NaN PMV is treated
// as out of range on the side being searched. It reports false when no
// comfortable interval exists.
func TemperatureBounds(tr, vel, rh, met, clo, pmvLimit, wme float64) (Bounds, bool) {
	limit := math.Abs(pmvLimit)
	pmv := func(ta float64) float64 {
		return psychro.PMV(ta, tr, vel, rh, met, clo, wme)
	}

	low, high := searchMin, searchMax
	for i := 0; i < BoundsIterations; i++ {
		mid := (low + high) / 2
		if mid == low || mid == high {
			break
		}
		if v := pmv(mid); math.IsNaN(v) || v < -limit {
			low = mid
		} else {
			high = mid
		}
	}
	lower := high

	low, high = searchMin, searchMax
	for i := 0; i < BoundsIterations; i++ {
		mid := (low + high) / 2
		if mid == low || mid == high {
			break
		}
		if v := pmv(mid); math.IsNaN(v) || v > limit {
			high = mid
		} else {
			low = mid
		}
	}
	upper := low

	if math.IsNaN(lower) || math.IsNaN(upper) || lower >= upper {
		return Bounds{}, false
	}
	return Bounds{Lower: lower, Upper: upper}, true
}

// Bounds is TemperatureBounds with p's inputs.
func (p Parameters) Bounds(rh float64) (Bounds, bool) {
	return TemperatureBounds(p.MeanRadiantTemperature, p.AirSpeed, rh, p.MetabolicRate, p.Clothing, p.PMVLimit, p.ExternalWork)
}

// PolygonRelativeHumidities are the RH levels sampled along the comfort zone edges.
var PolygonRelativeHumidities = []float64{1, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// Polygon traces the comfort zone as one closed boundary: the warm edge in
// increasing RH followed by the cool edge in decreasing RH. RH levels without
// a comfortable interval are skipped. The result is empty when either edge
// has fewer than two points.
func Polygon(p Parameters) []psychro.Point {
	var upper, lower []psychro.Point
	for _, rh := range PolygonRelativeHumidities {
		b, ok := p.Bounds(rh)
		if !ok {
			continue
		}
		upper = append(upper, psychro.Point{T: b.Upper, W: psychro.HumidityRatioFromRH(b.Upper, rh)})
		lower = append(lower, psychro.Point{T: b.Lower, W: psychro.HumidityRatioFromRH(b.Lower, rh)})
	}
	if len(upper) < 2 || len(lower) < 2 {
		return []psychro.Point{}
	}

	out := make([]psychro.Point, 0, len(upper)+len(lower))
	out = append(out, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		out = append(out, lower[i])
	}
	return out
}
