package psychro

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonFinite is returned for NaN or infinite inputs.
	ErrNonFinite = errors.New("psychro: input is not a finite number")
	// ErrHumidityOutOfRange is returned for RH outside [0, 100] or negative W.
	ErrHumidityOutOfRange = errors.New("psychro: humidity out of range")
	// ErrSupersaturated is returned when W exceeds saturation at the dry bulb.
	ErrSupersaturated = errors.New("psychro: humidity ratio above saturation")
	// ErrVaporPressure is returned when vapor pressure reaches atmospheric pressure.
	ErrVaporPressure = errors.New("psychro: vapor pressure at or above atmospheric pressure")
)

// State is a full set of moist-air properties at one point.
type State struct {
	DryBulb          float64 `json:"dry_bulb"`
	HumidityRatio    float64 `json:"humidity_ratio"`
	RelativeHumidity float64 `json:"relative_humidity"`
	WetBulb          float64 `json:"wet_bulb"`
	DewPoint         float64 `json:"dew_point"` // NaN when undefined
	Enthalpy         float64 `json:"enthalpy"`
	VaporPressure    float64 `json:"vapor_pressure"`
}

// NewState builds a State from dry bulb (°C) and relative humidity (%).
func NewState(tdb, rh float64) (State, error) {
	if !finite(tdb) || !finite(rh) {
		return State{}, ErrNonFinite
	}
	if rh < 0 || rh > 100 {
		return State{}, fmt.Errorf("%w: rh=%g", ErrHumidityOutOfRange, rh)
	}
	pw := SaturationVaporPressure(tdb) * rh / 100
	if pw >= StandardPressure {
		return State{}, fmt.Errorf("%w: tdb=%g", ErrVaporPressure, tdb)
	}
	return stateAt(tdb, HumidityRatioFromRH(tdb, rh)), nil
}

// StateFromHumidityRatio builds a State from dry bulb (°C) and humidity ratio (kg/kg).
func StateFromHumidityRatio(tdb, w float64) (State, error) {
	if !finite(tdb) || !finite(w) {
		return State{}, ErrNonFinite
	}
	if w < 0 {
		return State{}, fmt.Errorf("%w: w=%g", ErrHumidityOutOfRange, w)
	}
	if SaturationVaporPressure(tdb) >= StandardPressure {
		return State{}, fmt.Errorf("%w: tdb=%g", ErrVaporPressure, tdb)
	}
	if w > HumidityRatioFromRH(tdb, 100) {
		return State{}, fmt.Errorf("%w: tdb=%g w=%g", ErrSupersaturated, tdb, w)
	}
	return stateAt(tdb, w), nil
}

func stateAt(tdb, w float64) State {
	return State{
		DryBulb:          tdb,
		HumidityRatio:    w,
		RelativeHumidity: RelativeHumidityFromW(tdb, w),
		WetBulb:          WetBulb(tdb, w),
		DewPoint:         DewPoint(w),
		Enthalpy:         Enthalpy(tdb, w),
		VaporPressure:    VaporPressureFromHumidityRatio(w),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
