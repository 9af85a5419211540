// Package psychro implements moist-air property relations at standard
// atmospheric pressure and Fanger's PMV thermal sensation index.
//
// All functions are pure. Inputs outside the physical domain (RH above 100,
// vapor pressure at or above atmospheric) are not rejected here; they yield
// NaN or Inf. Use NewState / StateFromHumidityRatio for validated results.
package psychro

import "math"

// StandardPressure is the fixed atmospheric pressure in Pa. No altitude
// correction is applied.
const StandardPressure = 101325.0

// molarMassRatio is the water vapor / dry air molecular weight ratio.
const molarMassRatio = 0.621945

// dewPointReferencePressure is the Magnus reference vapor pressure in Pa.
const dewPointReferencePressure = 611.2

// WetBulbIterations is the fixed bisection budget of WetBulb.
const WetBulbIterations = 30

// SaturationVaporPressure returns the saturation vapor pressure in Pa over
// ice (tdb < 0) or liquid water (tdb >= 0), Hyland-Wexler form.
func SaturationVaporPressure(tdb float64) float64 {
	tk := tdb + 273.15
	if tdb < 0 {
		const (
			c1 = -5.6745359e3
			c2 = 6.3925247
			c3 = -9.677843e-3
			c4 = 6.2215701e-7
			c5 = 2.0747825e-9
			c7 = 4.1635019
		)
		return math.Exp(c1/tk + c2 + tk*(c3+tk*(c4+tk*c5)) + c7*math.Log(tk))
	}
	const (
		c1 = -5.8002206e3
		c2 = 1.3914993
		c3 = -4.8640239e-2
		c4 = 4.1764768e-5
		c5 = -1.4452093e-8
		c6 = 6.5459673
	)
	return math.Exp(c1/tk + c2 + tk*(c3+tk*(c4+tk*c5)) + c6*math.Log(tk))
}

// VaporPressureFromHumidityRatio returns the partial vapor pressure in Pa.
func VaporPressureFromHumidityRatio(w float64) float64 {
	return w * StandardPressure / (molarMassRatio + w)
}

// HumidityRatioFromRH returns W in kg/kg for a dry bulb in °C and RH in %.
// RH is not clamped.
func HumidityRatioFromRH(tdb, rh float64) float64 {
	pw := SaturationVaporPressure(tdb) * (rh / 100)
	return molarMassRatio * (pw / (StandardPressure - pw))
}

// RelativeHumidityFromW returns RH in %, capped at 100.
func RelativeHumidityFromW(tdb, w float64) float64 {
	pw := VaporPressureFromHumidityRatio(w)
	pws := SaturationVaporPressure(tdb)
	return math.Min(100, pw/pws*100)
}

// DewPoint returns the dew point in °C, or NaN when the vapor pressure is
// below the 611.2 Pa reference.
func DewPoint(w float64) float64 {
	pw := VaporPressureFromHumidityRatio(w)
	if pw < dewPointReferencePressure {
		return math.NaN()
	}
	alpha := math.Log(pw / dewPointReferencePressure)
	return 243.5 * alpha / (17.67 - alpha)
}

// Enthalpy returns moist air enthalpy in kJ/kg of dry air.
func Enthalpy(tdb, w float64) float64 {
	return 1.006*tdb + w*(2501+1.86*tdb)
}

// DryBulbFromEnthalpyAndW inverts Enthalpy for the dry bulb temperature.
func DryBulbFromEnthalpyAndW(h, w float64) float64 {
	return (h - 2501*w) / (1.006 + 1.86*w)
}

// WetBulb finds the temperature in [-50, tdb] whose saturation enthalpy
// matches Enthalpy(tdb, w). It always runs WetBulbIterations bisection
// rounds and returns the upper bracket.
func WetBulb(tdb, w float64) float64 {
	target := Enthalpy(tdb, w)
	low, high := -50.0, tdb
	for i := 0; i < WetBulbIterations; i++ {
		mid := (low + high) / 2
		hSat := Enthalpy(mid, HumidityRatioFromRH(mid, 100))
		if hSat < target {
			low = mid
		} else {
			high = mid
		}
	}
	return high
}
