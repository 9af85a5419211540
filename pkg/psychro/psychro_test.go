package psychro

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaturationVaporPressure_KnownValues(t *testing.T) {
	tests := []struct {
		tdb  float64
		want float64
		tol  float64
	}{
		{0, 611.2, 1.0},
		{20, 2339, 5},
		{25, 3169, 5},
		{-10, 261.1, 1.0},
		{100, 101418, 300},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, SaturationVaporPressure(tt.tdb), tt.tol, "tdb=%v", tt.tdb)
	}
}

func TestSaturationVaporPressure_StrictlyIncreasing(t *testing.T) {
	prev := SaturationVaporPressure(-50)
	for tdb := -49.9; tdb <= 60; tdb += 0.1 {
		cur := SaturationVaporPressure(tdb)
		require.Greater(t, cur, prev, "not increasing at %v", tdb)
		prev = cur
	}
}

func TestSaturationVaporPressure_BranchesAtZero(t *testing.T) {
	ice := SaturationVaporPressure(-1e-9)
	water := SaturationVaporPressure(0)
	assert.InDelta(t, water, ice, 5, "branches should nearly meet at 0 °C")
}

func TestHumidityRatioFromRH_Reference(t *testing.T) {
	w := HumidityRatioFromRH(20, 50)
	assert.InDelta(t, 0.00728, w, 0.00728*0.05)
	assert.Equal(t, 0.0, HumidityRatioFromRH(20, 0))
}

func TestRelativeHumidityRoundTrip(t *testing.T) {
	for tdb := -20.0; tdb <= 50; tdb += 2.5 {
		for rh := 1.0; rh <= 100; rh += 9 {
			got := RelativeHumidityFromW(tdb, HumidityRatioFromRH(tdb, rh))
			require.InDelta(t, rh, got, 0.1, "tdb=%v rh=%v", tdb, rh)
		}
	}
}

func TestRelativeHumidityFromW_CappedAt100(t *testing.T) {
	w := HumidityRatioFromRH(20, 100) * 1.5
	assert.Equal(t, 100.0, RelativeHumidityFromW(20, w))
}

func TestVaporPressureFromHumidityRatio(t *testing.T) {
	for _, rh := range []float64{10, 50, 90} {
		pw := SaturationVaporPressure(25) * rh / 100
		w := HumidityRatioFromRH(25, rh)
		assert.InDelta(t, pw, VaporPressureFromHumidityRatio(w), 1e-6)
	}
}

func TestDewPoint(t *testing.T) {
	assert.InDelta(t, 9.3, DewPoint(HumidityRatioFromRH(20, 50)), 1.0)
	assert.True(t, math.IsNaN(DewPoint(0)), "dew point of dry air is undefined")
	assert.True(t, math.IsNaN(DewPoint(HumidityRatioFromRH(-10, 50))))
}

func TestEnthalpyInverse(t *testing.T) {
	for _, tdb := range []float64{-10, 0, 21.3, 45} {
		for _, w := range []float64{0, 0.005, 0.02} {
			h := Enthalpy(tdb, w)
			assert.InDelta(t, tdb, DryBulbFromEnthalpyAndW(h, w), 1e-9)
		}
	}
	assert.InDelta(t, 38.6, Enthalpy(20, HumidityRatioFromRH(20, 50)), 0.5)
}

func TestWetBulb(t *testing.T) {
	t.Run("never above dry bulb", func(t *testing.T) {
		for tdb := -10.0; tdb <= 45; tdb += 5 {
			for _, rh := range []float64{5, 30, 60, 95} {
				assert.LessOrEqual(t, WetBulb(tdb, HumidityRatioFromRH(tdb, rh)), tdb)
			}
		}
	})

	t.Run("saturated air", func(t *testing.T) {
		for _, tdb := range []float64{5, 20, 30} {
			assert.InDelta(t, tdb, WetBulb(tdb, HumidityRatioFromRH(tdb, 100)), 0.01)
		}
	})

	t.Run("reference", func(t *testing.T) {
		assert.InDelta(t, 13.7, WetBulb(20, HumidityRatioFromRH(20, 50)), 0.3)
	})
}

func TestPMV(t *testing.T) {
	t.Run("near neutral reference", func(t *testing.T) {
		pmv := PMV(24, 24, 0.1, 50, 1.0, 0.5, 0)
		assert.Greater(t, pmv, -1.0)
		assert.Less(t, pmv, 1.0)
	})

	t.Run("monotonic in air temperature", func(t *testing.T) {
		prev := PMV(10, 22, 0.1, 50, 1.2, 1.0, 0)
		for ta := 11.0; ta <= 35; ta++ {
			cur := PMV(ta, 22, 0.1, 50, 1.2, 1.0, 0)
			assert.Greater(t, cur, prev, "ta=%v", ta)
			prev = cur
		}
	})

	t.Run("cold and hot extremes", func(t *testing.T) {
		assert.Less(t, PMV(10, 10, 0.1, 50, 1.0, 0.5, 0), -2.0)
		assert.Greater(t, PMV(35, 35, 0.1, 50, 1.0, 0.5, 0), 2.0)
	})

	t.Run("sweat term active above one met of work", func(t *testing.T) {
		resting := PMV(22, 22, 0.1, 50, 1.0, 1.0, 0)
		active := PMV(22, 22, 0.1, 50, 2.0, 1.0, 0)
		assert.Greater(t, active, resting)
	})

	t.Run("external work reduces heat load", func(t *testing.T) {
		assert.Less(t, PMV(24, 24, 0.1, 50, 1.5, 0.5, 0.3), PMV(24, 24, 0.1, 50, 1.5, 0.5, 0))
	})
}

func TestNewState(t *testing.T) {
	s, err := NewState(20, 50)
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.DryBulb)
	assert.InDelta(t, 50, s.RelativeHumidity, 1e-9)
	assert.InDelta(t, HumidityRatioFromRH(20, 50), s.HumidityRatio, 1e-15)
	assert.InDelta(t, 9.3, s.DewPoint, 1.0)
	assert.Less(t, s.WetBulb, s.DryBulb)
	assert.Greater(t, s.Enthalpy, 0.0)
	assert.Greater(t, s.VaporPressure, 0.0)

	tests := []struct {
		name    string
		tdb, rh float64
		wantErr error
	}{
		{"rh above 100", 20, 101, ErrHumidityOutOfRange},
		{"negative rh", 20, -1, ErrHumidityOutOfRange},
		{"nan", math.NaN(), 50, ErrNonFinite},
		{"boiling", 120, 100, ErrVaporPressure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewState(tt.tdb, tt.rh)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestStateFromHumidityRatio(t *testing.T) {
	s, err := StateFromHumidityRatio(25, 0.010)
	require.NoError(t, err)
	assert.InDelta(t, 0.010, s.HumidityRatio, 1e-15)
	assert.Greater(t, s.RelativeHumidity, 40.0)
	assert.Less(t, s.RelativeHumidity, 60.0)

	dry, err := StateFromHumidityRatio(25, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(dry.DewPoint))

	_, err = StateFromHumidityRatio(10, 0.02)
	assert.ErrorIs(t, err, ErrSupersaturated)

	_, err = StateFromHumidityRatio(10, -0.001)
	assert.ErrorIs(t, err, ErrHumidityOutOfRange)

	_, err = StateFromHumidityRatio(math.Inf(1), 0.001)
	assert.ErrorIs(t, err, ErrNonFinite)
}
