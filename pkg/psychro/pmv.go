package psychro

import "math"

const (
	// ClothingIterations bounds the clothing surface temperature fixed point.
	ClothingIterations = 15
	// ClothingTolerance is the convergence threshold in °C.
	ClothingTolerance = 0.01

	metToWatts = 58.15 // W/m² per met
	cloToIcl   = 0.155 // m²K/W per clo
)

// PMV returns Fanger's predicted mean vote.
//
//	ta   air temperature, °C
//	tr   mean radiant temperature, °C
//	vel  relative air speed, m/s
//	rh   relative humidity, %
//	met  metabolic rate, met
//	clo  clothing insulation, clo
//	wme  external work, met (usually 0)
func PMV(ta, tr, vel, rh, met, clo, wme float64) float64 {
	pa := SaturationVaporPressure(ta) * rh / 100
	icl := cloToIcl * clo
	m := met * metToWatts
	w := wme * metToWatts
	mw := m - w

	fcl := 1.05 + 0.645*icl
	if icl < 0.078 {
		fcl = 1.0 + 1.29*icl
	}
	hcf := 12.1 * math.Sqrt(vel)
	tra := tr + 273.15

	tcl := ta
	for i := 0; i < ClothingIterations; i++ {
		hc := math.Max(hcf, 2.38*math.Pow(math.Abs(tcl-ta), 0.25))
		tclK := tcl + 273.15
		next := 35.7 - 0.028*mw - icl*(3.96e-8*fcl*(math.Pow(tclK, 4)-math.Pow(tra, 4))+fcl*hc*(tcl-ta))
		if math.Abs(next-tcl) < ClothingTolerance {
			tcl = next
			break
		}
		tcl = (tcl + next) / 2
	}

	tcla := tcl + 273.15
	l := 0.303*math.Exp(-0.036*m) + 0.028
	convection := fcl * math.Max(hcf, 2.38*math.Pow(math.Abs(tcl-ta), 0.25)) * (tcl - ta)
	radiation := 3.96 * fcl * (math.Pow(tcla/100, 4) - math.Pow(tra/100, 4))
	diffusion := 3.05e-3 * (5733 - 6.99*mw - pa)
	respLatent := 1.7e-5 * m * (5867 - pa)
	respSensible := 0.0014 * m * (34 - ta)
	sweat := 0.0
	if mw > metToWatts {
		sweat = 0.42 * (mw - metToWatts)
	}

	return l * (mw - diffusion - sweat - respLatent - respSensible - radiation - convection)
}
