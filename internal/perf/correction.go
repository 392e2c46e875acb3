package perf

// Environmental correction coefficients. Pressure altitude costs 600 lb of
// chart margin per 1000 ft; headwind above a 4 kt threshold credits 115 lb
// per knot.
const (
	windThresholdKt     = 4.0
	windCreditLbPerKt   = 115.0
	pressureLbPer1000Ft = 600.0
)

// EffectiveWeight converts gross aircraft weight to the weight the chart
// should be evaluated at. The pressure term applies unconditionally (negative
// pressure altitudes reduce effective weight), the wind credit only above the
// 4 kt threshold. Tailwinds (negative headwind) earn no credit and no
// penalty.
func EffectiveWeight(grossLb, headwindKt, pressureAltFt float64) float64 {
	return grossLb + pressureEffect(pressureAltFt) + windEffect(headwindKt)
}

// GrossWeight is the exact algebraic inverse of EffectiveWeight for the same
// headwind and pressure altitude: it subtracts the identical two effects.
func GrossWeight(effectiveLb, headwindKt, pressureAltFt float64) float64 {
	return effectiveLb - pressureEffect(pressureAltFt) - windEffect(headwindKt)
}

func pressureEffect(pressureAltFt float64) float64 {
	return pressureLbPer1000Ft * pressureAltFt / 1000.0
}

func windEffect(headwindKt float64) float64 {
	if headwindKt <= windThresholdKt {
		return 0
	}
	return -(headwindKt - windThresholdKt) * windCreditLbPerKt
}
