package perf

// EnvelopePoint is one point of a maximum-takeoff-weight curve.
type EnvelopePoint struct {
	OATC       float64 `json:"oat_c"`
	MaxGrossLb float64 `json:"max_gross_lb"`
}

// Envelope sweeps outside air temperature from oatMin to oatMax (inclusive)
// in stepC increments and returns, for each step, the maximum gross weight
// whose required dropdown stays within limitFt under the given wind and
// pressure altitude. The chart is inverted at each temperature and the
// result converted back from chart weight to gross weight.
//
// Returns nil for a non-positive step or an empty range.
func (t Table) Envelope(limitFt, headwindKt, pressureAltFt, oatMin, oatMax, stepC float64) []EnvelopePoint {
	if stepC <= 0 || oatMax < oatMin {
		return nil
	}

	n := int((oatMax-oatMin)/stepC) + 1
	points := make([]EnvelopePoint, 0, n)
	for i := 0; i < n; i++ {
		oat := oatMin + float64(i)*stepC
		chartLb := t.WeightForDropdown(limitFt, oat)
		points = append(points, EnvelopePoint{
			OATC:       oat,
			MaxGrossLb: GrossWeight(chartLb, headwindKt, pressureAltFt),
		})
	}
	return points
}
