package perf

// interp1D linearly interpolates y for the given x over samples ordered by
// strictly increasing temperature. Queries beyond either end clamp to the end
// sample's value rather than extrapolating. Callers guarantee at least two
// samples with distinct temperatures.
func interp1D(samples []Sample, x float64) float64 {
	if x <= samples[0].TempC {
		return samples[0].DropdownFt
	}
	last := samples[len(samples)-1]
	if x >= last.TempC {
		return last.DropdownFt
	}
	for i := 0; i+1 < len(samples); i++ {
		lo, hi := samples[i], samples[i+1]
		if x > hi.TempC {
			continue
		}
		f := (x - lo.TempC) / (hi.TempC - lo.TempC)
		return lo.DropdownFt + f*(hi.DropdownFt-lo.DropdownFt)
	}
	return last.DropdownFt
}

// RequiredDropdown returns the dropdown distance in feet required at the
// given chart weight and outside air temperature.
//
// The lookup is two-pass: temperature is interpolated within each of the two
// bracketing weight bands first, then the two results are blended linearly
// across weight. The passes are kept separate on purpose; with uneven band
// spacing a joint bilinear interpolation gives different results.
//
// Weights outside the band range clamp to the nearest band.
func (t Table) RequiredDropdown(weightLb, oatC float64) float64 {
	if weightLb <= t[0].WeightLb {
		return interp1D(t[0].Samples, oatC)
	}
	top := t[len(t)-1]
	if weightLb >= top.WeightLb {
		return interp1D(top.Samples, oatC)
	}
	for i := 0; i+1 < len(t); i++ {
		lo, hi := t[i], t[i+1]
		if weightLb > hi.WeightLb {
			continue
		}
		dLow := interp1D(lo.Samples, oatC)
		dHigh := interp1D(hi.Samples, oatC)
		f := (weightLb - lo.WeightLb) / (hi.WeightLb - lo.WeightLb)
		return dLow + f*(dHigh-dLow)
	}
	return interp1D(top.Samples, oatC)
}

// WeightForDropdown returns the chart weight in pounds whose required
// dropdown at the given temperature equals targetFt.
//
// The table is sliced at the fixed temperature (one dropdown value per band),
// then inverted across weight. The slice is assumed monotonic in weight; if a
// hand-edited table violates that, the first bracketing band pair wins.
// Targets outside the achievable range clamp to the lowest or highest band
// weight, and a zero-or-negative target returns the lowest band weight
// directly.
func (t Table) WeightForDropdown(targetFt, oatC float64) float64 {
	if targetFt <= 0 {
		return t[0].WeightLb
	}

	drops := make([]float64, len(t))
	for i, b := range t {
		drops[i] = interp1D(b.Samples, oatC)
	}

	if targetFt <= drops[0] {
		return t[0].WeightLb
	}
	for i := 0; i+1 < len(drops); i++ {
		if targetFt < drops[i] || targetFt > drops[i+1] {
			continue
		}
		if drops[i+1] == drops[i] {
			return t[i].WeightLb
		}
		f := (targetFt - drops[i]) / (drops[i+1] - drops[i])
		return t[i].WeightLb + f*(t[i+1].WeightLb-t[i].WeightLb)
	}
	return t[len(t)-1].WeightLb
}
