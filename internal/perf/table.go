// Package perf implements the S-92 single-engine takeoff performance chart:
// required dropdown distance as a function of aircraft weight and outside air
// temperature, the inverse lookup (maximum weight for a dropdown limit), and
// the environmental correction between gross and chart weight.
//
// All functions are pure and total: queries outside the chart's domain are
// clamped to the nearest boundary, never extrapolated and never rejected.
package perf

// Sample is a single chart point within a weight band.
type Sample struct {
	TempC      float64
	DropdownFt float64
}

// Band is one gross-weight line of the chart: dropdown vs temperature at a
// fixed reference weight. Samples are strictly increasing in temperature.
type Band struct {
	WeightLb float64
	Samples  []Sample
}

// Table is an ordered set of weight bands, strictly increasing in weight.
// A well-formed table has at least two bands of at least two samples each;
// tables are static reference data and are never mutated.
type Table []Band

// MaxDropdownFt is the operational single-engine dropdown limit used as the
// default ceiling when computing maximum takeoff weight.
const MaxDropdownFt = 100.0

// S92 is the built-in S-92 takeoff performance chart. Weights in pounds,
// temperatures in degrees Celsius, dropdown in feet.
var S92 = Table{
	{WeightLb: 22000, Samples: []Sample{
		{TempC: 0, DropdownFt: 16},
		{TempC: 10, DropdownFt: 23},
		{TempC: 20, DropdownFt: 31},
		{TempC: 30, DropdownFt: 40},
		{TempC: 40, DropdownFt: 50},
	}},
	{WeightLb: 23000, Samples: []Sample{
		{TempC: 0, DropdownFt: 30},
		{TempC: 10, DropdownFt: 40},
		{TempC: 20, DropdownFt: 50},
		{TempC: 30, DropdownFt: 62},
		{TempC: 40, DropdownFt: 76},
	}},
	{WeightLb: 24000, Samples: []Sample{
		{TempC: 0, DropdownFt: 46},
		{TempC: 10, DropdownFt: 58},
		{TempC: 20, DropdownFt: 70},
		{TempC: 30, DropdownFt: 84},
		{TempC: 40, DropdownFt: 100},
	}},
	{WeightLb: 25000, Samples: []Sample{
		{TempC: 0, DropdownFt: 64},
		{TempC: 10, DropdownFt: 78},
		{TempC: 20, DropdownFt: 93},
		{TempC: 30, DropdownFt: 110},
		{TempC: 40, DropdownFt: 128},
	}},
	{WeightLb: 26000, Samples: []Sample{
		{TempC: 0, DropdownFt: 86},
		{TempC: 10, DropdownFt: 102},
		{TempC: 20, DropdownFt: 120},
		{TempC: 30, DropdownFt: 140},
		{TempC: 40, DropdownFt: 162},
	}},
}

// MinWeightLb returns the lowest band weight in the table.
func (t Table) MinWeightLb() float64 {
	return t[0].WeightLb
}

// MaxWeightLb returns the highest band weight in the table.
func (t Table) MaxWeightLb() float64 {
	return t[len(t)-1].WeightLb
}
