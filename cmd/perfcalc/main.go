package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
)

func main() {
	weight := flag.Float64("weight", 23650, "gross weight in lb")
	oat := flag.Float64("oat", 30, "outside air temperature in °C")
	headwind := flag.Float64("headwind", 7, "headwind component in kt")
	pressureAlt := flag.Float64("pressure-alt", 500, "pressure altitude in ft")
	dropdown := flag.Float64("dropdown", 0, "dropdown limit in ft; when set, solve for max weight instead")
	flag.Parse()

	if *dropdown > 0 {
		chart := perf.S92.WeightForDropdown(*dropdown, *oat)
		gross := perf.GrossWeight(chart, *headwind, *pressureAlt)
		fmt.Printf("Dropdown limit:   %.0f ft at OAT %.0f°C\n", *dropdown, *oat)
		fmt.Printf("Chart weight:     %.0f lb\n", chart)
		fmt.Printf("Max gross weight: %.0f lb (headwind %.0f kt, pressure alt %.0f ft)\n",
			gross, *headwind, *pressureAlt)
		return
	}

	if *weight <= 0 {
		fmt.Fprintln(os.Stderr, "ERROR: weight must be positive")
		os.Exit(1)
	}

	eff := perf.EffectiveWeight(*weight, *headwind, *pressureAlt)
	dd := perf.S92.RequiredDropdown(eff, *oat)

	fmt.Printf("Gross weight:      %.0f lb\n", *weight)
	fmt.Printf("Conditions:        OAT %.0f°C, headwind %.0f kt, pressure alt %.0f ft\n",
		*oat, *headwind, *pressureAlt)
	fmt.Printf("Effective weight:  %.0f lb\n", eff)
	fmt.Printf("Required dropdown: %.2f ft (limit %.0f ft)\n", dd, perf.MaxDropdownFt)
	if dd <= perf.MaxDropdownFt {
		fmt.Println("Result:            WITHIN LIMITS")
	} else {
		fmt.Println("Result:            EXCEEDS DROPDOWN LIMIT")
	}
}
