// Package wx acquires METAR observations for the configured reporting
// stations and derives the environmental inputs the performance chart needs:
// outside air temperature, pressure altitude, and headwind component.
package wx

import (
	"math"
	"time"
)

const (
	feetPerMeter = 3.28084
	// ISA pressure lapse near sea level, feet of altitude per hPa.
	feetPerHpa  = 27.0
	standardHpa = 1013.25
)

// Report is a decoded METAR observation for a single station.
type Report struct {
	StationID    string    `json:"station_id"`
	ObsTime      time.Time `json:"obs_time"`
	TempC        float64   `json:"temp_c"`
	DewpointC    float64   `json:"dewpoint_c"`
	WindDirDeg   float64   `json:"wind_dir_deg"`
	WindVariable bool      `json:"wind_variable"`
	WindSpeedKt  float64   `json:"wind_speed_kt"`
	AltimeterHpa float64   `json:"altimeter_hpa"`
	ElevationM   float64   `json:"elevation_m"`
	Raw          string    `json:"raw"`
}

// PressureAltitudeFt returns the station's pressure altitude: field elevation
// corrected for non-standard sea-level pressure at ~27 ft per hPa. A missing
// altimeter setting falls back to field elevation.
func (r Report) PressureAltitudeFt() float64 {
	elevFt := r.ElevationM * feetPerMeter
	if r.AltimeterHpa == 0 {
		return elevFt
	}
	return elevFt + (standardHpa-r.AltimeterHpa)*feetPerHpa
}

// HeadwindComponentKt returns the wind component along the given heading in
// knots. Tailwinds come back negative. Variable winds report zero, which is
// the conservative choice: no headwind credit is claimed.
func (r Report) HeadwindComponentKt(headingDeg float64) float64 {
	if r.WindVariable || r.WindSpeedKt == 0 {
		return 0
	}
	return r.WindSpeedKt * math.Cos((r.WindDirDeg-headingDeg)*math.Pi/180.0)
}

// Dataset is a complete fetch result for all configured stations.
type Dataset struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Reports   []Report  `json:"reports"`
}

// Station returns the report for the given station ID, if present.
func (d *Dataset) Station(id string) (Report, bool) {
	for _, r := range d.Reports {
		if r.StationID == id {
			return r, true
		}
	}
	return Report{}, false
}
