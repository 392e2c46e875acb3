package wx

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// metarRecord mirrors the aviationweather.gov METAR JSON schema. Numeric
// fields are pointers because the API omits them when a sensor is missing;
// wdir is raw because it can be an integer or the string "VRB".
type metarRecord struct {
	ICAOID  string          `json:"icaoId"`
	ObsTime int64           `json:"obsTime"`
	Temp    *float64        `json:"temp"`
	Dewp    *float64        `json:"dewp"`
	Wdir    json.RawMessage `json:"wdir"`
	Wspd    *float64        `json:"wspd"`
	Altim   *float64        `json:"altim"`
	Elev    *float64        `json:"elev"`
	RawOb   string          `json:"rawOb"`
}

// Decode reads a METAR JSON array from r and returns the usable reports.
// Records without a station ID or a temperature are skipped with a warning;
// a report with no temperature cannot drive the performance chart.
func Decode(r io.Reader, logger *slog.Logger) ([]Report, error) {
	var records []metarRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding METAR response: %w", err)
	}

	reports := make([]Report, 0, len(records))
	for _, rec := range records {
		if rec.ICAOID == "" {
			logger.Warn("skipping METAR record without station ID", "raw", rec.RawOb)
			continue
		}
		if rec.Temp == nil {
			logger.Warn("skipping METAR record without temperature", "station", rec.ICAOID)
			continue
		}

		rep := Report{
			StationID: rec.ICAOID,
			ObsTime:   time.Unix(rec.ObsTime, 0).UTC(),
			TempC:     *rec.Temp,
			Raw:       rec.RawOb,
		}
		if rec.Dewp != nil {
			rep.DewpointC = *rec.Dewp
		}
		if rec.Wspd != nil {
			rep.WindSpeedKt = *rec.Wspd
		}
		if rec.Altim != nil {
			rep.AltimeterHpa = *rec.Altim
		}
		if rec.Elev != nil {
			rep.ElevationM = *rec.Elev
		}
		rep.WindDirDeg, rep.WindVariable = decodeWindDir(rec.Wdir)

		reports = append(reports, rep)
	}

	return reports, nil
}

// decodeWindDir handles the two wire forms of wdir: a number of degrees or
// the string "VRB" for variable wind.
func decodeWindDir(raw json.RawMessage) (deg float64, variable bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s == "VRB" {
		return 0, true
	}
	return 0, false
}
