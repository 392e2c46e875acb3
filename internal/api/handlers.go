package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/metrics"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/wx"
)

// maxEnvelopePoints bounds the envelope sweep so a single request cannot
// burn unbounded CPU on an absurd temperature range.
const maxEnvelopePoints = 500

// apiError carries an HTTP status alongside the message shown to the caller.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryFloat parses a float query parameter, returning def when absent.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &apiError{http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", name)}
	}
	return f, nil
}

// requireFloat parses a mandatory float query parameter.
func requireFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, &apiError{http.StatusBadRequest, fmt.Sprintf("missing %s parameter", name)}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &apiError{http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", name)}
	}
	return f, nil
}

// envInputs are the chart environment for one query, either supplied
// explicitly or derived from the latest METAR for a station.
type envInputs struct {
	Station       string  `json:"station,omitempty"`
	OATC          float64 `json:"oat_c"`
	HeadwindKt    float64 `json:"headwind_kt"`
	PressureAltFt float64 `json:"pressure_alt_ft"`
}

// resolveEnv merges explicit query parameters with station-derived values.
// Explicit oat/headwind/pressure_alt always win; a station fills whatever
// the caller left out. Without a station, oat is mandatory.
func resolveEnv(r *http.Request, store *wx.Store) (envInputs, error) {
	var env envInputs
	q := r.URL.Query()

	station := q.Get("station")
	if station != "" {
		ds := store.Get()
		if ds == nil {
			return env, &apiError{http.StatusServiceUnavailable, "no weather data loaded yet"}
		}
		rep, ok := ds.Station(strings.ToUpper(station))
		if !ok {
			return env, &apiError{http.StatusNotFound, fmt.Sprintf("unknown station %q", station)}
		}

		env.Station = rep.StationID
		env.OATC = rep.TempC
		env.PressureAltFt = rep.PressureAltitudeFt()
		// Headwind needs a reference heading; without one claim no credit.
		if q.Get("heading") != "" {
			heading, err := requireFloat(r, "heading")
			if err != nil {
				return env, err
			}
			env.HeadwindKt = rep.HeadwindComponentKt(heading)
		}
	}

	var err error
	if q.Get("oat") != "" {
		if env.OATC, err = requireFloat(r, "oat"); err != nil {
			return env, err
		}
	} else if station == "" {
		return env, &apiError{http.StatusBadRequest, "missing oat parameter"}
	}
	if env.HeadwindKt, err = queryFloat(r, "headwind", env.HeadwindKt); err != nil {
		return env, err
	}
	if env.PressureAltFt, err = queryFloat(r, "pressure_alt", env.PressureAltFt); err != nil {
		return env, err
	}

	return env, nil
}

func handleErr(w http.ResponseWriter, err error) {
	if ae, ok := err.(*apiError); ok {
		writeError(w, ae.status, ae.msg)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

type dropdownResponse struct {
	envInputs
	GrossWeightLb      float64 `json:"gross_weight_lb"`
	EffectiveWeightLb  float64 `json:"effective_weight_lb"`
	RequiredDropdownFt float64 `json:"required_dropdown_ft"`
	LimitFt            float64 `json:"limit_ft"`
	WithinLimit        bool    `json:"within_limit"`
}

// dropdownHandler serves the forward lookup: gross weight plus environment
// in, required dropdown out.
func dropdownHandler(logger *slog.Logger, store *wx.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weight, err := requireFloat(r, "weight")
		if err != nil {
			handleErr(w, err)
			return
		}
		env, err := resolveEnv(r, store)
		if err != nil {
			handleErr(w, err)
			return
		}

		eff := perf.EffectiveWeight(weight, env.HeadwindKt, env.PressureAltFt)
		dropdown := perf.S92.RequiredDropdown(eff, env.OATC)
		metrics.RecordCalculation("dropdown")

		logger.Debug("dropdown lookup",
			"gross_lb", weight,
			"effective_lb", eff,
			"oat_c", env.OATC,
			"dropdown_ft", dropdown,
		)

		writeJSON(w, http.StatusOK, dropdownResponse{
			envInputs:          env,
			GrossWeightLb:      weight,
			EffectiveWeightLb:  eff,
			RequiredDropdownFt: dropdown,
			LimitFt:            perf.MaxDropdownFt,
			WithinLimit:        dropdown <= perf.MaxDropdownFt,
		})
	}
}

type weightResponse struct {
	envInputs
	TargetDropdownFt float64 `json:"target_dropdown_ft"`
	ChartWeightLb    float64 `json:"chart_weight_lb"`
	GrossWeightLb    float64 `json:"gross_weight_lb"`
}

// weightHandler serves the inverse lookup: dropdown target plus environment
// in, maximum gross weight out.
func weightHandler(logger *slog.Logger, store *wx.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := requireFloat(r, "dropdown")
		if err != nil {
			handleErr(w, err)
			return
		}
		env, err := resolveEnv(r, store)
		if err != nil {
			handleErr(w, err)
			return
		}

		chart := perf.S92.WeightForDropdown(target, env.OATC)
		gross := perf.GrossWeight(chart, env.HeadwindKt, env.PressureAltFt)
		metrics.RecordCalculation("weight")

		logger.Debug("weight lookup",
			"target_ft", target,
			"chart_lb", chart,
			"gross_lb", gross,
			"oat_c", env.OATC,
		)

		writeJSON(w, http.StatusOK, weightResponse{
			envInputs:        env,
			TargetDropdownFt: target,
			ChartWeightLb:    chart,
			GrossWeightLb:    gross,
		})
	}
}

type envelopeResponse struct {
	LimitFt       float64              `json:"limit_ft"`
	HeadwindKt    float64              `json:"headwind_kt"`
	PressureAltFt float64              `json:"pressure_alt_ft"`
	Points        []perf.EnvelopePoint `json:"points"`
}

// envelopeHandler serves the max-takeoff-weight sweep used by the chart view.
func envelopeHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oatMin, err := queryFloat(r, "oat_min", 0)
		if err != nil {
			handleErr(w, err)
			return
		}
		oatMax, err := queryFloat(r, "oat_max", 40)
		if err != nil {
			handleErr(w, err)
			return
		}
		step, err := queryFloat(r, "step", 5)
		if err != nil {
			handleErr(w, err)
			return
		}
		limit, err := queryFloat(r, "limit", perf.MaxDropdownFt)
		if err != nil {
			handleErr(w, err)
			return
		}
		headwind, err := queryFloat(r, "headwind", 0)
		if err != nil {
			handleErr(w, err)
			return
		}
		pressureAlt, err := queryFloat(r, "pressure_alt", 0)
		if err != nil {
			handleErr(w, err)
			return
		}

		if step <= 0 || oatMax < oatMin {
			writeError(w, http.StatusBadRequest, "step must be positive and oat_max >= oat_min")
			return
		}
		if points := (oatMax-oatMin)/step + 1; points > maxEnvelopePoints {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      fmt.Sprintf("sweep would produce %.0f points", points),
				"max_points": maxEnvelopePoints,
			})
			return
		}

		points := perf.S92.Envelope(limit, headwind, pressureAlt, oatMin, oatMax, step)
		metrics.RecordCalculation("envelope")

		logger.Debug("envelope sweep",
			"limit_ft", limit,
			"oat_min", oatMin,
			"oat_max", oatMax,
			"points", len(points),
		)

		writeJSON(w, http.StatusOK, envelopeResponse{
			LimitFt:       limit,
			HeadwindKt:    headwind,
			PressureAltFt: pressureAlt,
			Points:        points,
		})
	}
}

// stationsHandler returns the full current dataset with its age.
func stationsHandler(store *wx.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := store.Get()
		if ds == nil {
			writeError(w, http.StatusServiceUnavailable, "no weather data loaded yet")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"source":      ds.Source,
			"fetched_at":  ds.FetchedAt.Format(time.RFC3339),
			"age_seconds": time.Since(ds.FetchedAt).Seconds(),
			"reports":     ds.Reports,
		})
	}
}

// stationHandler returns the latest report for one station plus the derived
// chart inputs.
func stationHandler(store *wx.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := store.Get()
		if ds == nil {
			writeError(w, http.StatusServiceUnavailable, "no weather data loaded yet")
			return
		}
		id := strings.ToUpper(r.PathValue("station"))
		rep, ok := ds.Station(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown station %q", id))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"report":          rep,
			"pressure_alt_ft": rep.PressureAltitudeFt(),
			"fetched_at":      ds.FetchedAt.Format(time.RFC3339),
		})
	}
}

// refreshHandler forces an immediate weather refresh.
func refreshHandler(logger *slog.Logger, refresher *wx.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := refresher.Refresh(r.Context()); err != nil {
			logger.Warn("manual weather refresh failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
