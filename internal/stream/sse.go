// Package stream implements Server-Sent Events streaming of current station
// conditions and the derived maximum takeoff weight. Clients connect via
// GET /api/v1/stream/conditions and receive a message whenever a new weather
// dataset lands, with keep-alive comments (:\n\n) in between.
//
// First message is always metadata:
//
//	data: {"type":"metadata","stations":["ENZV"],"age_seconds":42}\n\n
//
// Condition messages follow:
//
//	data: {"type":"conditions","fetched_at":"...","stations":[...]}\n\n
package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/httputil"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/metrics"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/perf"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/wx"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxConcurrent      int           // Global stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	PollInterval       time.Duration // Store change-detection interval (default: 2s).
	TrustProxy         bool          // Honor proxy IP headers for limiting.
}

// Handler manages SSE conditions streams.
type Handler struct {
	store   *wx.Store
	table   perf.Table
	config  Config
	limiter *connLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler over the given weather store
// and performance table.
func NewHandler(store *wx.Store, table perf.Table, config Config, logger *slog.Logger) *Handler {
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	return &Handler{
		store:   store,
		table:   table,
		config:  config,
		limiter: newConnLimiter(config.MaxConcurrentPerIP, config.MaxConcurrent),
		logger:  logger,
	}
}

type metadataMessage struct {
	Type       string   `json:"type"`
	Stations   []string `json:"stations"`
	AgeSeconds float64  `json:"age_seconds"`
}

type stationConditions struct {
	StationID     string  `json:"station_id"`
	TempC         float64 `json:"temp_c"`
	WindDirDeg    float64 `json:"wind_dir_deg"`
	WindSpeedKt   float64 `json:"wind_speed_kt"`
	PressureAltFt float64 `json:"pressure_alt_ft"`
	MaxTakeoffLb  float64 `json:"max_takeoff_lb"`
}

type conditionsMessage struct {
	Type      string              `json:"type"`
	FetchedAt time.Time           `json:"fetched_at"`
	Stations  []stationConditions `json:"stations"`
}

// HandleConditions serves the SSE conditions stream.
// GET /api/v1/stream/conditions
func (h *Handler) HandleConditions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"too many concurrent streams"}`))
		return
	}
	defer h.limiter.release(ip)

	metrics.IncStreamClients()
	defer metrics.DecStreamClients()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		ip:      ip,
		logger:  h.logger,
	}

	if err := c.sendJSON(h.metadata()); err != nil {
		h.logger.Debug("stream metadata send failed", "remote_ip", ip, "error", err)
		return
	}

	// Send current conditions immediately if a dataset is loaded, then push
	// on every dataset change.
	var lastSent time.Time
	if ds := h.store.Get(); ds != nil {
		if err := c.sendJSON(h.conditions(ds)); err != nil {
			return
		}
		lastSent = ds.FetchedAt
	}

	poll := time.NewTicker(h.config.PollInterval)
	defer poll.Stop()
	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	h.logger.Debug("stream connected", "remote_ip", ip)
	defer func() {
		h.logger.Debug("stream disconnected",
			"remote_ip", ip,
			"messages_sent", c.messagesSent,
			"bytes_sent", c.bytesSent,
		)
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-poll.C:
			ds := h.store.Get()
			if ds == nil || !ds.FetchedAt.After(lastSent) {
				continue
			}
			if err := c.sendJSON(h.conditions(ds)); err != nil {
				return
			}
			lastSent = ds.FetchedAt
		case <-keepalive.C:
			if err := c.sendKeepalive(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) metadata() metadataMessage {
	msg := metadataMessage{
		Type:       "metadata",
		Stations:   []string{},
		AgeSeconds: h.store.AgeSeconds(),
	}
	if ds := h.store.Get(); ds != nil {
		for _, rep := range ds.Reports {
			msg.Stations = append(msg.Stations, rep.StationID)
		}
	}
	return msg
}

// conditions derives, per station, the maximum takeoff weight at the
// dropdown limit for the station's current temperature and pressure
// altitude. No headwind credit is claimed; the wind belongs to whatever
// heading the pilot ends up flying.
func (h *Handler) conditions(ds *wx.Dataset) conditionsMessage {
	msg := conditionsMessage{
		Type:      "conditions",
		FetchedAt: ds.FetchedAt,
		Stations:  make([]stationConditions, 0, len(ds.Reports)),
	}
	for _, rep := range ds.Reports {
		pa := rep.PressureAltitudeFt()
		chart := h.table.WeightForDropdown(perf.MaxDropdownFt, rep.TempC)
		msg.Stations = append(msg.Stations, stationConditions{
			StationID:     rep.StationID,
			TempC:         rep.TempC,
			WindDirDeg:    rep.WindDirDeg,
			WindSpeedKt:   rep.WindSpeedKt,
			PressureAltFt: pa,
			MaxTakeoffLb:  perf.GrossWeight(chart, 0, pa),
		})
	}
	return msg
}
