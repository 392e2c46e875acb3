package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastplanner_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fastplanner_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	perfCalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastplanner_perf_calculations_total",
			Help: "Performance chart evaluations by kind.",
		},
		[]string{"kind"},
	)

	wxFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastplanner_wx_fetch_total",
			Help: "Weather fetch attempts by result.",
		},
		[]string{"result"},
	)

	wxDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fastplanner_wx_dataset_age_seconds",
			Help: "Age of the current weather dataset.",
		},
	)

	wxReportCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fastplanner_wx_reports",
			Help: "Number of station reports in the current dataset.",
		},
	)

	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fastplanner_stream_clients",
			Help: "Currently connected SSE clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fastplanner_stream_messages_total",
			Help: "Total SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fastplanner_stream_bytes_total",
			Help: "Total bytes written to SSE clients.",
		},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fastplanner_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		perfCalculationsTotal,
		wxFetchTotal,
		wxDatasetAgeSeconds,
		wxReportCount,
		streamClients,
		streamMessagesTotal,
		streamBytesTotal,
		rateLimitedTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths served by the API. Anything else collapses
// to "other" so scanners and bots cannot inflate label cardinality.
var knownRoutes = map[string]bool{
	"/":                         true,
	"/app.js":                   true,
	"/styles.css":               true,
	"/healthz":                  true,
	"/readyz":                   true,
	"/metrics":                  true,
	"/api/v1/perf/dropdown":     true,
	"/api/v1/perf/weight":       true,
	"/api/v1/perf/envelope":     true,
	"/api/v1/wx/stations":       true,
	"/api/v1/admin/wx/refresh":  true,
	"/api/v1/stream/conditions": true,
}

// normalizeRoute maps a request path to a bounded metric label. Station
// lookups are parameterized so each station ID does not become its own label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/wx/") {
		return "/api/v1/wx/{station}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		route := normalizeRoute(r.URL.Path)
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

// RecordCalculation counts one chart evaluation of the given kind
// (dropdown, weight, envelope).
func RecordCalculation(kind string) {
	perfCalculationsTotal.WithLabelValues(kind).Inc()
}

// RecordWxFetch counts one weather fetch attempt.
func RecordWxFetch(ok bool) {
	result := "error"
	if ok {
		result = "success"
	}
	wxFetchTotal.WithLabelValues(result).Inc()
}

// SetWxDatasetAge updates the dataset age gauge.
func SetWxDatasetAge(seconds float64) {
	wxDatasetAgeSeconds.Set(seconds)
}

// SetWxReportCount updates the station report count gauge.
func SetWxReportCount(n int) {
	wxReportCount.Set(float64(n))
}

// IncStreamClients / DecStreamClients track connected SSE clients.
func IncStreamClients() { streamClients.Inc() }
func DecStreamClients() { streamClients.Dec() }

// IncStreamMessages counts one SSE data message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes adds to the SSE bytes counter.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncRateLimited counts one rate-limited request.
func IncRateLimited() { rateLimitedTotal.Inc() }
