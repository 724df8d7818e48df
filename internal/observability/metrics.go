package observability

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
	"github.com/kjstillabower/kma-forecast-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, slow drains on shutdown.
	HTTPRequestsInFlight prometheus.Gauge

	// Forecast API page calls by HTTP outcome. A lookup makes one probe plus one call per page.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Forecast API latency per page call. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Envelope result codes by severity ("ok" for 00). Watch for: unauthorized (key problems), rate_limited (daily quota).
	WeatherAPIResultCodesTotal *prometheus.CounterVec

	// Data pages per lookup. Watch for: growth (upstream returning more rows per issuance).
	ForecastPagesFetched prometheus.Histogram

	// Raw forecast records received.
	ForecastItemsTotal prometheus.Counter

	// Total forecast lookups. Watch for: traffic volume, rate() for QPS.
	WeatherQueriesTotal prometheus.Counter

	// Per-cell query count (allow-list; others go to "other").
	WeatherQueriesByCellTotal *prometheus.CounterVec

	// Lookups whose upstream fetch overlapped another for the same cell and issuance.
	DuplicateFetchesTotal prometheus.Counter

	// Concurrent fetches for one cell and issuance when an overlap is seen.
	DuplicateFetchConcurrency prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker state per component (0 closed, 1 half-open, 2 open).
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions. Watch for: flapping between open and half-open.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	trackedCellsMu sync.RWMutex
	trackedCells   map[string]struct{}

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of village forecast API calls (probe and data pages)",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Village forecast API latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIResultCodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiResultCodesTotal",
			Help: "Envelope result codes received, by severity (ok for success)",
		},
		[]string{"severity"},
	)
	ForecastPagesFetched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastPagesFetched",
			Help:    "Data pages requested per forecast lookup",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)
	ForecastItemsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastItemsTotal",
			Help: "Total number of raw forecast records received",
		},
	)
	WeatherQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of forecast lookups",
		},
	)
	WeatherQueriesByCellTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesByCellTotal",
			Help: "Forecast lookups by grid cell nx,ny (allow-list; others use cell=other)",
		},
		[]string{"cell"},
	)
	DuplicateFetchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicateFetchesTotal",
			Help: "Forecast fetches started while another fetch for the same cell and issuance was in progress",
		},
	)
	DuplicateFetchConcurrency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duplicateFetchConcurrency",
			Help:    "Concurrent fetches for one cell and issuance when an overlap occurs",
			Buckets: []float64{2, 3, 5, 10, 20},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"component"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIResultCodesTotal,
		ForecastPagesFetched, ForecastItemsTotal,
		WeatherQueriesTotal, WeatherQueriesByCellTotal,
		DuplicateFetchesTotal, DuplicateFetchConcurrency,
		RateLimitDeniedTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with the overload window.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// SetCircuitBreakerState sets the state gauge. state is the State.String() form.
func SetCircuitBreakerState(component, state string) {
	CircuitBreakerState.WithLabelValues(component).Set(breakerStateValue(state))
}

// RecordCircuitBreakerTransition counts a transition and updates the state gauge.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
	SetCircuitBreakerState(component, to)
}

func breakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 2
	case "half_open":
		return 1
	default:
		return 0
	}
}

// SetTrackedCells sets the allow-list for per-cell metrics, each entry "nx,ny".
// Non-tracked cells increment "other".
func SetTrackedCells(cells []string) {
	trackedCellsMu.Lock()
	defer trackedCellsMu.Unlock()
	trackedCells = make(map[string]struct{}, len(cells))
	for _, c := range cells {
		trackedCells[normalizeCellLabel(c)] = struct{}{}
	}
}

// RecordWeatherQuery records a forecast lookup for the given grid cell.
func RecordWeatherQuery(cell models.GridCell) {
	WeatherQueriesTotal.Inc()
	WeatherQueriesByCellTotal.WithLabelValues(CellLabel(cell)).Inc()
}

// CellLabel returns the metric label for cell: "nx,ny" when tracked, "other" otherwise.
func CellLabel(cell models.GridCell) string {
	label := fmt.Sprintf("%d,%d", cell.X, cell.Y)
	trackedCellsMu.RLock()
	_, ok := trackedCells[label]
	trackedCellsMu.RUnlock()
	if ok {
		return label
	}
	return "other"
}

func normalizeCellLabel(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
