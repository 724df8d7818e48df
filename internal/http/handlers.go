package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/kma-forecast-service/internal/lifecycle"
	"github.com/kjstillabower/kma-forecast-service/internal/models"
	"github.com/kjstillabower/kma-forecast-service/internal/traffic"
	"github.com/kjstillabower/kma-forecast-service/internal/validation"
)

// ForecastSearcher answers forecast lookups for a coordinate.
type ForecastSearcher interface {
	SearchWeather(ctx context.Context, lat, lon float64) ([]models.DayForecast, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	forecasts        ForecastSearcher
	monitor          *lifecycle.Monitor
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(forecasts ForecastSearcher, monitor *lifecycle.Monitor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		forecasts: forecasts,
		monitor:   monitor,
		logger:    logger,
	}
}

// GetWeather handles GET /weather?latitude=&longitude=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	point, err := validation.ParseCoordinates(q.Get("latitude"), q.Get("longitude"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	days, err := h.forecasts.SearchWeather(r.Context(), point.Latitude, point.Longitude)
	if err != nil {
		traffic.RecordError()
		writeForecastError(w, r, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, days)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// GetHealth handles GET /health. Unavailable statuses answer 503.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := lifecycle.Health{Status: lifecycle.StatusHealthy, Upstream: "healthy"}
	if h.monitor != nil {
		health = h.monitor.Evaluate()
	} else if lifecycle.IsShuttingDown() {
		health = lifecycle.Health{Status: lifecycle.StatusShuttingDown, Reason: "signal", Upstream: "healthy"}
	}

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != health.Status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", health.Status),
			zap.String("reason", health.Reason))
	}
	h.healthStatusPrev = health.Status
	h.healthStatusMu.Unlock()

	statusCode := http.StatusOK
	if !health.Available() {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, healthResponse{
		Status:    health.Status,
		Service:   "kma-forecast-service",
		Version:   "dev",
		Checks:    map[string]string{"weatherApi": health.Upstream},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers unmatched routes with the standard error body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
}
