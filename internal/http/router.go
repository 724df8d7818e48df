package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/kma-forecast-service/internal/observability"
)

// RouterConfig holds the per-route settings for NewRouter.
type RouterConfig struct {
	// Limiter throttles /weather; nil disables rate limiting.
	Limiter        *rate.Limiter
	RequestTimeout time.Duration
}

// NewRouter wires /weather, /health and /metrics with their middleware.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.NotFoundHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(NotFound))

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	weather := http.Handler(http.HandlerFunc(h.GetWeather))
	if cfg.RequestTimeout > 0 {
		weather = TimeoutMiddleware(cfg.RequestTimeout)(weather)
	}
	weather = RateLimitMiddleware(cfg.Limiter)(weather)
	router.Handle("/weather", weather).Methods(http.MethodGet)

	return router
}
