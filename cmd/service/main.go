package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/kma-forecast-service/internal/circuitbreaker"
	"github.com/kjstillabower/kma-forecast-service/internal/client"
	"github.com/kjstillabower/kma-forecast-service/internal/config"
	"github.com/kjstillabower/kma-forecast-service/internal/grid"
	httphandler "github.com/kjstillabower/kma-forecast-service/internal/http"
	"github.com/kjstillabower/kma-forecast-service/internal/lifecycle"
	"github.com/kjstillabower/kma-forecast-service/internal/observability"
	"github.com/kjstillabower/kma-forecast-service/internal/schedule"
	"github.com/kjstillabower/kma-forecast-service/internal/service"
)

const breakerComponent = "kma_api"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	forecastClient, err := client.NewKMAClient(cfg.WeatherServiceKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("forecast client", zap.Error(err))
	}

	var breakerState func() circuitbreaker.State
	if cfg.CircuitBreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			MaxHalfOpen:      cfg.CircuitBreakerMaxHalfOpen,
			Timeout:          cfg.CircuitBreakerTimeout,
			Component:        breakerComponent,
			IsFailure:        client.IsOutage,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition(breakerComponent, from.String(), to.String())
				logger.Warn("circuit breaker state change",
					zap.String("component", breakerComponent),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		forecastClient.SetCircuitBreaker(cb)
		breakerState = forecastClient.BreakerState
		observability.SetCircuitBreakerState(breakerComponent, circuitbreaker.StateClosed.String())
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	location := schedule.LoadLocation(cfg.Timezone)
	resolver := schedule.NewResolver(nil, location)

	if cfg.ValidateOnStartup {
		validateUpstream(logger, forecastClient, resolver, cfg.WeatherAPITimeout)
	}

	forecastService := service.NewForecastService(forecastClient, resolver)

	monitor := lifecycle.NewMonitor(lifecycle.Thresholds{
		RateLimitRPS:           cfg.RateLimitRPS,
		OverloadWindow:         cfg.OverloadWindow,
		OverloadThresholdPct:   cfg.OverloadThresholdPct,
		IdleWindow:             cfg.IdleWindow,
		IdleThresholdReqPerMin: cfg.IdleThresholdReqPerMin,
		MinimumLifespan:        cfg.MinimumLifespan,
		DegradedWindow:         cfg.DegradedWindow,
		DegradedErrorPct:       cfg.DegradedErrorPct,
	}, nil, breakerState, nil)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	observability.RegisterRateLimitGauges(cfg.OverloadWindow)
	if len(cfg.TrackedCells) > 0 {
		observability.SetTrackedCells(cfg.TrackedCells)
	}

	handler := httphandler.NewHandler(forecastService, monitor, logger)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("timezone", location.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.InFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.InFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := observability.FlushTelemetry(flushCtx, logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// validateUpstream probes the current issuance for a reference cell so key
// and quota problems are logged at boot. The process starts either way.
func validateUpstream(logger *zap.Logger, c *client.KMAClient, resolver *schedule.Resolver, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cell := grid.ConvertLatLon(37.5665, 126.9780)
	total, err := c.Probe(ctx, cell, resolver.Current())
	if err != nil {
		var upstreamErr *client.UpstreamError
		if errors.As(err, &upstreamErr) {
			logger.Error("upstream validation failed",
				zap.Int("result_code", upstreamErr.ResultCode),
				zap.String("severity", string(upstreamErr.Severity)),
				zap.Error(err))
			return
		}
		logger.Warn("upstream validation failed", zap.String("error_category", string(client.CategorizeError(err))), zap.Error(err))
		return
	}
	logger.Info("upstream validated", zap.Int("total_count", total))
}
