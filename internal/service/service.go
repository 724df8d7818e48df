package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/kma-forecast-service/internal/client"
	"github.com/kjstillabower/kma-forecast-service/internal/forecast"
	"github.com/kjstillabower/kma-forecast-service/internal/grid"
	"github.com/kjstillabower/kma-forecast-service/internal/models"
	"github.com/kjstillabower/kma-forecast-service/internal/observability"
	"github.com/kjstillabower/kma-forecast-service/internal/schedule"
)

// ForecastService answers forecast lookups for a coordinate: it projects the
// point onto the grid, picks the current issuance, fetches every record and
// folds them into the display structure. It keeps no per-request state.
type ForecastService struct {
	client   client.ForecastClient
	resolver *schedule.Resolver
	fetches  *fetchTracker
}

// NewForecastService creates a ForecastService. A nil resolver resolves
// issuances against the wall clock in Asia/Seoul.
func NewForecastService(c client.ForecastClient, resolver *schedule.Resolver) *ForecastService {
	if resolver == nil {
		resolver = schedule.NewResolver(nil, nil)
	}
	return &ForecastService{client: c, resolver: resolver, fetches: newFetchTracker()}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// SearchWeather returns the decoded forecast for the grid cell containing
// (lat, lon). Upstream failures are returned unchanged in kind: an
// *client.UpstreamError stays detectable with errors.As.
func (s *ForecastService) SearchWeather(ctx context.Context, lat, lon float64) ([]models.DayForecast, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)

	cell := grid.ConvertLatLon(lat, lon)
	base := s.resolver.Current()
	observability.RecordWeatherQuery(cell)

	if logger != nil {
		logger.Debug("resolved forecast request",
			zap.Float64("latitude", lat),
			zap.Float64("longitude", lon),
			zap.Int("nx", cell.X),
			zap.Int("ny", cell.Y),
			zap.String("base_date", base.Date),
			zap.String("base_time", base.Time),
		)
	}

	items, err := s.fetch(ctx, cell, base)
	if err != nil {
		if logger != nil {
			fields := []zap.Field{
				zap.Int("nx", cell.X),
				zap.Int("ny", cell.Y),
				zap.String("error_category", string(client.CategorizeError(err))),
				zap.Error(err),
			}
			var upstreamErr *client.UpstreamError
			if errors.As(err, &upstreamErr) {
				fields = append(fields,
					zap.Int("result_code", upstreamErr.ResultCode),
					zap.String("severity", string(upstreamErr.Severity)),
				)
			}
			logger.Warn("forecast fetch failed", fields...)
		}
		return nil, fmt.Errorf("fetch forecast for %d,%d: %w", cell.X, cell.Y, err)
	}

	days := forecast.Decode(forecast.Aggregate(items))

	if logger != nil {
		logger.Debug("forecast served",
			zap.Int("items", len(items)),
			zap.Int("days", len(days)),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return days, nil
}

// fetch calls the upstream client while tracking the fetch in progress for
// the duplicate-fetch metrics.
func (s *ForecastService) fetch(ctx context.Context, cell models.GridCell, base models.ForecastBase) ([]models.RawForecastItem, error) {
	key := fetchKey(cell, base)
	if n := s.fetches.Begin(key); n > 1 {
		observability.DuplicateFetchesTotal.Inc()
		observability.DuplicateFetchConcurrency.Observe(float64(n))
	}
	defer s.fetches.Done(key)

	return s.client.Fetch(ctx, cell, base)
}

func fetchKey(cell models.GridCell, base models.ForecastBase) string {
	return fmt.Sprintf("%d,%d@%s%s", cell.X, cell.Y, base.Date, base.Time)
}
