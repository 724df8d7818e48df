//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/kma-forecast-service/internal/client"
	"github.com/kjstillabower/kma-forecast-service/internal/config"
	"github.com/kjstillabower/kma-forecast-service/internal/observability"
	"github.com/kjstillabower/kma-forecast-service/internal/schedule"
	"github.com/kjstillabower/kma-forecast-service/internal/service"
)

// IntegrationTestConfig holds configuration for tests against the live forecast API.
type IntegrationTestConfig struct {
	ServiceKey string
	APIURL     string
	Timeout    time.Duration
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if WEATHER_SERVICE_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	key := os.Getenv("WEATHER_SERVICE_KEY")
	if key == "" {
		t.Skip("WEATHER_SERVICE_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = config.DefaultWeatherAPIURL
	}

	return IntegrationTestConfig{
		ServiceKey: key,
		APIURL:     apiURL,
		Timeout:    10 * time.Second,
	}
}

// SetupIntegrationClient creates a forecast client for the live API.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.KMAClient {
	t.Helper()
	c, err := client.NewKMAClient(cfg.ServiceKey, cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewKMAClient() error = %v", err)
	}
	return c
}

// SetupIntegrationService creates a ForecastService backed by the live API,
// resolving issuances in Asia/Seoul, and a logger for request contexts.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.ForecastService, *zap.Logger) {
	t.Helper()
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	resolver := schedule.NewResolver(nil, schedule.LoadLocation("Asia/Seoul"))
	return service.NewForecastService(SetupIntegrationClient(t, cfg), resolver), logger
}
