//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
	testhelpers "github.com/kjstillabower/kma-forecast-service/internal/testhelpers"
)

func TestIntegration_GetWeatherSeoul(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	svc, logger := testhelpers.SetupIntegrationService(t, cfg)

	router := NewRouter(NewHandler(svc, nil, logger), logger, RouterConfig{RequestTimeout: time.Minute})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather?latitude=37.5665&longitude=126.9780", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var days []models.DayForecast
	require.NoError(t, json.NewDecoder(w.Body).Decode(&days))
	require.NotEmpty(t, days)
	for _, day := range days {
		assert.Len(t, day.Date, 8)
		for _, slot := range day.Times {
			assert.Len(t, slot.Time, 4)
			assert.NotEmpty(t, slot.Categories)
		}
	}
}

func TestIntegration_InvalidKeyIsUnauthorized(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	cfg.ServiceKey = "not-a-registered-key"
	svc, logger := testhelpers.SetupIntegrationService(t, cfg)

	router := NewRouter(NewHandler(svc, nil, logger), logger, RouterConfig{RequestTimeout: time.Minute})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather?latitude=37.5665&longitude=126.9780", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}
