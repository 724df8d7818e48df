package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalEnvYAML = `server:
  port: "8080"
weather_api:
  timeout: 3s
`

const fullEnvYAML = `server:
  port: "9090"
weather_api:
  url: http://localhost:9999/forecast
  timeout: 4s
  timezone: Asia/Seoul
  validate_on_startup: false
request:
  timeout: 20s
reliability:
  rate_limit_rps: 10
  rate_limit_burst: 15
circuit_breaker:
  enabled: false
  failure_threshold: 3
  timeout: 45s
  max_half_open: 1
shutdown:
  timeout: 10s
  inflight_timeout: 8s
  inflight_check_interval: 50ms
lifecycle:
  overload_window: 30s
  overload_threshold_pct: 90
  idle_threshold_req_per_min: 2
  idle_window: 10m
  minimum_lifespan: 15m
  degraded_window: 2m
  degraded_error_pct: 25
metrics:
  tracked_cells:
    - "60,127"
    - "98,76"
`

// withProject chdirs into a temp project root holding config/{env}.yaml and
// clears the service key environment for the duration of the test.
func withProject(t *testing.T, envYAML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "dev.yaml"), []byte(envYAML), 0o644))

	t.Setenv("ENV_NAME", "")
	t.Setenv("WEATHER_API_URL", "")
	t.Setenv("WEATHER_SERVICE_KEY", "")
	os.Unsetenv("WEATHER_SERVICE_KEY")

	origWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_FailsWhenNoServiceKey(t *testing.T) {
	withProject(t, minimalEnvYAML)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "WEATHER_SERVICE_KEY")
}

func TestLoad_KeyFromEnv(t *testing.T) {
	withProject(t, minimalEnvYAML)
	t.Setenv("WEATHER_SERVICE_KEY", " env-key ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.WeatherServiceKey)
}

func TestLoad_KeyFromSecretsFile(t *testing.T) {
	dir := withProject(t, minimalEnvYAML)
	writeFile(t, filepath.Join(dir, "config", "secrets.yaml"), "weather_service_key: key-from-secrets\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key-from-secrets", cfg.WeatherServiceKey)
}

func TestLoad_KeyFromDotEnv(t *testing.T) {
	dir := withProject(t, minimalEnvYAML)
	writeFile(t, filepath.Join(dir, ".env"), "WEATHER_SERVICE_KEY=key-from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("WEATHER_SERVICE_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key-from-dotenv", cfg.WeatherServiceKey)
}

func TestLoad_EnvWinsOverSecrets(t *testing.T) {
	dir := withProject(t, minimalEnvYAML)
	writeFile(t, filepath.Join(dir, "config", "secrets.yaml"), "weather_service_key: from-secrets\n")
	t.Setenv("WEATHER_SERVICE_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.WeatherServiceKey)
}

func TestLoad_MalformedSecrets(t *testing.T) {
	dir := withProject(t, minimalEnvYAML)
	writeFile(t, filepath.Join(dir, "config", "secrets.yaml"), "weather_service_key: [unclosed\n")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse secrets file")
}

func TestLoad_EnvFileNotFound(t *testing.T) {
	withProject(t, minimalEnvYAML)
	t.Setenv("ENV_NAME", "nonexistent")
	t.Setenv("WEATHER_SERVICE_KEY", "k")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_MalformedYAML(t *testing.T) {
	withProject(t, "server: [\n")
	t.Setenv("WEATHER_SERVICE_KEY", "k")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_Defaults(t *testing.T) {
	withProject(t, minimalEnvYAML)
	t.Setenv("WEATHER_SERVICE_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DefaultWeatherAPIURL, cfg.WeatherAPIURL)
	assert.Equal(t, 3*time.Second, cfg.WeatherAPITimeout)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.True(t, cfg.ValidateOnStartup)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, 5, cfg.CircuitBreakerFailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreakerTimeout)
	assert.Equal(t, 2, cfg.CircuitBreakerMaxHalfOpen)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 20*time.Second, cfg.InFlightTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.InFlightCheckInterval)
	assert.Equal(t, 60*time.Second, cfg.OverloadWindow)
	assert.Equal(t, 80, cfg.OverloadThresholdPct)
	assert.Equal(t, 0, cfg.IdleThresholdReqPerMin)
	assert.Equal(t, 5*time.Minute, cfg.IdleWindow)
	assert.Equal(t, 5*time.Minute, cfg.MinimumLifespan)
	assert.Equal(t, 60*time.Second, cfg.DegradedWindow)
	assert.Equal(t, 50, cfg.DegradedErrorPct)
	assert.Empty(t, cfg.TrackedCells)
}

func TestLoad_AllFields(t *testing.T) {
	withProject(t, fullEnvYAML)
	t.Setenv("WEATHER_SERVICE_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "http://localhost:9999/forecast", cfg.WeatherAPIURL)
	assert.Equal(t, 4*time.Second, cfg.WeatherAPITimeout)
	assert.False(t, cfg.ValidateOnStartup)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10, cfg.RateLimitRPS)
	assert.Equal(t, 15, cfg.RateLimitBurst)
	assert.False(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, 3, cfg.CircuitBreakerFailureThreshold)
	assert.Equal(t, 45*time.Second, cfg.CircuitBreakerTimeout)
	assert.Equal(t, 1, cfg.CircuitBreakerMaxHalfOpen)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8*time.Second, cfg.InFlightTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.InFlightCheckInterval)
	assert.Equal(t, 30*time.Second, cfg.OverloadWindow)
	assert.Equal(t, 90, cfg.OverloadThresholdPct)
	assert.Equal(t, 2, cfg.IdleThresholdReqPerMin)
	assert.Equal(t, 10*time.Minute, cfg.IdleWindow)
	assert.Equal(t, 15*time.Minute, cfg.MinimumLifespan)
	assert.Equal(t, 2*time.Minute, cfg.DegradedWindow)
	assert.Equal(t, 25, cfg.DegradedErrorPct)
	assert.Equal(t, []string{"60,127", "98,76"}, cfg.TrackedCells)
}

func TestLoad_URLFromEnv(t *testing.T) {
	withProject(t, fullEnvYAML)
	t.Setenv("WEATHER_SERVICE_KEY", "k")
	t.Setenv("WEATHER_API_URL", "http://override.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://override.test", cfg.WeatherAPIURL)
}

func TestLoad_IdleCheckDisabledWithZeroWindow(t *testing.T) {
	withProject(t, minimalEnvYAML+"lifecycle:\n  idle_window: 0s\n")
	t.Setenv("WEATHER_SERVICE_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.IdleWindow)
}

func TestValidate(t *testing.T) {
	t.Run("non-positive api timeout", func(t *testing.T) {
		err := validate(&Config{WeatherAPITimeout: 0, ShutdownTimeout: time.Second})
		assert.Error(t, err)
	})
	t.Run("request timeout raised", func(t *testing.T) {
		cfg := &Config{WeatherAPITimeout: 3 * time.Second, RequestTimeout: 4 * time.Second, ShutdownTimeout: time.Minute}
		require.NoError(t, validate(cfg))
		assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	})
	t.Run("inflight timeout capped", func(t *testing.T) {
		cfg := &Config{WeatherAPITimeout: time.Second, RequestTimeout: 5 * time.Second, ShutdownTimeout: 5 * time.Second, InFlightTimeout: 10 * time.Second}
		require.NoError(t, validate(cfg))
		assert.Equal(t, 5*time.Second, cfg.InFlightTimeout)
	})
	t.Run("percentages bounded", func(t *testing.T) {
		cfg := &Config{WeatherAPITimeout: time.Second, RequestTimeout: 5 * time.Second, DegradedErrorPct: 150}
		assert.Error(t, validate(cfg))
	})
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, parseDuration("bogus", 5*time.Second))
	assert.Equal(t, 5*time.Second, parseDuration("0s", 5*time.Second))
	assert.Equal(t, 2*time.Second, parseDuration(" 2s ", 5*time.Second))
	assert.Equal(t, time.Duration(0), parseDurationOrZero("0s", 5*time.Second))
	assert.Equal(t, -time.Second, parseDurationOrZero("-1s", 5*time.Second))
}
