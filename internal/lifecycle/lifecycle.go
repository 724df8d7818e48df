// Package lifecycle tracks the process state and derives the health status
// reported by /health.
package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/kma-forecast-service/internal/circuitbreaker"
	"github.com/kjstillabower/kma-forecast-service/internal/traffic"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Health status values.
const (
	StatusHealthy      = "healthy"
	StatusIdle         = "idle"
	StatusOverloaded   = "overloaded"
	StatusDegraded     = "degraded"
	StatusShuttingDown = "shutting-down"
)

// Thresholds configures the traffic-based health checks. Zero values disable a check.
type Thresholds struct {
	RateLimitRPS           int
	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	IdleWindow             time.Duration
	IdleThresholdReqPerMin int
	MinimumLifespan        time.Duration
	DegradedWindow         time.Duration
	DegradedErrorPct       int
}

// Health is one evaluation of the process state.
type Health struct {
	Status string
	// Reason is a stable label for the condition that decided Status, empty when healthy.
	Reason string
	// Upstream is "healthy" or "unhealthy" for the forecast API.
	Upstream string
}

// Available reports whether the instance should receive traffic.
func (h Health) Available() bool {
	return h.Status == StatusHealthy || h.Status == StatusIdle
}

// Monitor evaluates health from the shutdown flag, the upstream circuit
// breaker and the outcomes recorded in a traffic.Tracker.
type Monitor struct {
	thresholds Thresholds
	tracker    *traffic.Tracker
	breaker    func() circuitbreaker.State
	clock      clockwork.Clock
	started    time.Time
}

// NewMonitor returns a Monitor started now. breaker may be nil when no
// circuit breaker is configured; tracker nil uses traffic.Default().
func NewMonitor(thresholds Thresholds, tracker *traffic.Tracker, breaker func() circuitbreaker.State, clock clockwork.Clock) *Monitor {
	if tracker == nil {
		tracker = traffic.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		thresholds: thresholds,
		tracker:    tracker,
		breaker:    breaker,
		clock:      clock,
		started:    clock.Now(),
	}
}

// Uptime returns the time since the monitor was created.
func (m *Monitor) Uptime() time.Duration {
	return m.clock.Since(m.started)
}

// Evaluate checks conditions in priority order:
// shutting-down > circuit open > overloaded > idle > error-rate degraded > healthy.
func (m *Monitor) Evaluate() Health {
	if IsShuttingDown() {
		return Health{Status: StatusShuttingDown, Reason: "signal", Upstream: m.upstream()}
	}
	if m.breaker != nil && m.breaker() == circuitbreaker.StateOpen {
		return Health{Status: StatusDegraded, Reason: "circuit_open", Upstream: "unhealthy"}
	}

	th := m.thresholds
	if th.RateLimitRPS > 0 && th.OverloadWindow > 0 && th.OverloadThresholdPct > 0 {
		limit := float64(th.RateLimitRPS) * th.OverloadWindow.Seconds() * float64(th.OverloadThresholdPct) / 100
		if float64(m.tracker.RequestCount(th.OverloadWindow)) > limit {
			return Health{Status: StatusOverloaded, Reason: "overload_threshold", Upstream: "healthy"}
		}
	}

	if th.IdleWindow > 0 && th.MinimumLifespan > 0 && m.Uptime() >= th.MinimumLifespan {
		perMinute := float64(m.tracker.RequestCount(th.IdleWindow)) / th.IdleWindow.Minutes()
		if perMinute < float64(th.IdleThresholdReqPerMin) {
			return Health{Status: StatusIdle, Reason: "low_traffic", Upstream: "healthy"}
		}
	}

	if th.DegradedWindow > 0 && th.DegradedErrorPct > 0 {
		errs, total := m.tracker.ErrorRate(th.DegradedWindow)
		if total > 0 && float64(errs)*100/float64(total) >= float64(th.DegradedErrorPct) {
			return Health{Status: StatusDegraded, Reason: "error_rate_breach", Upstream: "unhealthy"}
		}
	}

	return Health{Status: StatusHealthy, Upstream: "healthy"}
}

func (m *Monitor) upstream() string {
	if m.breaker != nil && m.breaker() == circuitbreaker.StateOpen {
		return "unhealthy"
	}
	return "healthy"
}
