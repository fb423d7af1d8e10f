package observability

import (
	"sync"
	"time"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
	Checks    map[string]bool        `json:"checks"`
}

// HealthCheck reports whether one component of the board is working.
type HealthCheck func() bool

// Health assembles HealthStatus reports from named checks.
type Health struct {
	version string
	started time.Time

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealth(version string) *Health {
	return &Health{
		version: version,
		started: time.Now(),
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck registers or replaces the named check.
func (h *Health) AddCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Status runs every check. The board is healthy only when all checks pass.
func (h *Health) Status(metrics map[string]interface{}) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Metrics:   metrics,
		Checks:    make(map[string]bool, len(h.checks)),
	}
	for name, check := range h.checks {
		ok := check()
		status.Checks[name] = ok
		if !ok {
			status.Status = HealthStatusUnhealthy
		}
	}
	return status
}

// Healthy reports whether Status would be healthy.
func (h *Health) Healthy() bool {
	return h.Status(nil).Status == HealthStatusHealthy
}
