package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	readinessTimeout = 5 * time.Second
	detailTimeout    = 10 * time.Second

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type namedCheck struct {
	name  string
	check func(ctx context.Context) error
}

func (c namedCheck) Name() string                    { return c.name }
func (c namedCheck) Check(ctx context.Context) error { return c.check(ctx) }

// CheckFunc adapts fn into a named HealthChecker.
func CheckFunc(name string, fn func(ctx context.Context) error) HealthChecker {
	return namedCheck{name: name, check: fn}
}

// HealthHandler serves the liveness, readiness and detail probes.
type HealthHandler struct {
	version  string
	started  time.Time
	checkers []HealthChecker
}

func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), checkers: checkers}
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// DetailedResponse is the body of GET /healthz/detail.
type DetailedResponse struct {
	LivenessResponse
	Components map[string]ComponentCheck `json:"components"`
}

// ComponentCheck is the outcome of one checker.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *HealthHandler) liveness(status string) LivenessResponse {
	return LivenessResponse{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
}

// Liveness never consults dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.liveness("alive"))
}

// Readiness answers 503 when any checker fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	components, ok := h.probe(r.Context(), readinessTimeout)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Components: components})
		return
	}
	writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Components: components})
}

// Detailed reports every checker with its latency.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	components, ok := h.probe(r.Context(), detailTimeout)
	code, status := http.StatusOK, statusHealthy
	if !ok {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	writeJSON(w, code, DetailedResponse{LivenessResponse: h.liveness(status), Components: components})
}

// probe runs all checkers in parallel under one deadline. A failing checker
// does not stop the others. The map is nil when there are no checkers.
func (h *HealthHandler) probe(parent context.Context, timeout time.Duration) (map[string]ComponentCheck, bool) {
	if len(h.checkers) == 0 {
		return nil, true
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	checks := make([]ComponentCheck, len(h.checkers))
	var g errgroup.Group
	for i, c := range h.checkers {
		g.Go(func() error {
			begun := time.Now()
			err := c.Check(ctx)
			checks[i] = ComponentCheck{Status: statusHealthy, Latency: time.Since(begun).Truncate(time.Microsecond).String()}
			if err != nil {
				checks[i].Status, checks[i].Error = statusUnhealthy, err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]ComponentCheck, len(checks))
	ok := true
	for i, c := range h.checkers {
		out[c.Name()] = checks[i]
		ok = ok && checks[i].Status == statusHealthy
	}
	return out, ok
}
