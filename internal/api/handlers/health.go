package handlers

import (
	"context"
	"net/http"
	"time"
)

const checkTimeout = 2 * time.Second

// Pinger is any dependency readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is the readiness report.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthChecker probes the database, which readiness depends on, and the
// presentation cache, which only degrades it.
type HealthChecker struct {
	database  Pinger
	cache     Pinger
	version   string
	gitCommit string
	now       func() time.Time
}

func NewHealthChecker(database, cache Pinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{database: database, cache: cache, version: version, gitCommit: gitCommit, now: time.Now}
}

// Healthz is a liveness probe with no dependencies.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz reports 503 when the database is unreachable. A failing cache only
// marks the service degraded since reads fall through to the database.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]CheckResult{
			"database": h.check(r.Context(), h.database, "fail"),
		}
		if h.cache != nil {
			checks["cache"] = h.check(r.Context(), h.cache, "warn")
		}

		status, code := "healthy", http.StatusOK
		for _, c := range checks {
			switch c.Status {
			case "fail":
				status, code = "unhealthy", http.StatusServiceUnavailable
			case "warn":
				if status == "healthy" {
					status = "degraded"
				}
			}
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	})
}

func (h *HealthChecker) check(ctx context.Context, dep Pinger, failStatus string) CheckResult {
	if dep == nil {
		return CheckResult{Status: failStatus, Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := h.now()
	err := dep.Ping(ctx)
	latency := h.now().Sub(start).Milliseconds()
	if err != nil {
		return CheckResult{Status: failStatus, Message: err.Error(), LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}
