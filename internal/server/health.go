package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the system
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp       ComponentStatus = "up"
	ComponentStatusDown     ComponentStatus = "down"
	ComponentStatusDegraded ComponentStatus = "degraded"
	ComponentStatusDisabled ComponentStatus = "disabled"
)

// Health represents the complete health check response
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single system component
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms,omitempty"`
	Details   any             `json:"details,omitempty"`
}

// handleHealth provides the detailed health check endpoint (GET /healthz).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth()

	statusCode := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady provides a readiness probe for load balancers (GET /readyz).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		http.Error(w, `{"status":"not_ready","message":"database unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleLive provides a liveness probe (GET /livez).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

func (s *Server) checkHealth() Health {
	health := Health{
		Timestamp:  time.Now(),
		Version:    s.cfg.Build.Version,
		Components: make(map[string]ComponentHealth),
	}

	health.Components["database"] = s.checkDatabaseHealth()
	health.Components["archive"] = s.checkArchiveHealth()
	health.Components["data"] = s.checkDataFreshness()

	health.Status = determineOverallHealth(health.Components)
	return health
}

// checkDatabaseHealth checks PostgreSQL connectivity and pool pressure.
func (s *Server) checkDatabaseHealth() ComponentHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  ComponentStatusDown,
			Message: "database ping failed: " + err.Error(),
		}
	}

	var summaryCount int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM summary").Scan(&summaryCount); err != nil {
		return ComponentHealth{
			Status:  ComponentStatusDegraded,
			Message: "database query failed: " + err.Error(),
		}
	}

	latency := time.Since(start).Milliseconds()

	stats := s.db.Stats()
	details := map[string]any{
		"summaries":        summaryCount,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration_ms": stats.WaitDuration.Milliseconds(),
	}

	status := ComponentStatusUp
	message := "database healthy"
	if latency > 1000 {
		status = ComponentStatusDegraded
		message = "database latency high"
	}

	return ComponentHealth{
		Status:    status,
		Message:   message,
		LatencyMs: float64(latency),
		Details:   details,
	}
}

// checkArchiveHealth checks object-storage connectivity. A board running
// without an archive reports the component as disabled, not unhealthy.
func (s *Server) checkArchiveHealth() ComponentHealth {
	if s.mc == nil {
		return ComponentHealth{
			Status:  ComponentStatusDisabled,
			Message: "report archive not configured",
		}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return ComponentHealth{
			Status:  ComponentStatusDown,
			Message: "archive connection failed: " + err.Error(),
		}
	}
	if !exists {
		return ComponentHealth{
			Status:  ComponentStatusDown,
			Message: "archive bucket does not exist: " + s.bucket,
		}
	}

	latency := time.Since(start).Milliseconds()
	status := ComponentStatusUp
	message := "archive healthy"
	if latency > 2000 {
		status = ComponentStatusDegraded
		message = "archive latency high"
	}

	return ComponentHealth{
		Status:    status,
		Message:   message,
		LatencyMs: float64(latency),
	}
}

// checkDataFreshness reports when the board last received a summary. This is
// informational: an idle board is still a healthy board.
func (s *Server) checkDataFreshness() ComponentHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last time.Time
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(insert_time), 'epoch'::timestamptz) FROM summary").Scan(&last)
	if err != nil {
		return ComponentHealth{
			Status:  ComponentStatusDegraded,
			Message: "could not query last ingest: " + err.Error(),
		}
	}

	if last.Unix() <= 0 {
		return ComponentHealth{
			Status:  ComponentStatusUp,
			Message: "no summaries recorded yet",
		}
	}

	return ComponentHealth{
		Status:  ComponentStatusUp,
		Message: "data present",
		Details: map[string]any{
			"last_ingest":     last.UTC().Format(time.RFC3339),
			"age_seconds":     int64(time.Since(last).Seconds()),
		},
	}
}

// determineOverallHealth calculates overall health from component statuses.
// Disabled components are ignored.
func determineOverallHealth(components map[string]ComponentHealth) HealthStatus {
	var downCount, degradedCount int

	for _, component := range components {
		switch component.Status {
		case ComponentStatusDown:
			downCount++
		case ComponentStatusDegraded:
			degradedCount++
		}
	}

	if downCount > 0 {
		return HealthStatusUnhealthy
	}
	if degradedCount > 0 {
		return HealthStatusDegraded
	}
	return HealthStatusHealthy
}
