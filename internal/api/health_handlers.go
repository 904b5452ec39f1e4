package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"sync_store":  s.checkSyncStore(ctx),
		"local_store": s.checkLocalStore(ctx),
		"search":      s.checkSearchIndex(),
		"sse":         s.checkSSEManager(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

func (s *Server) checkSyncStore(ctx context.Context) ComponentHealth {
	if s.deps.Synced == nil {
		return ComponentHealth{Status: statusDegraded, Message: "sync store not configured"}
	}
	start := time.Now()
	err := s.deps.Synced.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "sync store ping failed"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

func (s *Server) checkLocalStore(ctx context.Context) ComponentHealth {
	if s.deps.Local == nil {
		return ComponentHealth{Status: statusDegraded, Message: "local store not configured"}
	}
	start := time.Now()
	_, err := s.deps.Local.Get(ctx, domain.KeyStats)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "local store read failed"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

func (s *Server) checkSearchIndex() ComponentHealth {
	if s.deps.Index == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}
	start := time.Now()
	count, err := s.deps.Index.DocumentCount()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "search index unreachable"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: fmt.Sprintf("%d summaries indexed", count),
	}
}

func (s *Server) checkSSEManager() ComponentHealth {
	if s.deps.SSEManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}
	n := s.deps.SSEManager.ClientCount()
	msg := fmt.Sprintf("%d connected clients", n)
	if n == 1 {
		msg = "1 connected client"
	}
	return ComponentHealth{Status: statusHealthy, Message: msg}
}
