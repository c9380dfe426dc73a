package health

import (
	"context"
	"time"

	"repo-analyzer-client/internal/analyzer"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	serviceName  = "repo-analyzer-client"
	checkTimeout = 5 * time.Second
)

// Checker reports the backend's health.
type Checker interface {
	Health(ctx context.Context) (analyzer.HealthStatus, error)
}

// Service encapsulates health-related checks.
type Service struct {
	Backend Checker
	Version string
}

// Report is the payload of the detailed health endpoint.
type Report struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Version  string                 `json:"version,omitempty"`
	Backend  *analyzer.HealthStatus `json:"backend,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Duration int64                  `json:"durationMs"`
}

// NewService constructs a new health service.
func NewService(backend Checker, version string) *Service {
	return &Service{Backend: backend, Version: version}
}

// Status returns a simple liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Check asks the backend for its health. The client is degraded when the
// backend is unreachable or reports anything but healthy.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{Status: StatusOK, Service: serviceName, Version: s.Version}
	if s.Backend == nil {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	start := time.Now()
	status, err := s.Backend.Health(ctx)
	report.Duration = time.Since(start).Milliseconds()
	if err != nil {
		report.Status = StatusDegraded
		report.Error = err.Error()
		return report
	}
	report.Backend = &status
	if status.Status != "healthy" && status.Status != StatusOK {
		report.Status = StatusDegraded
	}
	return report
}
