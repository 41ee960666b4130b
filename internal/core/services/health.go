package services

import (
	"context"
	"time"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// healthPingTimeout bounds each component check.
const healthPingTimeout = 3 * time.Second

// HealthService reports readiness of the pipeline's dependencies.
type HealthService struct {
	embedder  driven.EmbeddingService
	generator driven.GenerationService
	index     driven.VectorIndex
}

// NewHealthService creates the health service.
func NewHealthService(embedder driven.EmbeddingService, generator driven.GenerationService, index driven.VectorIndex) *HealthService {
	return &HealthService{embedder: embedder, generator: generator, index: index}
}

// Health pings each dependency and reports per-component status.
func (s *HealthService) Health(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{Status: "ok"}

	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"embedding", s.embedder.Ping},
		{"generation", s.generator.Ping},
		{"vector_index", s.index.Ping},
	}

	for _, check := range checks {
		pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		err := check.ping(pingCtx)
		cancel()

		status := domain.ComponentStatus{Name: check.name, Status: "ok"}
		if err != nil {
			status.Status = "unavailable"
			status.Detail = err.Error()
			report.Status = "degraded"
		}
		report.Components = append(report.Components, status)
	}
	return report
}
