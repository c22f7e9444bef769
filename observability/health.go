package observability

import (
	"time"

	"github.com/vaultpass/servicekit/registry"
)

// RuntimeHealth is an aggregated snapshot of every registered service's
// health, suitable for serving from a diagnostics endpoint.
type RuntimeHealth struct {
	Service   string               `json:"service"`
	Version   string               `json:"version,omitempty"`
	Status    registry.HealthState `json:"status"`
	CheckedAt time.Time            `json:"checked_at"`
	Services  []registry.Health    `json:"services,omitempty"`
}

// NewRuntimeHealth builds an aggregated snapshot from per-service health
// results. Overall status is the worst observed: any unhealthy service makes
// the runtime unhealthy, any degraded or never-instantiated service degrades
// it.
func NewRuntimeHealth(service, version string, healths map[string]registry.Health) *RuntimeHealth {
	snapshot := &RuntimeHealth{
		Service:   service,
		Version:   version,
		Status:    registry.StatusHealthy,
		CheckedAt: time.Now(),
	}
	for _, h := range healths {
		snapshot.add(h)
	}
	return snapshot
}

func (rh *RuntimeHealth) add(h registry.Health) {
	rh.Services = append(rh.Services, h)

	switch h.Status {
	case registry.StatusUnhealthy:
		rh.Status = registry.StatusUnhealthy
	case registry.StatusDegraded, registry.StatusNotInstantiated:
		if rh.Status != registry.StatusUnhealthy {
			rh.Status = registry.StatusDegraded
		}
	}
}
