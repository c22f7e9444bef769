package runtime

import (
	"fmt"
	"time"

	"github.com/vaultpass/servicekit/registry"
)

// displaySummary prints the startup summary: registered services with their
// health, event subscriptions, and decorator chains.
func (r *Runtime[C]) displaySummary(startupDuration time.Duration) {
	fmt.Printf("\n")
	fmt.Printf("🚀 %s v%s started in %.2fs\n\n", r.Name, r.Version, startupDuration.Seconds())

	registrations := r.Services.Registrations()
	if len(registrations) > 0 {
		fmt.Printf("⚙️  Services (%d)\n", len(registrations))
		healthy := 0
		for i, reg := range registrations {
			prefix := "├──"
			if i == len(registrations)-1 {
				prefix = "└──"
			}
			health, ok := r.Services.LastKnownHealth(reg.Name)
			if !ok {
				health = registry.Health{Status: registry.StatusNotInstantiated}
			}
			if health.Status == registry.StatusHealthy {
				healthy++
			}
			fmt.Printf("   %s %s %s (%s)\n", prefix, healthIcon(health.Status), reg.Name, reg.Lifecycle)
			for j, dep := range reg.Dependencies {
				depPrefix := "│   ├──"
				if j == len(reg.Dependencies)-1 {
					depPrefix = "│   └──"
				}
				if i == len(registrations)-1 {
					depPrefix = "    ├──"
					if j == len(reg.Dependencies)-1 {
						depPrefix = "    └──"
					}
				}
				fmt.Printf("   %s 🔗 %s\n", depPrefix, dep)
			}
		}
		if healthy == len(registrations) {
			fmt.Printf("\n✅ All services healthy (%d/%d)\n", healthy, len(registrations))
		} else {
			fmt.Printf("\n⚠️  Some services have issues (%d/%d healthy)\n", healthy, len(registrations))
		}
	} else {
		fmt.Printf("   └── No services registered\n")
	}

	stats := r.Bus.GetStats()
	if len(stats.ListenerCounts) > 0 {
		fmt.Printf("\n📨 Event Listeners\n")
		i := 0
		for event, count := range stats.ListenerCounts {
			prefix := "├──"
			if i == len(stats.ListenerCounts)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %s (%d)\n", prefix, event, count)
			i++
		}
	}

	decorated := r.Decorators.Services()
	if len(decorated) > 0 {
		fmt.Printf("\n🎁 Decorated Services\n")
		for i, service := range decorated {
			prefix := "├──"
			if i == len(decorated)-1 {
				prefix = "└──"
			}
			chain := ""
			if stats, ok := r.Decorators.GetServiceDecoratorStats(service); ok {
				for j, kind := range stats.Chain {
					if j > 0 {
						chain += " → "
					}
					chain += string(kind)
				}
			}
			fmt.Printf("   %s %s [%s]\n", prefix, service, chain)
		}
	}

	if r.diagServer != nil {
		fmt.Printf("\n🏥 Diagnostics on http://%s/healthz\n", r.diagServer.Addr())
	}
	fmt.Printf("\n")
}

func healthIcon(status registry.HealthState) string {
	switch status {
	case registry.StatusHealthy:
		return "✅"
	case registry.StatusDegraded:
		return "⚠️"
	case registry.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
