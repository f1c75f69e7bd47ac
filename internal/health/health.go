// Package health aggregates named subsystem probes (usage ledger database,
// liveness classifier) into the readout served by the health endpoint.
package health

import (
	"context"
	"sync"
)

// Status is one subsystem's answer to a health probe.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes a single subsystem. It must respect ctx deadlines; the
// endpoint runs all probes within one request-scoped timeout.
type Checker func(ctx context.Context) Status

// Registry holds the registered probes and runs them on demand.
// Probes report in registration order.
type Registry struct {
	mu     sync.RWMutex
	probes []probe
}

type probe struct {
	name  string
	check Checker
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named probe.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.probes = append(r.probes, probe{name: name, check: check})
	r.mu.Unlock()
}

// PingChecker wraps an error-returning ping (sql.DB.PingContext and friends)
// as a probe named name.
func PingChecker(name string, ping func(ctx context.Context) error) Checker {
	return func(ctx context.Context) Status {
		if err := ping(ctx); err != nil {
			return Status{Name: name, Healthy: false, Detail: err.Error()}
		}
		return Status{Name: name, Healthy: true}
	}
}

// StaticChecker reports a subsystem as permanently healthy with a fixed
// detail string. Used for subsystems with no probeable failure mode, such as
// the in-process heuristic scorer.
func StaticChecker(name, detail string) Checker {
	return func(context.Context) Status {
		return Status{Name: name, Healthy: true, Detail: detail}
	}
}

// CheckAll runs every registered probe and reports the aggregate verdict
// alongside the individual results. An empty registry is healthy.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	probes := make([]probe, len(r.probes))
	copy(probes, r.probes)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(probes))

	for i, p := range probes {
		statuses[i] = p.check(ctx)
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}
