// Package metrics exposes Prometheus instrumentation for the state runtime.
// The Collector consumes activity events, so wiring it is a matter of adding
// it to the hooks passed to an activity.Emitter.
package metrics

import (
	"context"

	"github.com/goliatone/go-states/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics for scopes, containers and resolves.
type Collector struct {
	ScopesActive     prometheus.Gauge
	ScopeTransitions *prometheus.CounterVec
	StateSets        *prometheus.CounterVec
	StateRestores    prometheus.Counter
	ResolveMisses    *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg. A nil
// registerer falls back to prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		ScopesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "states_scopes_active",
			Help: "Number of scopes currently held by the registry",
		}),
		ScopeTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "states_scope_transitions_total",
				Help: "Scope lifecycle transitions by verb",
			},
			[]string{"verb"},
		),
		StateSets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "states_state_sets_total",
				Help: "Container set operations by key",
			},
			[]string{"key"},
		),
		StateRestores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "states_state_restores_total",
			Help: "Containers seeded from the restoration store",
		}),
		ResolveMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "states_resolve_misses_total",
				Help: "Global resolves that found no container, by requested type",
			},
			[]string{"type"},
		),
	}
	for _, collector := range []prometheus.Collector{
		c.ScopesActive,
		c.ScopeTransitions,
		c.StateSets,
		c.StateRestores,
		c.ResolveMisses,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Notify implements activity.ActivityHook.
func (c *Collector) Notify(_ context.Context, event activity.Event) error {
	if c == nil {
		return nil
	}
	switch event.ObjectType {
	case activity.ObjectScope:
		c.ScopeTransitions.WithLabelValues(event.Verb).Inc()
		if active, ok := event.Metadata["active"].(int); ok {
			c.ScopesActive.Set(float64(active))
		}
	case activity.ObjectState:
		switch event.Verb {
		case activity.VerbStateSet:
			c.StateSets.WithLabelValues(event.ObjectID).Inc()
		case activity.VerbStateRestored:
			c.StateRestores.Inc()
		}
	case activity.ObjectResolve:
		c.ResolveMisses.WithLabelValues(event.ObjectID).Inc()
	}
	return nil
}
