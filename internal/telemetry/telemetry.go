// Package telemetry wires the tick core's structured logging and metrics
// ports: zerolog for logging, prometheus/client_golang for metrics.
package telemetry

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide structured logger. Every collaborator
// and system that needs to emit a warning (asset-not-resolved, physics
// clamp, recovered panic) takes this logger rather than reaching for a
// package-level global.
func NewLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// Metrics is the Prometheus-backed implementation of ecs.StoreMetrics,
// registered under its own registry so cmd/tickserver can expose it over
// /metrics without colliding with the default global registry.
type Metrics struct {
	registry *prometheus.Registry

	entityCount     prometheus.Gauge
	archetypeCount  prometheus.Gauge
	commandsApplied *prometheus.CounterVec
	groupDuration   *prometheus.HistogramVec
	systemPanics    *prometheus.CounterVec

	mergeCount  prometheus.Counter
	pickupCount prometheus.Counter
	damageApplied prometheus.Counter
}

// NewMetrics constructs and registers every tickcore gauge/counter:
// live entity and archetype counts, commands applied by kind, per-group
// duration, recovered system panics, damage-applied and merge/pickup
// counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		entityCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tickcore_entities", Help: "Number of live entities in the Store.",
		}),
		archetypeCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tickcore_archetypes", Help: "Number of distinct archetypes in the Store.",
		}),
		commandsApplied: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tickcore_commands_applied_total", Help: "CommandBuffer operations applied at Sync, by kind.",
		}, []string{"kind"}),
		groupDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "tickcore_group_duration_seconds", Help: "Wall-clock time spent per system group including its Sync.",
		}, []string{"group"}),
		systemPanics: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tickcore_system_panics_total", Help: "Recovered system panics, by system name.",
		}, []string{"system"}),
		mergeCount: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tickcore_item_merges_total", Help: "Item stacks merged by ItemMergeSystem.",
		}),
		pickupCount: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tickcore_item_pickups_total", Help: "Item stacks transferred by PickupItemSystem.",
		}),
		damageApplied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tickcore_damage_applied_total", Help: "Damage records applied by ApplyDamage.",
		}),
	}
	return m
}

// Registry exposes the underlying Prometheus registry for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveEntityCount(count int)       { m.entityCount.Set(float64(count)) }
func (m *Metrics) ObserveArchetypeCount(count int)    { m.archetypeCount.Set(float64(count)) }
func (m *Metrics) IncCommandsApplied(kind string, n int) {
	if n > 0 {
		m.commandsApplied.WithLabelValues(kind).Add(float64(n))
	}
}
func (m *Metrics) ObserveGroupDuration(group string, seconds float64) {
	m.groupDuration.WithLabelValues(group).Observe(seconds)
}
func (m *Metrics) IncSystemPanic(system string) { m.systemPanics.WithLabelValues(system).Inc() }
func (m *Metrics) IncMerge()                    { m.mergeCount.Inc() }
func (m *Metrics) IncPickup()                   { m.pickupCount.Inc() }
func (m *Metrics) IncDamageApplied()            { m.damageApplied.Inc() }
