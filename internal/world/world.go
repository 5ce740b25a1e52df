// Package world assembles the tick core: it owns the Store, the ordered
// system groups, the death/respawn RefChange chains, the interaction
// dispatcher and the networking outbox, and exposes the explicit
// initialize/shutdown module lifecycle spec.md §9 mandates in place of
// class-loader hot reload.
package world

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/config"
	"github.com/embervoid/tickcore/internal/damage"
	"github.com/embervoid/tickcore/internal/death"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
	"github.com/embervoid/tickcore/internal/inventory"
	"github.com/embervoid/tickcore/internal/itemphysics"
	"github.com/embervoid/tickcore/internal/projectile"
	"github.com/embervoid/tickcore/internal/respawn"
	"github.com/embervoid/tickcore/internal/telemetry"
)

// Deps are the collaborators the world consumes (spec.md §6). A nil
// Collision, Spatial, Outbox, Respawner or Interactions is replaced with
// the reference implementation from internal/collab. Registry is
// required: Initialize returns an error when it is nil. A nil Metrics
// leaves metrics off.
type Deps struct {
	Registry  collab.AssetRegistry
	Collision collab.CollisionModule
	Spatial   collab.SpatialResource
	Outbox    *collab.ChannelOutbox
	Respawner collab.RespawnController
	Interactions collab.InteractionManager
	Metrics   *telemetry.Metrics
	Logger    zerolog.Logger

	// DeathInteractions maps a death cause to interaction names fired by
	// RunDeathInteractions; the empty key fires on every death.
	DeathInteractions map[string][]string
}

// World is the running module handle returned by Initialize.
type World struct {
	Store      *ecs.Store
	Scheduler  *ecs.Scheduler
	Dispatcher *interaction.Dispatcher
	Outbox     *collab.ChannelOutbox
	Config     config.WorldConfig
	Logger     zerolog.Logger

	// desync and allowPvP are the between-ticks flags: mutated only from
	// the operator command surface, read by the filter systems during the
	// tick (spec.md §5 "Global debug flags").
	desync   bool
	allowPvP bool

	registry     collab.AssetRegistry
	interactions collab.InteractionManager

	commandBuf *ecs.CommandBuffer
	tickCount  uint64
}

// Initialize builds a World from cfg and deps. It is the module entry
// point: construct once, Tick repeatedly, Shutdown once.
func Initialize(ctx context.Context, cfg config.WorldConfig, deps Deps) (*World, error) {
	if deps.Collision == nil {
		deps.Collision = collab.NewVoxelCollisionModule()
	}
	if deps.Spatial == nil {
		deps.Spatial = collab.NewGridSpatialResource(4)
	}
	if deps.Outbox == nil {
		deps.Outbox = collab.NewChannelOutbox()
	}
	if deps.Respawner == nil {
		deps.Respawner = collab.NewFixedRespawnController()
	}
	if deps.Interactions == nil {
		deps.Interactions = collab.NoopInteractionManager{}
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("world: an AssetRegistry is required")
	}

	store := ecs.NewStore(cfg.ChunkCapacity)
	dispatcher := interaction.NewDispatcher(deps.Logger)

	w := &World{
		Store:        store,
		Dispatcher:   dispatcher,
		Outbox:       deps.Outbox,
		Config:       cfg,
		Logger:       deps.Logger,
		desync:       cfg.CauseDesync,
		allowPvP:     cfg.AllowPvP,
		registry:     deps.Registry,
		interactions: deps.Interactions,
	}

	groups := []ecs.Group{
		{Name: damage.GroupGatherDamage, Systems: []ecs.TickSystem{
			&damage.FallDamageSystem{},
			&damage.OutOfWorldDamageSystem{FloorY: cfg.WorldMinY},
			&damage.InvulnerabilityTickSystem{},
		}},
		{Name: damage.GroupFilterDamage, Systems: []ecs.TickSystem{
			&damage.ArmorFilterSystem{Store: store},
			&damage.InvulnerabilityWindowSystem{Store: store},
			&damage.PvPRulesSystem{Store: store, AllowPvP: func() bool { return w.allowPvP }},
			&damage.UnkillableFilterSystem{Store: store, Desync: func() bool { return w.desync }},
		}},
		{Name: damage.GroupApplyDamage, Systems: []ecs.TickSystem{
			&damage.ApplySystem{Store: store},
		}},
		{Name: damage.GroupInspectDamage, Systems: []ecs.TickSystem{
			&damage.InspectSystem{Logger: deps.Logger, Metrics: inspectMetrics(deps.Metrics)},
		}},
		{Name: itemphysics.GroupPrePhysics, Systems: []ecs.TickSystem{
			&itemphysics.PrePhysicsSystem{Collision: deps.Collision, Gravity: cfg.Gravity},
		}},
		{Name: itemphysics.GroupPhysics, Systems: []ecs.TickSystem{
			&itemphysics.PhysicsSystem{Collision: deps.Collision, Spatial: deps.Spatial, FloorY: cfg.WorldMinY},
			&projectile.System{Collision: deps.Collision, Gravity: cfg.Gravity},
		}},
		{Name: itemphysics.GroupPhysicsPost, Systems: []ecs.TickSystem{
			&itemphysics.MergeSystem{Spatial: deps.Spatial, Registry: deps.Registry, Radius: cfg.ItemMergeRadius, Metrics: mergeMetrics(deps.Metrics)},
			&itemphysics.PickupSystem{Spatial: deps.Spatial, Collector: w.collectItem, DefaultRadius: cfg.ItemDefaultPickupRadius},
			&itemphysics.PickupAnimationSystem{Deposit: inventory.Deposit, Metrics: mergeMetricsPickup(deps.Metrics)},
			&death.CorpseTickSystem{},
		}},
		{Name: projectile.GroupTrackerQueueUpdate, Systems: []ecs.TickSystem{
			projectile.NewTrackerSystem(deps.Outbox),
		}},
	}

	scheduler := ecs.NewScheduler(store, groups, cfg.Workers, deps.Logger)
	if deps.Metrics != nil {
		scheduler.Metrics = deps.Metrics
		store.SetMetrics(deps.Metrics)
	}

	for _, rc := range death.Chain(death.ChainDeps{
		Dispatcher:        dispatcher,
		Outbox:            deps.Outbox,
		DeathInteractions: deps.DeathInteractions,
		CorpseSeconds:     cfg.CorpseRemovalSeconds,
	}) {
		scheduler.RegisterRefChange(rc)
	}
	for _, rc := range respawn.Chain(dispatcher, deps.Respawner) {
		scheduler.RegisterRefChange(rc)
	}

	w.Scheduler = scheduler
	w.commandBuf = ecs.NewCommandBuffer(store, 0, "world", 0)
	return w, nil
}

// collectItem starts the fly-to-owner animation for an item a collector
// walked over: the item keeps existing but stops merging/colliding as a
// free item and interpolates toward the collector for a short moment
// before the stack transfer happens (spec.md §4.4 PickupItemSystem).
func (w *World) collectItem(buf *ecs.CommandBuffer, item ecs.Ref, stack components.ItemStack, collector ecs.Ref) bool {
	if !w.Store.HasComponent(collector, inventory.HeldType) {
		return false
	}
	transform, ok := ecs.GetComponent[components.Transform](w.Store, item, components.TransformType)
	if !ok {
		return false
	}
	ecs.AddComponent(buf, item, components.PickupItemComponentType, components.PickupItemComponent{
		Target:          collector,
		StartPosition:   transform.Position,
		InitialLifetime: 0.25,
		LifeTime:        0.25,
	})
	// Returning false keeps PickupSystem from destroying the item; the
	// animation system owns its destruction after the transfer.
	return false
}

// RegisterProjectile registers a client-authoritative firing interaction
// for the given ProjectileConfig id, wired to the world's
// InteractionManager through the standard contact consumers. The returned
// interaction's Name() is what clients request through the dispatcher.
func (w *World) RegisterProjectile(id string) *interaction.ProjectileInteraction {
	bounce, impact := interaction.ContactConsumers(w.interactions)
	pi := &interaction.ProjectileInteraction{
		ID:       id,
		Registry: w.registry,
		Bounce:   bounce,
		Impact:   impact,
	}
	w.Dispatcher.Register(pi)
	return pi
}

// Tick advances the world one step: expire buffered interactions, run
// every system group with its syncs and RefChange chains, then flush the
// outbox so packets never leave mid-sync (spec.md §6).
func (w *World) Tick(ctx context.Context, dt float64) map[ecs.Ref][]collab.Packet {
	start := time.Now()

	w.Dispatcher.Tick(w.commandBuf, dt)
	if w.commandBuf.Len() > 0 {
		ecs.Sync(w.Store, []*ecs.CommandBuffer{w.commandBuf})
	}

	if err := w.Scheduler.Tick(ctx, dt); err != nil {
		w.Logger.Warn().Err(err).Msg("tick returned error")
	}

	w.tickCount++
	w.Logger.Trace().Uint64("tick", w.tickCount).Dur("elapsed", time.Since(start)).Msg("tick complete")
	return w.Outbox.Flush()
}

// SetDesync toggles the CAUSE_DESYNC debug flag. Callers must only invoke
// it between ticks, from the main command thread.
func (w *World) SetDesync(v bool) { w.desync = v }

// SetAllowPvP toggles player-on-player damage. Same between-ticks contract
// as SetDesync.
func (w *World) SetAllowPvP(v bool) { w.allowPvP = v }

// TickCount reports how many ticks have completed.
func (w *World) TickCount() uint64 { return w.tickCount }

// Shutdown drains pending CommandBuffers once and flushes outbound
// packets (spec.md §5 "External shutdown"). The returned packets are the
// final flush.
func (w *World) Shutdown(ctx context.Context) map[ecs.Ref][]collab.Packet {
	if w.commandBuf.Len() > 0 {
		ecs.Sync(w.Store, []*ecs.CommandBuffer{w.commandBuf})
	}
	return w.Outbox.Flush()
}

// metric adapters: telemetry.Metrics is optional, and each consumer wants
// a narrower interface than the concrete type.

func inspectMetrics(m *telemetry.Metrics) damage.Metrics {
	if m == nil {
		return nil
	}
	return damageMetrics{m}
}

type damageMetrics struct{ m *telemetry.Metrics }

func (d damageMetrics) IncDamageApplied(cause string, amount float64) { d.m.IncDamageApplied() }

func mergeMetrics(m *telemetry.Metrics) interface{ IncMerge() } {
	if m == nil {
		return nil
	}
	return m
}

func mergeMetricsPickup(m *telemetry.Metrics) interface{ IncPickup() } {
	if m == nil {
		return nil
	}
	return m
}
