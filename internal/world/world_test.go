package world

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/config"
	"github.com/embervoid/tickcore/internal/damage"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
)

func testWorld(t *testing.T) *World {
	t.Helper()
	cfg := config.DefaultWorldConfig()
	cfg.Workers = 2
	cfg.CorpseRemovalSeconds = 0.2

	registry := collab.NewStaticAssetRegistry(nil, nil, []collab.ItemDescriptorConfig{
		{ID: "stone", MaxStackSize: 64},
	}, nil)

	w, err := Initialize(context.Background(), cfg, Deps{
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return w
}

// end-to-end scenario 4: lethal damage flows through the four damage
// groups into the death chain, the corpse countdown runs out, and the
// entity is destroyed — all driven by whole Ticks.
func TestWorld_DamageDeathCorpse(t *testing.T) {
	w := testWorld(t)

	target := w.Store.Spawn(
		ecs.C(components.HealthType, components.Health{Stats: map[components.StatKind]float64{
			components.StatHealth:    5,
			components.StatMaxHealth: 20,
		}}),
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{Y: 64}}),
	)

	seed := ecs.NewCommandBuffer(w.Store, 0, "seed", 0)
	damage.ExecuteDamage(seed, target, damage.Record{Cause: "test", Amount: 10})
	ecs.Sync(w.Store, []*ecs.CommandBuffer{seed})

	w.Tick(context.Background(), 0.05)

	health, ok := ecs.GetComponent[components.Health](w.Store, target, components.HealthType)
	require.True(t, ok)
	assert.LessOrEqual(t, health.Get(components.StatHealth), 0.0)
	assert.True(t, w.Store.HasComponent(target, components.DeathComponentType))
	assert.True(t, w.Store.HasComponent(target, components.DeferredCorpseRemovalType))

	for i := 0; i < 10 && w.Store.IsValid(target); i++ {
		w.Tick(context.Background(), 0.05)
	}
	assert.False(t, w.Store.IsValid(target))
}

// CAUSE_DESYNC lets the damage record travel the pipeline but nulls its
// effect: health is untouched and no death fires.
func TestWorld_DesyncFlagCancelsDamageEffect(t *testing.T) {
	w := testWorld(t)
	w.SetDesync(true)

	target := w.Store.Spawn(
		ecs.C(components.HealthType, components.Health{Stats: map[components.StatKind]float64{
			components.StatHealth: 5,
		}}),
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{Y: 64}}),
	)

	seed := ecs.NewCommandBuffer(w.Store, 0, "seed", 0)
	damage.ExecuteDamage(seed, target, damage.Record{Cause: "test", Amount: 10})
	ecs.Sync(w.Store, []*ecs.CommandBuffer{seed})

	w.Tick(context.Background(), 0.05)

	health, _ := ecs.GetComponent[components.Health](w.Store, target, components.HealthType)
	assert.Equal(t, 5.0, health.Get(components.StatHealth))
	assert.False(t, w.Store.HasComponent(target, components.DeathComponentType))
}

func TestWorld_TickFlushesOutbox(t *testing.T) {
	w := testWorld(t)

	viewer := w.Store.Spawn()
	w.Outbox.Enqueue(viewer, collab.Packet{Kind: "test"})

	packets := w.Tick(context.Background(), 0.05)
	require.Len(t, packets[viewer], 1)

	packets = w.Tick(context.Background(), 0.05)
	assert.Empty(t, packets[viewer])
}

func TestWorld_FireProjectileEndToEnd(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	registry := collab.NewStaticAssetRegistry([]collab.ProjectileConfig{
		{ID: "arrow", MuzzleVelocity: 30, HalfExtent: 0.1, AlignToVelocity: true},
	}, nil, nil, nil)

	w, err := Initialize(context.Background(), cfg, Deps{Registry: registry, Logger: zerolog.Nop()})
	require.NoError(t, err)

	pi := w.RegisterProjectile("arrow")
	shooter := w.Store.Spawn(ecs.C(components.TransformType, components.Transform{}))

	buf := ecs.NewCommandBuffer(w.Store, 0, "input", 0)
	result, err := w.Dispatcher.RequestAction(context.Background(), buf, shooter, pi.Name(), 0.5)
	require.NoError(t, err)
	require.Equal(t, interaction.Continue, result.Kind)

	result, err = w.Dispatcher.SupplyClientData(context.Background(), buf, shooter, interaction.ClientActionData{
		Position: components.Vec3{Y: 1.6},
		Yaw:      90,
	})
	require.NoError(t, err)
	require.Equal(t, interaction.Continue, result.Kind)
	ecs.Sync(w.Store, []*ecs.CommandBuffer{buf})

	var before, after []float64
	ecs.NewQuery(components.PredictedProjectileType).ForEach(w.Store, func(a ecs.ComponentAccessor) {
		tr, _ := ecs.Get[components.Transform](a, components.TransformType)
		before = append(before, tr.Position.X)
	})
	require.Len(t, before, 1)

	w.Tick(context.Background(), 0.05)

	ecs.NewQuery(components.PredictedProjectileType).ForEach(w.Store, func(a ecs.ComponentAccessor) {
		tr, _ := ecs.Get[components.Transform](a, components.TransformType)
		after = append(after, tr.Position.X)
	})
	require.Len(t, after, 1)
	assert.Greater(t, after[0], before[0])
}

func TestWorld_DeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) []float64 {
		cfg := config.DefaultWorldConfig()
		cfg.Workers = workers
		registry := collab.NewStaticAssetRegistry(nil, nil, nil, nil)
		w, err := Initialize(context.Background(), cfg, Deps{Registry: registry, Logger: zerolog.Nop()})
		require.NoError(t, err)

		refs := make([]ecs.Ref, 8)
		for i := range refs {
			refs[i] = w.Store.Spawn(
				ecs.C(components.ItemComponentType, components.ItemComponent{
					Stack: components.ItemStack{DescriptorID: "stone", Quantity: 1},
				}),
				ecs.C(components.TransformType, components.Transform{Position: components.Vec3{X: float64(i) * 10, Y: 5}}),
				ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}),
				ecs.C(components.VelocityType, components.Velocity{}),
				ecs.C(components.PhysicsValuesType, components.PhysicsValues{GravityScale: 1}),
			)
		}
		for i := 0; i < 20; i++ {
			w.Tick(context.Background(), 0.05)
		}
		out := make([]float64, len(refs))
		for i, ref := range refs {
			tr, _ := ecs.GetComponent[components.Transform](w.Store, ref, components.TransformType)
			out[i] = tr.Position.Y
		}
		return out
	}

	assert.Equal(t, run(1), run(4))
}
