package respawn

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/inventory"
)

// oneShotRevive removes the DeathComponent from its target on the first
// tick, triggering the respawn RefChange chain.
type oneShotRevive struct {
	target ecs.Ref
	fired  bool
}

func (s *oneShotRevive) Name() string                  { return "oneShotRevive" }
func (s *oneShotRevive) Kind() ecs.SystemKind          { return ecs.EntityTicking }
func (s *oneShotRevive) Query() ecs.Query              { return ecs.NewQuery(components.HealthType) }
func (s *oneShotRevive) DependsOn() []string           { return nil }
func (s *oneShotRevive) IsParallel() bool              { return false }
func (s *oneShotRevive) WriteSet() []ecs.ComponentType { return nil }
func (s *oneShotRevive) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if !s.fired {
		s.fired = true
		buf.RemoveComponent(s.target, components.DeathComponentType)
	}
	return nil
}

func TestRespawnChain_FullSequence(t *testing.T) {
	store := ecs.NewStore(0)

	container := inventory.NewContainer(2, nil)
	container.SetSlot(0, components.ItemStack{DescriptorID: "sword", Quantity: 1, Durability: -1})
	container.SetSlot(1, components.ItemStack{DescriptorID: "stone", Quantity: 8, Durability: 10})

	player := store.Spawn(
		ecs.C(components.HealthType, components.Health{Stats: map[components.StatKind]float64{
			components.StatHealth:    0,
			components.StatMaxHealth: 20,
		}}),
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{X: 5, Y: -10, Z: 5}}),
		ecs.C(components.VelocityType, components.Velocity{Linear: components.Vec3{Y: -30}}),
		ecs.C(components.StatusEffectsType, components.StatusEffects{Effects: map[string]float64{"wither": 4}}),
		ecs.C(components.PlayerMetadataType, components.PlayerMetadata{Deaths: 2, TimeSinceSpawn: 55}),
		ecs.C(components.AnimationStateType, components.AnimationState{Name: "death_fall"}),
		ecs.C(components.DeathComponentType, components.DeathComponent{Cause: "void"}),
		ecs.C(components.DeferredCorpseRemovalType, components.DeferredCorpseRemoval{RemainingSeconds: 20}),
		ecs.C(inventory.HeldType, inventory.Held{Container: container}),
	)

	controller := collab.NewFixedRespawnController(components.Vec3{X: 100, Y: 70, Z: 100})
	revive := &oneShotRevive{target: player}

	sched := ecs.NewScheduler(store, []ecs.Group{
		{Name: "Test", Systems: []ecs.TickSystem{revive}},
	}, 1, zerolog.Nop())
	for _, rc := range Chain(nil, controller) {
		sched.RegisterRefChange(rc)
	}

	require.NoError(t, sched.Tick(context.Background(), 0.05))

	// stats restored to max.
	health, _ := ecs.GetComponent[components.Health](store, player, components.HealthType)
	assert.Equal(t, 20.0, health.Get(components.StatHealth))

	// effects cleared.
	effects, _ := ecs.GetComponent[components.StatusEffects](store, player, components.StatusEffectsType)
	assert.Empty(t, effects.Effects)

	// broken items culled, intact ones kept.
	assert.True(t, container.Slot(0).IsEmpty())
	assert.EqualValues(t, 8, container.Slot(1).Quantity)

	// metadata records the death and resets the session clock.
	meta, _ := ecs.GetComponent[components.PlayerMetadata](store, player, components.PlayerMetadataType)
	assert.Equal(t, 3, meta.Deaths)
	assert.Zero(t, meta.TimeSinceSpawn)

	// relocated to the controller's spawn point, velocity zeroed, death
	// leftovers removed.
	transform, _ := ecs.GetComponent[components.Transform](store, player, components.TransformType)
	assert.Equal(t, components.Vec3{X: 100, Y: 70, Z: 100}, transform.Position)
	velocity, _ := ecs.GetComponent[components.Velocity](store, player, components.VelocityType)
	assert.Zero(t, velocity.Linear.Y)
	assert.False(t, store.HasComponent(player, components.AnimationStateType))
	assert.False(t, store.HasComponent(player, components.DeferredCorpseRemovalType))
	assert.False(t, store.HasComponent(player, components.DeathComponentType))
}

func TestRespawnChain_EntityWithoutInventoryOrMetadata(t *testing.T) {
	store := ecs.NewStore(0)
	mob := store.Spawn(
		ecs.C(components.HealthType, components.Health{Stats: map[components.StatKind]float64{components.StatHealth: 0}}),
		ecs.C(components.DeathComponentType, components.DeathComponent{Cause: "fall"}),
	)

	revive := &oneShotRevive{target: mob}
	sched := ecs.NewScheduler(store, []ecs.Group{
		{Name: "Test", Systems: []ecs.TickSystem{revive}},
	}, 1, zerolog.Nop())
	for _, rc := range Chain(nil, collab.NewFixedRespawnController()) {
		sched.RegisterRefChange(rc)
	}

	require.NoError(t, sched.Tick(context.Background(), 0.05))

	// default max health applies when no StatMaxHealth was ever set.
	health, _ := ecs.GetComponent[components.Health](store, mob, components.HealthType)
	assert.Equal(t, 20.0, health.Get(components.StatHealth))
}
