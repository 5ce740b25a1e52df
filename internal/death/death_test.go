package death

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

// oneShotKill adds a DeathComponent to its target on the first tick only.
type oneShotKill struct {
	target ecs.Ref
	death  components.DeathComponent
	fired  bool
}

func (s *oneShotKill) Name() string                    { return "oneShotKill" }
func (s *oneShotKill) Kind() ecs.SystemKind            { return ecs.EntityTicking }
func (s *oneShotKill) Query() ecs.Query                { return ecs.NewQuery(components.HealthType) }
func (s *oneShotKill) DependsOn() []string             { return nil }
func (s *oneShotKill) IsParallel() bool                { return false }
func (s *oneShotKill) WriteSet() []ecs.ComponentType   { return nil }
func (s *oneShotKill) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if !s.fired {
		s.fired = true
		ecs.AddComponent(buf, s.target, components.DeathComponentType, s.death)
	}
	return nil
}

func newPlayer(store *ecs.Store, container *inventory.Container) ecs.Ref {
	return store.Spawn(
		ecs.C(components.HealthType, components.Health{Stats: map[components.StatKind]float64{
			components.StatHealth:    5,
			components.StatMaxHealth: 20,
		}}),
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{X: 10, Y: 64, Z: -3}}),
		ecs.C(components.StatusEffectsType, components.StatusEffects{Effects: map[string]float64{"poison": 3}}),
		ecs.C(components.PlayerMetadataType, components.PlayerMetadata{TimeSinceSpawn: 120}),
		ecs.C(inventory.HeldType, inventory.Held{Container: container}),
	)
}

func TestDeathChain_FullSequence(t *testing.T) {
	store := ecs.NewStore(0)
	registry := collab.NewStaticAssetRegistry(nil, nil, []collab.ItemDescriptorConfig{
		{ID: "stone", MaxStackSize: 64},
	}, nil)

	container := inventory.NewContainer(2, registry)
	container.SetSlot(0, components.ItemStack{DescriptorID: "stone", Quantity: 12})
	player := newPlayer(store, container)

	outbox := collab.NewChannelOutbox()
	kill := &oneShotKill{target: player, death: components.DeathComponent{
		Cause:       "projectile",
		FatalDamage: components.DamageSnapshot{Cause: "projectile", Amount: 9, Zone: "chest"},
	}}

	sched := ecs.NewScheduler(store, []ecs.Group{
		{Name: "Test", Systems: []ecs.TickSystem{kill}},
		{Name: GroupCorpse, Systems: []ecs.TickSystem{&CorpseTickSystem{}}},
	}, 1, zerolog.Nop())
	for _, rc := range Chain(ChainDeps{Outbox: outbox, CorpseSeconds: 1}) {
		sched.RegisterRefChange(rc)
	}

	require.NoError(t, sched.Tick(context.Background(), 0.05))

	// step 1: status effects wiped.
	effects, _ := ecs.GetComponent[components.StatusEffects](store, player, components.StatusEffectsType)
	assert.Empty(t, effects.Effects)

	// step 3: health pinned to zero.
	health, _ := ecs.GetComponent[components.Health](store, player, components.HealthType)
	assert.Zero(t, health.Get(components.StatHealth))

	// step 4: death animation set from cause.
	anim, ok := ecs.GetComponent[components.AnimationState](store, player, components.AnimationStateType)
	require.True(t, ok)
	assert.Equal(t, "death_knockback", anim.Name)

	// step 6: inventory emptied and dropped as item entities at the
	// death position with a pickup cooldown.
	assert.True(t, container.Slot(0).IsEmpty())
	var drops []components.ItemComponent
	ecs.NewQuery(components.ItemComponentType).ForEach(store, func(a ecs.ComponentAccessor) {
		item, _ := ecs.Get[components.ItemComponent](a, components.ItemComponentType)
		drops = append(drops, item)
	})
	require.Len(t, drops, 1)
	assert.EqualValues(t, 12, drops[0].Stack.Quantity)
	assert.Greater(t, drops[0].PickupDelay, 0.0)

	// step 8: map marker spawned at the death position.
	markers := 0
	ecs.NewQuery(components.DeathMarkerType).ForEach(store, func(a ecs.ComponentAccessor) {
		marker, _ := ecs.Get[components.DeathMarker](a, components.DeathMarkerType)
		assert.Equal(t, player, marker.Player)
		assert.Equal(t, components.Vec3{X: 10, Y: 64, Z: -3}, marker.Position)
		markers++
	})
	assert.Equal(t, 1, markers)

	// steps 7 and 9: kill feed broadcast plus the player's death screen.
	packets := outbox.Flush()
	kinds := map[string]bool{}
	for _, ps := range packets {
		for _, p := range ps {
			kinds[p.Kind] = true
		}
	}
	assert.True(t, kinds["kill_feed"])
	assert.True(t, kinds["death_screen"])

	// step 10: corpse countdown armed.
	removal, ok := ecs.GetComponent[components.DeferredCorpseRemoval](store, player, components.DeferredCorpseRemovalType)
	require.True(t, ok)
	assert.InDelta(t, 1.0, removal.RemainingSeconds, 0.1)
}

func TestCorpseTick_DestroysAfterCountdown(t *testing.T) {
	store := ecs.NewStore(0)
	corpse := store.Spawn(
		ecs.C(components.DeferredCorpseRemovalType, components.DeferredCorpseRemoval{RemainingSeconds: 1}),
	)

	sched := ecs.NewScheduler(store, []ecs.Group{
		{Name: GroupCorpse, Systems: []ecs.TickSystem{&CorpseTickSystem{}}},
	}, 1, zerolog.Nop())

	for i := 0; i < 3; i++ {
		require.NoError(t, sched.Tick(context.Background(), 0.4))
	}
	assert.False(t, store.IsValid(corpse))
}

func TestDeathChain_KeepAllRulesetKeepsInventory(t *testing.T) {
	store := ecs.NewStore(0)
	container := inventory.NewContainer(1, nil)
	container.SetSlot(0, components.ItemStack{DescriptorID: "stone", Quantity: 7})
	player := newPlayer(store, container)

	kill := &oneShotKill{target: player, death: components.DeathComponent{
		Cause:           "fall",
		ItemLossRuleset: "keep_all",
	}}
	sched := ecs.NewScheduler(store, []ecs.Group{
		{Name: "Test", Systems: []ecs.TickSystem{kill}},
	}, 1, zerolog.Nop())
	for _, rc := range Chain(ChainDeps{CorpseSeconds: 1}) {
		sched.RegisterRefChange(rc)
	}

	require.NoError(t, sched.Tick(context.Background(), 0.05))

	assert.EqualValues(t, 7, container.Slot(0).Quantity)
	items := 0
	ecs.NewQuery(components.ItemComponentType).ForEach(store, func(ecs.ComponentAccessor) { items++ })
	assert.Zero(t, items)
}
