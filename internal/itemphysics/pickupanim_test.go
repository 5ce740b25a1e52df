package itemphysics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

func newFlyingItem(store *ecs.Store, target ecs.Ref, qty uint16, lifetime float64) ecs.Ref {
	start := components.Vec3{X: 4, Y: 1, Z: 0}
	return store.Spawn(
		ecs.C(components.ItemComponentType, components.ItemComponent{
			Stack: components.ItemStack{DescriptorID: "stone", Quantity: qty},
		}),
		ecs.C(components.TransformType, components.Transform{Position: start}),
		ecs.C(components.PickupItemComponentType, components.PickupItemComponent{
			Target:          target,
			StartPosition:   start,
			InitialLifetime: lifetime,
			LifeTime:        lifetime,
		}),
	)
}

func TestPickupAnimation_InterpolatesTowardTarget(t *testing.T) {
	store := ecs.NewStore(0)
	target := store.Spawn(ecs.C(components.TransformType, components.Transform{}))
	item := newFlyingItem(store, target, 5, 1.0)

	sys := &PickupAnimationSystem{}
	buf := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	chunks := sys.Query().Chunks(store)

	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.5, buf))

	acc, _ := store.Accessor(item)
	transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
	// halfway through the lifetime, halfway along the path from x=4 to x=0.
	assert.InDelta(t, 2.0, transform.Position.X, 1e-9)
	assert.Equal(t, 0, buf.Len())
}

// property 6: a completing pickup either lands the whole stack in the
// target's inventory, or leaves a residual item entity with the excess.
func TestPickupAnimation_TransfersOnCompletion(t *testing.T) {
	store := ecs.NewStore(0)
	target := store.Spawn(ecs.C(components.TransformType, components.Transform{Position: components.Vec3{X: 1}}))
	item := newFlyingItem(store, target, 5, 0.1)

	var deposited components.ItemStack
	sys := &PickupAnimationSystem{
		Deposit: func(store *ecs.Store, to ecs.Ref, stack components.ItemStack) (components.ItemStack, bool) {
			deposited = stack
			return components.ItemStack{}, true
		},
	}
	buf := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	chunks := sys.Query().Chunks(store)

	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.2, buf))

	assert.EqualValues(t, 5, deposited.Quantity)
	stats, _ := ecs.Sync(store, []*ecs.CommandBuffer{buf})
	assert.Equal(t, 1, stats.Destroyed)
	assert.False(t, store.IsValid(item))
}

func TestPickupAnimation_ResidualDroppedWhenInventoryFull(t *testing.T) {
	store := ecs.NewStore(0)
	targetPos := components.Vec3{X: 1, Y: 2, Z: 3}
	target := store.Spawn(ecs.C(components.TransformType, components.Transform{Position: targetPos}))
	item := newFlyingItem(store, target, 10, 0.1)

	sys := &PickupAnimationSystem{
		Deposit: func(store *ecs.Store, to ecs.Ref, stack components.ItemStack) (components.ItemStack, bool) {
			residual := stack
			residual.Quantity = 4
			return residual, true
		},
	}
	buf := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	chunks := sys.Query().Chunks(store)

	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.2, buf))
	stats, _ := ecs.Sync(store, []*ecs.CommandBuffer{buf})

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Destroyed)
	assert.False(t, store.IsValid(item))

	var residuals []components.ItemComponent
	var positions []components.Vec3
	ecs.NewQuery(components.ItemComponentType).ForEach(store, func(a ecs.ComponentAccessor) {
		it, _ := ecs.Get[components.ItemComponent](a, components.ItemComponentType)
		tr, _ := ecs.Get[components.Transform](a, components.TransformType)
		residuals = append(residuals, it)
		positions = append(positions, tr.Position)
	})
	require.Len(t, residuals, 1)
	assert.EqualValues(t, 4, residuals[0].Stack.Quantity)
	assert.Greater(t, residuals[0].PickupDelay, 0.0)
	assert.Equal(t, targetPos, positions[0])
}

func TestPickupAnimation_TargetDestroyedCancelsTransfer(t *testing.T) {
	store := ecs.NewStore(0)
	target := store.Spawn(ecs.C(components.TransformType, components.Transform{}))
	item := newFlyingItem(store, target, 5, 1.0)

	destroyBuf := ecs.NewCommandBuffer(store, 0, "test", 0)
	destroyBuf.DestroyEntity(target)
	ecs.Sync(store, []*ecs.CommandBuffer{destroyBuf})

	transferred := false
	sys := &PickupAnimationSystem{
		Deposit: func(store *ecs.Store, to ecs.Ref, stack components.ItemStack) (components.ItemStack, bool) {
			transferred = true
			return components.ItemStack{}, true
		},
	}
	buf := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	chunks := sys.Query().Chunks(store)

	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.05, buf))
	stats, _ := ecs.Sync(store, []*ecs.CommandBuffer{buf})

	assert.False(t, transferred)
	assert.Equal(t, 1, stats.Destroyed)
	assert.False(t, store.IsValid(item))
}
