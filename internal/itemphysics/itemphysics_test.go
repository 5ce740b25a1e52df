package itemphysics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

func newItemEntity(store *ecs.Store, pos components.Vec3, descriptorID string, qty uint16, vy float64) ecs.Ref {
	return store.Spawn(
		ecs.C(components.ItemComponentType, components.ItemComponent{
			Stack: components.ItemStack{DescriptorID: descriptorID, Quantity: qty},
		}),
		ecs.C(components.TransformType, components.Transform{Position: pos}),
		ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}),
		ecs.C(components.VelocityType, components.Velocity{Linear: components.Vec3{Y: vy}}),
		ecs.C(components.PhysicsValuesType, components.PhysicsValues{GravityScale: 1, Drag: 0.1, MaxSpeed: 50}),
	)
}

// scenario 1: a dropped item falls under gravity and comes to rest on the
// ground instead of tunneling through it.
func TestPrePhysicsAndPhysics_GravityAndRest(t *testing.T) {
	store := ecs.NewStore(0)
	collision := collab.NewVoxelCollisionModule()
	for x := -2; x <= 2; x++ {
		for z := -2; z <= 2; z++ {
			collision.SetSolid(x, 0, z, true)
		}
	}

	ref := newItemEntity(store, components.Vec3{X: 0, Y: 3, Z: 0}, "stick", 1, 0)

	pre := &PrePhysicsSystem{Collision: collision, Gravity: 9.8}
	phys := &PhysicsSystem{Collision: collision}

	buf := ecs.NewCommandBuffer(store, 0, pre.Name(), 0)
	chunks := pre.Query().Chunks(store)

	for i := 0; i < 200; i++ {
		require.NoError(t, pre.Run(context.Background(), store, chunks, 0.05, buf))
		require.NoError(t, phys.Run(context.Background(), store, chunks, 0.05, buf))
	}

	acc, ok := store.Accessor(ref)
	require.True(t, ok)
	transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
	velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)

	assert.GreaterOrEqual(t, transform.Position.Y, 0.9)
	assert.Less(t, transform.Position.Y, 1.5)
	assert.InDelta(t, 0, velocity.Linear.Y, 0.5)
}

// scenario 2: two stackable item entities drift together and merge into
// one stack once their merge delay has elapsed.
func TestMergeSystem_MergesStackableNeighbors(t *testing.T) {
	store := ecs.NewStore(0)
	spatial := collab.NewGridSpatialResource(4)
	registry := collab.NewStaticAssetRegistry(nil, nil, []collab.ItemDescriptorConfig{
		{ID: "stick", MaxStackSize: 64},
	}, nil)

	a := newItemEntity(store, components.Vec3{X: 0, Y: 1, Z: 0}, "stick", 3, 0)
	b := newItemEntity(store, components.Vec3{X: 0.2, Y: 1, Z: 0}, "stick", 5, 0)
	spatial.NotifyMoved(a, components.Vec3{X: 0, Y: 1, Z: 0})
	spatial.NotifyMoved(b, components.Vec3{X: 0.2, Y: 1, Z: 0})

	merge := &MergeSystem{Spatial: spatial, Registry: registry}
	buf := ecs.NewCommandBuffer(store, 1, merge.Name(), 0)
	chunks := merge.Query().Chunks(store)

	require.NoError(t, merge.Run(context.Background(), store, chunks, 0.05, buf))

	stats, _ := ecs.Sync(store, []*ecs.CommandBuffer{buf})
	assert.Equal(t, 1, stats.Destroyed)

	var survivor ecs.Ref
	if store.IsValid(a) {
		survivor = a
	} else {
		survivor = b
	}
	acc, ok := store.Accessor(survivor)
	require.True(t, ok)
	item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
	assert.EqualValues(t, 8, item.Stack.Quantity)
}

// scenario 3: a PreventItemMerging-tagged item never merges even when a
// stackable neighbor is in range.
func TestMergeSystem_SuppressedByPreventItemMerging(t *testing.T) {
	store := ecs.NewStore(0)
	spatial := collab.NewGridSpatialResource(4)
	registry := collab.NewStaticAssetRegistry(nil, nil, []collab.ItemDescriptorConfig{
		{ID: "stick", MaxStackSize: 64},
	}, nil)

	a := store.Spawn(
		ecs.C(components.ItemComponentType, components.ItemComponent{
			Stack: components.ItemStack{DescriptorID: "stick", Quantity: 3},
		}),
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{Y: 1}}),
		ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}),
		ecs.C(components.VelocityType, components.Velocity{}),
		ecs.C(components.PhysicsValuesType, components.PhysicsValues{}),
		ecs.C(components.PreventItemMergingType, components.PreventItemMerging{}),
	)
	b := newItemEntity(store, components.Vec3{X: 0.2, Y: 1, Z: 0}, "stick", 5, 0)

	spatial.NotifyMoved(a, components.Vec3{Y: 1})
	spatial.NotifyMoved(b, components.Vec3{X: 0.2, Y: 1})

	merge := &MergeSystem{Spatial: spatial, Registry: registry}
	buf := ecs.NewCommandBuffer(store, 1, merge.Name(), 0)
	chunks := merge.Query().Chunks(store)

	require.NoError(t, merge.Run(context.Background(), store, chunks, 0.05, buf))

	assert.Equal(t, 0, buf.Len())
	acc, _ := store.Accessor(a)
	item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
	assert.EqualValues(t, 3, item.Stack.Quantity)
}

func TestPickupSystem_DestroysItemWhenCollectorAccepts(t *testing.T) {
	store := ecs.NewStore(0)
	spatial := collab.NewGridSpatialResource(4)

	item := newItemEntity(store, components.Vec3{}, "stick", 1, 0)
	collector := store.Spawn(ecs.C(components.TransformType, components.Transform{}))
	spatial.NotifyMoved(item, components.Vec3{})
	spatial.NotifyMoved(collector, components.Vec3{})

	var credited ecs.Ref
	pickup := &PickupSystem{
		Spatial: spatial,
		Collector: func(buf *ecs.CommandBuffer, itemRef ecs.Ref, stack components.ItemStack, collectorRef ecs.Ref) bool {
			credited = collectorRef
			return true
		},
	}
	buf := ecs.NewCommandBuffer(store, 2, pickup.Name(), 0)
	chunks := pickup.Query().Chunks(store)

	require.NoError(t, pickup.Run(context.Background(), store, chunks, 0.05, buf))
	assert.Equal(t, collector, credited)

	stats, _ := ecs.Sync(store, []*ecs.CommandBuffer{buf})
	assert.Equal(t, 1, stats.Destroyed)
	assert.False(t, store.IsValid(item))
}
