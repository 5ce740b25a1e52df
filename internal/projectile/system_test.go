package projectile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// scenario 6: a projectile with bounciness=1.0 and bounce-limit=1 bounces
// once off a wall, then is destroyed by the ImpactConsumer on its second
// block contact.
func TestSystem_BounceThenImpact(t *testing.T) {
	store := ecs.NewStore(0)
	collision := collab.NewVoxelCollisionModule()
	// Wall at x=2 (solid column), floor well below so only the wall is hit.
	for y := -5; y <= 5; y++ {
		for z := -5; z <= 5; z++ {
			collision.SetSolid(2, y, z, true)
		}
	}

	var bounces, impacts int
	var impactedRef ecs.Ref
	var destroyBuf *ecs.CommandBuffer

	bounce := func(ctx context.Context, buf *ecs.CommandBuffer, ref ecs.Ref, contact components.Vec3) {
		bounces++
	}
	impact := func(ctx context.Context, buf *ecs.CommandBuffer, ref ecs.Ref, contact components.Vec3, hit ecs.Ref, hasHit bool, zone string) {
		impacts++
		impactedRef = ref
		destroyBuf = buf
		buf.DestroyEntity(ref)
	}

	ref := store.Spawn(
		ecs.C(components.TransformType, components.Transform{Position: components.Vec3{X: 0, Y: 0, Z: 0}}),
		ecs.C(components.VelocityType, components.Velocity{Linear: components.Vec3{X: 20}}),
		ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.1, Y: 0.1, Z: 0.1}}),
		ecs.C(components.PhysicsValuesType, components.PhysicsValues{Bounciness: 1.0}),
		ecs.C(components.StandardPhysicsProviderType, components.StandardPhysicsProvider{
			BounceLimit: 1,
			Bounce:      bounce,
			Impact:      impact,
		}),
	)

	sys := &System{Collision: collision, Gravity: 0}
	chunks := sys.Query().Chunks(store)

	// First tick: travel far enough to hit the wall and bounce.
	buf := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.5, buf))
	assert.Equal(t, 1, bounces)
	assert.Equal(t, 0, impacts)

	acc, _ := store.Accessor(ref)
	provider, _ := ecs.Get[components.StandardPhysicsProvider](acc, components.StandardPhysicsProviderType)
	assert.Equal(t, 1, provider.BounceCount)

	// Force velocity back toward the wall for a second contact (the first
	// bounce reflected it away); simulates the projectile being redirected
	// by further gameplay code before its next tick.
	velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)
	velocity.Linear = components.Vec3{X: 20}
	ecs.Set(acc, components.VelocityType, velocity)

	buf2 := ecs.NewCommandBuffer(store, 0, sys.Name(), 0)
	require.NoError(t, sys.Run(context.Background(), store, chunks, 0.5, buf2))
	assert.Equal(t, 1, bounces, "bounce count must not increase past the limit")
	assert.Equal(t, 1, impacts)
	assert.Equal(t, ref, impactedRef)
	assert.Equal(t, buf2, destroyBuf)
	assert.Equal(t, 1, buf2.Len())
}
