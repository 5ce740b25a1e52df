package components

import (
	"context"

	"github.com/google/uuid"

	"github.com/embervoid/tickcore/internal/ecs"
)

// RotationMode selects how a projectile's Transform.Rotation is derived
// each tick (spec.md §4.5).
type RotationMode int

const (
	RotationAlignToVelocity RotationMode = iota
	RotationPreserve
)

// ContactKind tags what a CollisionModule sweep hit.
type ContactKind int

const (
	ContactNone ContactKind = iota
	ContactBlock
	ContactFluid
	ContactEntity
)

// CollisionResult is the outcome of CollisionModule.Sweep (spec.md §6).
type CollisionResult struct {
	Hit     bool
	TEnter  float64
	Normal  Vec3
	Kind    ContactKind
	BlockID string
	FluidID string
	Entity  ecs.Ref
}

// BounceConsumer is invoked when a projectile bounces off a block contact
// (spec.md §4.5 step 3). It may record commands in buf (e.g. spawn decals)
// but must never destroy the projectile — that is the ImpactConsumer's
// decision alone.
type BounceConsumer func(ctx context.Context, buf *ecs.CommandBuffer, projectile ecs.Ref, contactPoint Vec3)

// ImpactConsumer is invoked on entity contact, or on a block contact that
// did not bounce. It decides whether to destroy the projectile by
// recording DestroyEntity in buf.
type ImpactConsumer func(ctx context.Context, buf *ecs.CommandBuffer, projectile ecs.Ref, contactPoint Vec3, hitEntity ecs.Ref, hasHitEntity bool, hitZone string)

// StandardPhysicsProvider is the per-projectile physics state component
// (spec.md §3): accumulated tick delta, ground/swim flags, contact
// normal, bounce count, and the impact/bounce callback references.
type StandardPhysicsProvider struct {
	AccumulatedDelta float64
	OnGround         bool
	Swimming         bool
	ContactNormal    Vec3
	BounceCount      int
	BounceLimit      int
	RotationMode     RotationMode
	Bounce           BounceConsumer
	Impact           ImpactConsumer
}

// PredictedProjectile carries the prediction UUID used to correlate a
// server-spawned projectile with client-side prediction (spec.md §3,
// §4.5 "Prediction signal").
type PredictedProjectile struct {
	PredictionID uuid.UUID
}

var (
	StandardPhysicsProviderType = ecs.RegisterComponent[StandardPhysicsProvider]("standard_physics_provider")
	PredictedProjectileType     = ecs.RegisterComponent[PredictedProjectile]("predicted_projectile")
)
