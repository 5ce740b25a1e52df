package projectile

import (
	"math"

	"github.com/google/uuid"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// ShooterPose is the client-supplied position+rotation ProjectileInteraction
// requires to run (spec.md §4.5 "Ballistic launch", §4.8).
type ShooterPose struct {
	Position components.Vec3
	Pitch    float64 // degrees
	Yaw      float64 // degrees
}

// forward computes a unit forward vector from pitch/yaw in degrees.
func forward(pitch, yaw float64) components.Vec3 {
	p := pitch * math.Pi / 180
	y := yaw * math.Pi / 180
	return components.Vec3{
		X: math.Cos(p) * math.Sin(y),
		Y: math.Sin(p),
		Z: math.Cos(p) * math.Cos(y),
	}
}

// Launch computes the muzzle offset from cfg.VerticalCenterShot/DepthShot,
// builds the initial velocity along the shooter's forward vector scaled by
// MuzzleVelocity, and records createEntity for the new projectile,
// returning its Ref and the prediction UUID the caller correlates with
// client-side prediction (spec.md §4.5 "Ballistic launch").
func Launch(buf *ecs.CommandBuffer, cfg collab.ProjectileConfig, pose ShooterPose, bounce components.BounceConsumer, impact components.ImpactConsumer) (ecs.Ref, uuid.UUID) {
	fwd := forward(pose.Pitch, pose.Yaw)
	up := components.Vec3{Y: 1}

	muzzle := pose.Position.
		Add(up.Scale(cfg.VerticalCenterShot)).
		Add(fwd.Scale(cfg.DepthShot))

	velocity := components.Velocity{Linear: fwd.Scale(cfg.MuzzleVelocity)}

	predictionID := uuid.New()

	rotationMode := components.RotationPreserve
	if cfg.AlignToVelocity {
		rotationMode = components.RotationAlignToVelocity
	}

	ref := buf.CreateEntity(
		ecs.C(components.TransformType, components.Transform{Position: muzzle, Rotation: components.Vec3{X: pose.Pitch, Y: pose.Yaw}}),
		ecs.C(components.VelocityType, velocity),
		ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: cfg.HalfExtent, Y: cfg.HalfExtent, Z: cfg.HalfExtent}}),
		ecs.C(components.PhysicsValuesType, components.PhysicsValues{
			Mass:       cfg.Mass,
			Drag:       cfg.Drag,
			Bounciness: cfg.Bounciness,
		}),
		ecs.C(components.StandardPhysicsProviderType, components.StandardPhysicsProvider{
			BounceLimit:  cfg.BounceLimit,
			RotationMode: rotationMode,
			Bounce:       bounce,
			Impact:       impact,
		}),
		ecs.C(components.PredictedProjectileType, components.PredictedProjectile{PredictionID: predictionID}),
	)
	return ref, predictionID
}
