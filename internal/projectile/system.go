// Package projectile implements the predictive ballistic projectile
// simulation spec.md §4.5 describes: a single per-tick system driving
// each entity's StandardPhysicsProvider through force integration,
// swept collision, bounce/impact dispatch and fluid submersion.
package projectile

import (
	"context"
	"math"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupPhysics is the system-group name the projectile tick runs in,
// alongside item physics (spec.md §4.3).
const GroupPhysics = "Physics"

// onGroundSpeedThreshold is the horizontal-speed cutoff below which a
// projectile resting on an upward-facing contact is marked OnGround
// (spec.md §4.5 step 3).
const onGroundSpeedThreshold = 0.05

var query = ecs.NewQuery(
	components.StandardPhysicsProviderType,
	components.TransformType,
	components.VelocityType,
	components.BoundingBoxType,
	components.PhysicsValuesType,
)

// System is the single per-tick, per-entity projectile physics system
// (spec.md §4.5). It is serial: bounce/impact consumers may record
// arbitrary commands, so letting two workers process contacts
// concurrently would race on consumer side effects.
type System struct {
	Collision collab.CollisionModule
	Gravity   float64
}

func (s *System) Name() string         { return "ProjectilePhysicsSystem" }
func (s *System) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *System) Query() ecs.Query     { return query }
func (s *System) DependsOn() []string  { return nil }
func (s *System) IsParallel() bool     { return false }
func (s *System) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{
		components.TransformType,
		components.VelocityType,
		components.StandardPhysicsProviderType,
	}
}

func (s *System) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()

			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
			velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)
			box, _ := ecs.Get[components.BoundingBox](acc, components.BoundingBoxType)
			pv, _ := ecs.Get[components.PhysicsValues](acc, components.PhysicsValuesType)
			provider, _ := ecs.Get[components.StandardPhysicsProvider](acc, components.StandardPhysicsProviderType)

			// Step 1: integrate forces (Symplectic Euler): gravity, linear
			// drag, and buoyancy if currently submerged.
			gravityScale := pv.GravityScale
			if gravityScale == 0 {
				gravityScale = 1
			}
			velocity.Linear.Y -= s.Gravity * gravityScale * dt
			if pv.Drag > 0 {
				velocity.Linear = velocity.Linear.Scale(math.Max(0, 1-pv.Drag*dt))
			}
			if provider.Swimming {
				velocity.Linear.Y += s.Gravity * 0.6 * dt
			}

			from := transform.Position
			to := from.Add(velocity.Linear.Scale(dt))

			var result components.CollisionResult
			if s.Collision != nil {
				result = s.Collision.Sweep(box, from, to)
			}

			switch {
			case result.Hit && result.Kind == components.ContactBlock:
				transform.Position = from.Add(to.Sub(from).Scale(result.TEnter))

				bounced := false
				if pv.Bounciness > 0 && provider.BounceCount < provider.BounceLimit {
					velocity.Linear = reflect(velocity.Linear, result.Normal, pv.Bounciness)
					provider.BounceCount++
					bounced = true
					if provider.Bounce != nil {
						provider.Bounce(ctx, buf, ref, transform.Position)
					}
				} else {
					velocity.Linear = slide(velocity.Linear, result.Normal)
					horizontal := math.Sqrt(velocity.Linear.X*velocity.Linear.X + velocity.Linear.Z*velocity.Linear.Z)
					provider.OnGround = result.Normal.Y > 0 && horizontal < onGroundSpeedThreshold
				}
				provider.ContactNormal = result.Normal

				if !bounced && provider.Impact != nil {
					provider.Impact(ctx, buf, ref, transform.Position, ecs.Ref{}, false, "")
				}

			case result.Hit && result.Kind == components.ContactEntity:
				transform.Position = from.Add(to.Sub(from).Scale(result.TEnter))
				if provider.Impact != nil {
					provider.Impact(ctx, buf, ref, transform.Position, result.Entity, true, "")
				}

			default:
				transform.Position = to
				provider.OnGround = false
			}

			if s.Collision != nil {
				if fluidID, submerged := s.Collision.FluidAt(transform.Position); submerged {
					fraction := submergedFraction(box, transform.Position, fluidID)
					speed := math.Sqrt(velocity.Linear.X*velocity.Linear.X + velocity.Linear.Y*velocity.Linear.Y + velocity.Linear.Z*velocity.Linear.Z)
					provider.Swimming = fraction >= 0.99 && speed < 1.0
				} else {
					provider.Swimming = false
				}
			}

			if provider.RotationMode == components.RotationAlignToVelocity {
				speed := math.Sqrt(velocity.Linear.X*velocity.Linear.X + velocity.Linear.Y*velocity.Linear.Y + velocity.Linear.Z*velocity.Linear.Z)
				if speed > 1e-6 {
					yaw := math.Atan2(velocity.Linear.X, velocity.Linear.Z) * 180 / math.Pi
					pitch := math.Asin(clamp(velocity.Linear.Y/speed, -1, 1)) * 180 / math.Pi
					transform.Rotation = components.Vec3{X: pitch, Y: yaw}
				}
			}

			provider.AccumulatedDelta += dt

			ecs.Set(acc, components.TransformType, transform)
			ecs.Set(acc, components.VelocityType, velocity)
			ecs.Set(acc, components.StandardPhysicsProviderType, provider)
		}
	}
	return nil
}

func reflect(v, normal components.Vec3, bounciness float64) components.Vec3 {
	dot := v.X*normal.X + v.Y*normal.Y + v.Z*normal.Z
	if dot >= 0 {
		return v
	}
	return v.Sub(normal.Scale(dot * (1 + bounciness)))
}

func slide(v, normal components.Vec3) components.Vec3 {
	dot := v.X*normal.X + v.Y*normal.Y + v.Z*normal.Z
	if dot >= 0 {
		return v
	}
	return v.Sub(normal.Scale(dot))
}

// submergedFraction is a coarse box-vs-surface-plane estimate: it treats
// the fluid surface as the top of the voxel the position falls in,
// matching VoxelCollisionModule's flat per-cell fluid model.
func submergedFraction(box components.BoundingBox, position components.Vec3, _ string) float64 {
	surfaceY := math.Floor(position.Y) + 1
	bottom := position.Y - box.HalfExtents.Y
	top := position.Y + box.HalfExtents.Y
	height := top - bottom
	if height <= 0 {
		return 0
	}
	submerged := math.Min(top, surfaceY) - bottom
	if submerged <= 0 {
		return 0
	}
	return clamp(submerged/height, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
