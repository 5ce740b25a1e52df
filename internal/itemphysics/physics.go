package itemphysics

import (
	"context"
	"math"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// PhysicsSystem runs serially in the Physics group: it sweeps each item
// entity's bounding box from its current position toward
// position + velocity*dt, resolves block contact with a bounce or rest,
// and writes the post-resolution Transform/Velocity back in place
// (spec.md §4.4 step 2-4).
type PhysicsSystem struct {
	Collision collab.CollisionModule
	Spatial   collab.SpatialResource
	// FloorY is the world floor; an item falling below it is scheduled
	// for destruction (spec.md §4.4). Zero means the default floor.
	FloorY float64
}

// DefaultWorldFloorY applies when PhysicsSystem.FloorY is left zero.
const DefaultWorldFloorY = -64.0

func (s *PhysicsSystem) Name() string         { return "ItemPhysicsSystem" }
func (s *PhysicsSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *PhysicsSystem) Query() ecs.Query     { return itemPrePhysicsQuery }
func (s *PhysicsSystem) DependsOn() []string  { return nil }
func (s *PhysicsSystem) IsParallel() bool     { return false }
func (s *PhysicsSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.TransformType, components.VelocityType, components.ItemComponentType}
}

func (s *PhysicsSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	floorY := s.FloorY
	if floorY == 0 {
		floorY = DefaultWorldFloorY
	}
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()

			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
			box, _ := ecs.Get[components.BoundingBox](acc, components.BoundingBoxType)
			velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)
			pv, _ := ecs.Get[components.PhysicsValues](acc, components.PhysicsValuesType)
			item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)

			from := transform.Position
			to := from.Add(velocity.Linear.Scale(dt))

			result := components.CollisionResult{Kind: components.ContactNone}
			if s.Collision != nil {
				result = s.Collision.Sweep(box, from, to)
			}

			if result.Hit && result.Kind == components.ContactBlock {
				// Resolve to the contact point and damp the velocity
				// component along the contact normal so the item settles
				// instead of jittering on the surface.
				transform.Position = from.Add(to.Sub(from).Scale(result.TEnter))
				velocity.Linear = reflectAlongNormal(velocity.Linear, result.Normal, pv.Bounciness)
				if math.Abs(velocity.Linear.Y) < 0.05 && result.Normal.Y > 0 {
					velocity.Linear.Y = 0
				}
			} else {
				transform.Position = to
			}

			drag := pv.Drag
			if drag > 0 {
				factor := math.Max(0, 1-drag*dt)
				velocity.Linear = velocity.Linear.Scale(factor)
			}

			if pv.MaxSpeed > 0 {
				speed := math.Sqrt(velocity.Linear.X*velocity.Linear.X + velocity.Linear.Y*velocity.Linear.Y + velocity.Linear.Z*velocity.Linear.Z)
				if speed > pv.MaxSpeed {
					velocity.Linear = velocity.Linear.Scale(pv.MaxSpeed / speed)
				}
			}

			if item.PickupDelay > 0 {
				item.PickupDelay = math.Max(0, item.PickupDelay-dt)
			}
			if item.MergeDelay > 0 {
				item.MergeDelay = math.Max(0, item.MergeDelay-dt)
			}

			ecs.Set(acc, components.TransformType, transform)
			ecs.Set(acc, components.VelocityType, velocity)
			ecs.Set(acc, components.ItemComponentType, item)

			if transform.Position.Y < floorY {
				buf.DestroyEntity(ref)
				continue
			}

			if s.Spatial != nil {
				s.Spatial.NotifyMoved(ref, transform.Position)
			}
		}
	}
	return nil
}

// reflectAlongNormal reflects velocity off normal scaled by bounciness in
// [0,1]; bounciness 0 fully absorbs the normal component (a dead stop into
// the surface), 1 reflects it perfectly elastic.
func reflectAlongNormal(v, normal components.Vec3, bounciness float64) components.Vec3 {
	dot := v.X*normal.X + v.Y*normal.Y + v.Z*normal.Z
	if dot >= 0 {
		return v
	}
	reflected := v.Sub(normal.Scale(dot * (1 + bounciness)))
	return reflected
}
