package itemphysics

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// ResidualPickupDelay is the cooldown stamped on an item entity re-dropped
// because the pickup target's inventory was full (spec.md §4.4).
const ResidualPickupDelay = 1.5

var pickupAnimQuery = ecs.NewQuery(
	components.PickupItemComponentType,
	components.ItemComponentType,
	components.TransformType,
)

// PickupAnimationSystem drives the short interpolated "fly to owner"
// animation (spec.md §4.4 PickupItemSystem): each tick it moves the item
// from its start position toward the target's current position, and when
// the lifetime elapses it transfers the stack into the target's inventory
// and destroys the item entity.
//
// Deposit is the inventory seam: it credits stack to target and returns
// the residual that did not fit plus whether target holds an inventory at
// all. world wiring binds it to inventory.Deposit.
type PickupAnimationSystem struct {
	Deposit func(store *ecs.Store, target ecs.Ref, stack components.ItemStack) (components.ItemStack, bool)
	Metrics interface{ IncPickup() }
}

func (s *PickupAnimationSystem) Name() string         { return "PickupItemAnimationSystem" }
func (s *PickupAnimationSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *PickupAnimationSystem) Query() ecs.Query     { return pickupAnimQuery }
func (s *PickupAnimationSystem) DependsOn() []string { return nil }

// Serial: two items can fly to the same owner, and crediting a shared
// container is non-commutative, so completing transfers must not race.
func (s *PickupAnimationSystem) IsParallel() bool { return false }
func (s *PickupAnimationSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.TransformType, components.PickupItemComponentType}
}

func (s *PickupAnimationSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()

			pickup, _ := ecs.Get[components.PickupItemComponent](acc, components.PickupItemComponentType)
			if pickup.Finished {
				continue
			}

			// Target destroyed mid-animation: no transfer.
			targetTransform, targetAlive := ecs.GetComponent[components.Transform](store, pickup.Target, components.TransformType)
			if !targetAlive {
				buf.DestroyEntity(ref)
				continue
			}

			pickup.LifeTime -= dt

			if pickup.LifeTime > 0 {
				progress := 0.0
				if pickup.InitialLifetime > 0 {
					progress = (pickup.InitialLifetime - pickup.LifeTime) / pickup.InitialLifetime
				}
				transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
				delta := targetTransform.Position.Sub(pickup.StartPosition)
				transform.Position = pickup.StartPosition.Add(delta.Scale(progress))
				ecs.Set(acc, components.TransformType, transform)
				ecs.Set(acc, components.PickupItemComponentType, pickup)
				continue
			}

			pickup.Finished = true
			ecs.Set(acc, components.PickupItemComponentType, pickup)

			item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
			if s.Deposit != nil {
				residual, hasInventory := s.Deposit(store, pickup.Target, item.Stack)
				if hasInventory && !residual.IsEmpty() {
					// Inventory full: the spill re-enters the world at the
					// target's feet with a short pickup cooldown.
					buf.CreateEntity(
						ecs.C(components.ItemComponentType, components.ItemComponent{
							Stack:       residual,
							PickupDelay: ResidualPickupDelay,
							MergeDelay:  ResidualPickupDelay,
						}),
						ecs.C(components.TransformType, components.Transform{Position: targetTransform.Position}),
						ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}),
						ecs.C(components.VelocityType, components.Velocity{}),
						ecs.C(components.PhysicsValuesType, components.PhysicsValues{GravityScale: 1, Drag: 0.1, MaxSpeed: 40}),
					)
				}
			}
			if s.Metrics != nil {
				s.Metrics.IncPickup()
			}
			buf.DestroyEntity(ref)
		}
	}
	return nil
}
