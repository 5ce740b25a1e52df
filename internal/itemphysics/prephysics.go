// Package itemphysics implements the three cooperating item-entity
// physics systems spec.md §4.4 names: ItemPrePhysicsSystem,
// ItemPhysicsSystem and ItemMergeSystem, plus PickupItemSystem.
package itemphysics

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupPrePhysics, GroupPhysics and GroupPhysicsPost are the system-group
// names spec.md §4.4 assigns each system to.
const (
	GroupPrePhysics = "Physics.PrePhysics"
	GroupPhysics    = "Physics"
	GroupPhysicsPost = "Physics.Post"
)

// PrePhysicsSystem runs first, in parallel: it un-sticks item entities
// embedded in solid voxels and integrates gravity into Velocity
// (spec.md §4.4).
type PrePhysicsSystem struct {
	Collision collab.CollisionModule
	Gravity   float64
}

var itemPrePhysicsQuery = ecs.NewQuery(
	components.ItemComponentType,
	components.TransformType,
	components.BoundingBoxType,
	components.VelocityType,
	components.PhysicsValuesType,
)

func (s *PrePhysicsSystem) Name() string          { return "ItemPrePhysicsSystem" }
func (s *PrePhysicsSystem) Kind() ecs.SystemKind  { return ecs.EntityTicking }
func (s *PrePhysicsSystem) Query() ecs.Query      { return itemPrePhysicsQuery }
func (s *PrePhysicsSystem) DependsOn() []string   { return nil }
func (s *PrePhysicsSystem) IsParallel() bool      { return true }
func (s *PrePhysicsSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.TransformType, components.VelocityType}
}

func (s *PrePhysicsSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)

			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
			box, _ := ecs.Get[components.BoundingBox](acc, components.BoundingBoxType)
			velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)
			pv, _ := ecs.Get[components.PhysicsValues](acc, components.PhysicsValuesType)

			if s.Collision != nil {
				if delta, stuck := s.Collision.Overlaps(box, transform.Position); stuck {
					transform.Position = transform.Position.Add(delta)
				}
			}

			gravityScale := pv.GravityScale
			if gravityScale == 0 {
				gravityScale = 1
			}
			velocity.Linear.Y -= s.Gravity * gravityScale * dt

			ecs.Set(acc, components.TransformType, transform)
			ecs.Set(acc, components.VelocityType, velocity)
		}
	}
	return nil
}
