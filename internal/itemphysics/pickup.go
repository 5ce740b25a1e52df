package itemphysics

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// DefaultPickupRadius is used when an item's ItemComponent.PickupRadius is
// left at its zero value (spec.md §4.4).
const DefaultPickupRadius = 1.5

// Items already flying to an owner (PickupItemComponent attached) are out
// of scope here; PickupAnimationSystem owns them.
var pickupQuery = itemPrePhysicsQuery.Exclude(
	components.PreventPickupType,
	components.InteractableType,
	components.PickupItemComponentType,
)

// PickupSystem runs in the Physics.Post group, in parallel: for each
// eligible item whose PickupDelay has elapsed, it queries nearby
// entities via SpatialResource and offers the item to each of them in
// turn through Collector (spec.md §4.4 step 6).
//
// The inventory-credit side of a pickup is delegated to Collector so this
// package does not depend on internal/inventory directly. When Collector
// returns true, PickupSystem records the item's destruction and stops;
// when it returns false, the item is not destroyed here and the next
// nearby entity is offered it.
type PickupSystem struct {
	Spatial       collab.SpatialResource
	Collector     func(buf *ecs.CommandBuffer, item ecs.Ref, stack components.ItemStack, collector ecs.Ref) bool
	DefaultRadius float64
	Metrics       interface{ IncPickup() }
}

func (s *PickupSystem) Name() string         { return "PickupItemSystem" }
func (s *PickupSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *PickupSystem) Query() ecs.Query     { return pickupQuery }
func (s *PickupSystem) DependsOn() []string  { return nil }
func (s *PickupSystem) IsParallel() bool     { return true }
func (s *PickupSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.ItemComponentType}
}

func (s *PickupSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if s.Spatial == nil || s.Collector == nil {
		return nil
	}

	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()

			item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
			if item.PickupDelay > 0 || item.Stack.IsEmpty() {
				continue
			}
			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)

			radius := item.PickupRadius
			if radius == 0 {
				radius = s.DefaultRadius
			}
			if radius == 0 {
				radius = DefaultPickupRadius
			}

			for _, candidate := range s.Spatial.Query(transform.Position, radius) {
				if candidate == ref {
					continue
				}
				if s.Collector(buf, ref, item.Stack, candidate) {
					buf.DestroyEntity(ref)
					if s.Metrics != nil {
						s.Metrics.IncPickup()
					}
					break
				}
			}
		}
	}
	return nil
}
