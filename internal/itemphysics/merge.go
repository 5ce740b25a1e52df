package itemphysics

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// DefaultMergeRadius is the neighborhood radius ItemMergeSystem queries
// when no override is configured (spec.md §4.4).
const DefaultMergeRadius = 2.0

// mergeQuery excludes PreventItemMerging and Interactable so tagged items
// never participate (spec.md §4.4 "merge suppression").
var mergeQuery = itemPrePhysicsQuery.Exclude(components.PreventItemMergingType, components.InteractableType)

// MergeSystem runs serially, after PhysicsSystem, merging stackable item
// entities that have drifted within the merge radius of one another once their
// per-item MergeDelay has elapsed. The absorbed stack's entity is
// destroyed; the absorbing stack's Quantity grows, capped at the
// descriptor's maxStackSize (spec.md §4.4 step 5, scenario 2 and 3).
type MergeSystem struct {
	Spatial  collab.SpatialResource
	Registry collab.AssetRegistry
	Radius   float64
	Metrics  interface{ IncMerge() }
}

func (s *MergeSystem) Name() string         { return "ItemMergeSystem" }
func (s *MergeSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *MergeSystem) Query() ecs.Query     { return mergeQuery }
func (s *MergeSystem) DependsOn() []string  { return []string{"ItemPhysicsSystem"} }
func (s *MergeSystem) IsParallel() bool     { return false }
func (s *MergeSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.ItemComponentType}
}

func (s *MergeSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if s.Spatial == nil {
		return nil
	}
	radius := s.Radius
	if radius <= 0 {
		radius = DefaultMergeRadius
	}

	consumed := make(map[ecs.Ref]bool)

	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()
			if consumed[ref] {
				continue
			}

			item, _ := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
			if item.MergeDelay > 0 || item.Stack.IsEmpty() {
				continue
			}
			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)

			maxStack := uint16(0)
			if s.Registry != nil {
				if desc, ok := s.Registry.ItemDescriptor(item.Stack.DescriptorID); ok {
					maxStack = desc.MaxStackSize
				}
			}
			if maxStack == 0 {
				maxStack = ^uint16(0)
			}
			if item.Stack.Quantity >= maxStack {
				continue
			}

			neighbors := s.Spatial.Query(transform.Position, radius)
			for _, n := range neighbors {
				if n == ref || consumed[n] || consumed[ref] {
					continue
				}
				other, ok := findItemComponent(chunks, n)
				if !ok || other.item.MergeDelay > 0 || other.item.Stack.IsEmpty() {
					continue
				}
				if !item.Stack.StackableWith(other.item.Stack) {
					continue
				}

				room := maxStack - item.Stack.Quantity
				moved := other.item.Stack.Quantity
				if moved > room {
					moved = room
				}
				item.Stack.Quantity += moved
				other.item.Stack.Quantity -= moved
				ecs.Set(acc, components.ItemComponentType, item)

				if other.item.Stack.IsEmpty() {
					consumed[n] = true
					buf.DestroyEntity(n)
				} else {
					ecs.Set(other.accessor, components.ItemComponentType, other.item)
				}
				if s.Metrics != nil {
					s.Metrics.IncMerge()
				}
				if item.Stack.Quantity >= maxStack {
					break
				}
			}
		}
	}
	return nil
}

type neighborItem struct {
	item     components.ItemComponent
	accessor ecs.ComponentAccessor
}

// findItemComponent scans the already-fetched chunk list for ref's slot.
// ItemMergeSystem's own query is small enough in practice (item entities
// only) that a linear scan per neighbor is simpler than threading an
// index; see spec.md §4.4's note that merge is not a hot path.
func findItemComponent(chunks []*ecs.Chunk, ref ecs.Ref) (neighborItem, bool) {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			if chunk.Ref(slot) != ref {
				continue
			}
			acc := ecs.NewComponentAccessor(chunk, slot)
			item, ok := ecs.Get[components.ItemComponent](acc, components.ItemComponentType)
			if !ok {
				return neighborItem{}, false
			}
			return neighborItem{item: item, accessor: acc}, true
		}
	}
	return neighborItem{}, false
}
