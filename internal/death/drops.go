package death

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/inventory"
)

// DroppedItemPickupDelay keeps freshly-dropped death items from being
// vacuumed back up in the same instant they spawn.
const DroppedItemPickupDelay = 2.0

// pendingDrops carries the stacks the config step decided to drop, read by
// DropPlayerDeathItemsSystem in the same event chain. It never survives
// past the chain: the drop step removes it again.
type pendingDrops struct {
	Stacks []components.ItemStack
}

var pendingDropsType = ecs.RegisterComponent[pendingDrops]("pending_death_drops")

// PlayerDropItemsConfigSystem is the config half of step 6: it reads the
// DeathComponent's item-loss ruleset and the player's held container and
// computes which stacks drop, without spawning anything itself.
type PlayerDropItemsConfigSystem struct{}

func (PlayerDropItemsConfigSystem) Name() string { return "PlayerDropItemsConfig" }
func (PlayerDropItemsConfigSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (PlayerDropItemsConfigSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	death, _ := ecs.GetComponent[components.DeathComponent](store, ref, components.DeathComponentType)
	if death.ItemLossRuleset == "keep_all" {
		return nil
	}

	held, ok := ecs.GetComponent[inventory.Held](store, ref, inventory.HeldType)
	if !ok || held.Container == nil {
		return nil
	}

	var drops []components.ItemStack
	for _, s := range held.Container.Slots() {
		if !s.IsEmpty() {
			drops = append(drops, s)
		}
	}
	if len(drops) == 0 {
		return nil
	}

	held.Container.Clear()
	ecs.AddComponent(buf, ref, pendingDropsType, pendingDrops{Stacks: drops})
	return nil
}

// DropPlayerDeathItemsSystem is the spawn half of step 6: it turns the
// stacks the config step computed into item entities at the death
// position, with a short pickup cooldown, and retires the pending-drops
// component.
type DropPlayerDeathItemsSystem struct{}

func (DropPlayerDeathItemsSystem) Name() string { return "DropPlayerDeathItems" }
func (DropPlayerDeathItemsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (DropPlayerDeathItemsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	pending, ok := ecs.GetComponent[pendingDrops](store, ref, pendingDropsType)
	if !ok {
		return nil
	}
	transform, _ := ecs.GetComponent[components.Transform](store, ref, components.TransformType)

	for _, stack := range pending.Stacks {
		buf.CreateEntity(
			ecs.C(components.ItemComponentType, components.ItemComponent{
				Stack:       stack,
				PickupDelay: DroppedItemPickupDelay,
				MergeDelay:  DroppedItemPickupDelay,
			}),
			ecs.C(components.TransformType, components.Transform{Position: transform.Position}),
			ecs.C(components.BoundingBoxType, components.BoundingBox{HalfExtents: components.Vec3{X: 0.25, Y: 0.25, Z: 0.25}}),
			ecs.C(components.VelocityType, components.Velocity{}),
			ecs.C(components.PhysicsValuesType, components.PhysicsValues{GravityScale: 1, Drag: 0.1, MaxSpeed: 40}),
		)
	}
	buf.RemoveComponent(ref, pendingDropsType)
	return nil
}
