package inventory

import (
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// Held attaches a Container to an entity. The component holds a pointer:
// container contents are mutated only through the transactional operations,
// and only from serial systems or the RefChange phase, so the usual
// plain-value component discipline is preserved for the slot data itself.
type Held struct {
	Container *Container
}

var HeldType = ecs.RegisterComponent[Held]("inventory_held")

// Deposit adds stack into the container held by target, returning the
// residual that did not fit. ok is false when target holds no container at
// all — the caller should leave the item entity in the world.
func Deposit(store *ecs.Store, target ecs.Ref, stack components.ItemStack) (residual components.ItemStack, ok bool) {
	held, found := ecs.GetComponent[Held](store, target, HeldType)
	if !found || held.Container == nil {
		return stack, false
	}
	tx := held.Container.AddStack(stack)
	if tx.Remainder == 0 {
		return components.ItemStack{}, true
	}
	residual = stack
	residual.Quantity = uint16(tx.Remainder)
	return residual, true
}
