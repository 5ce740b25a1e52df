package inventory

import (
	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// DefaultMaxStackSize applies when a descriptor is unknown to the
// registry; maxStackSize is a descriptor property, never a stack property
// (spec.md §3).
const DefaultMaxStackSize = 64

// Container is a fixed-size slot array plus the descriptor registry used
// to resolve stack-size limits and tag membership. All operations return
// transactions; a transaction with OK() == false guarantees the container
// state is as if the operation never happened (spec.md §4.7 full-rollback
// invariant).
type Container struct {
	slots    []components.ItemStack
	registry collab.AssetRegistry
}

// NewContainer builds an empty container of size slots.
func NewContainer(size int, registry collab.AssetRegistry) *Container {
	return &Container{slots: make([]components.ItemStack, size), registry: registry}
}

// Size returns the number of slots.
func (c *Container) Size() int { return len(c.slots) }

// Slot returns a copy of the stack at slot i, or an empty stack for an
// out-of-range index.
func (c *Container) Slot(i int) components.ItemStack {
	if i < 0 || i >= len(c.slots) {
		return components.ItemStack{}
	}
	return c.slots[i]
}

// SetSlot overwrites slot i directly, bypassing the transaction model.
// It exists for container bootstrap (loading a saved inventory, seeding
// tests); tick-path code goes through the transactional operations.
func (c *Container) SetSlot(i int, s components.ItemStack) {
	if i >= 0 && i < len(c.slots) {
		c.slots[i] = s
	}
}

// Slots returns a copy of every slot, used by death-drop computation.
func (c *Container) Slots() []components.ItemStack {
	return append([]components.ItemStack(nil), c.slots...)
}

// Clear empties every slot.
func (c *Container) Clear() {
	for i := range c.slots {
		c.slots[i] = components.ItemStack{}
	}
}

func (c *Container) maxStack(descriptorID string) int {
	if c.registry != nil {
		if desc, ok := c.registry.ItemDescriptor(descriptorID); ok && desc.MaxStackSize > 0 {
			return int(desc.MaxStackSize)
		}
	}
	return DefaultMaxStackSize
}

func (c *Container) hasTag(descriptorID string, tag int) bool {
	if c.registry == nil {
		return false
	}
	desc, ok := c.registry.ItemDescriptor(descriptorID)
	if !ok {
		return false
	}
	for _, t := range desc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddMaterial places up to Query.Amount of the queried material into a
// single slot: the first compatible existing stack with room, else the
// first empty slot (spec.md §4.7 "stacking prefers existing compatible
// stacks before empty slots").
func (c *Container) AddMaterial(q MaterialQuantity) MaterialSlotTransaction {
	want := components.ItemStack{DescriptorID: q.DescriptorID, Metadata: q.Metadata}
	max := c.maxStack(q.DescriptorID)

	slot := -1
	for i, s := range c.slots {
		if !s.IsEmpty() && s.StackableWith(want) && int(s.Quantity) < max {
			slot = i
			break
		}
	}
	if slot < 0 {
		for i, s := range c.slots {
			if s.IsEmpty() {
				slot = i
				break
			}
		}
	}
	if slot < 0 || q.Amount <= 0 {
		return MaterialSlotTransaction{Inner: FailedAdd, Query: q, Remainder: q.Amount}
	}

	before := c.slots[slot]
	placed := min(q.Amount, max-int(before.Quantity))
	if placed <= 0 {
		return MaterialSlotTransaction{Inner: FailedAdd, Query: q, Remainder: q.Amount}
	}

	after := before
	if after.IsEmpty() {
		after = components.ItemStack{DescriptorID: q.DescriptorID, Metadata: q.Metadata}
	}
	after.Quantity += uint16(placed)
	c.slots[slot] = after

	return MaterialSlotTransaction{
		Inner:     SlotTransaction{Slot: slot, Before: before, After: after, Succeeded: true},
		Query:     q,
		Remainder: q.Amount - placed,
	}
}

// RemoveMaterial removes up to Query.Amount of the queried material from
// the first matching slot.
func (c *Container) RemoveMaterial(q MaterialQuantity) MaterialSlotTransaction {
	want := components.ItemStack{DescriptorID: q.DescriptorID, Metadata: q.Metadata}

	for i, s := range c.slots {
		if s.IsEmpty() || !s.StackableWith(want) {
			continue
		}
		before := s
		taken := min(q.Amount, int(s.Quantity))
		after := before
		after.Quantity -= uint16(taken)
		if after.Quantity == 0 {
			after = components.ItemStack{}
		}
		c.slots[i] = after
		return MaterialSlotTransaction{
			Inner:     SlotTransaction{Slot: i, Before: before, After: after, Succeeded: true},
			Query:     q,
			Remainder: q.Amount - taken,
		}
	}
	return MaterialSlotTransaction{Inner: FailedAdd, Query: q, Remainder: q.Amount}
}

// AddResource spans the add across slots: first topping up compatible
// stacks left-to-right, then filling empty slots, until Query.Amount is
// placed or the container is out of room. Partial fulfillment is allowed;
// callers read Remainder to see if spill must be dropped as an item entity
// (spec.md §4.7).
func (c *Container) AddResource(q ResourceQuantity) ResourceTransaction {
	return c.addStack(components.ItemStack{DescriptorID: q.DescriptorID}, q)
}

// AddStack is AddResource for a concrete stack, preserving its metadata
// and durability on any newly-created slot stacks. Used by pickup deposit
// and cross-container moves.
func (c *Container) AddStack(stack components.ItemStack) ResourceTransaction {
	return c.addStack(stack, ResourceQuantity{DescriptorID: stack.DescriptorID, Amount: int(stack.Quantity)})
}

func (c *Container) addStack(proto components.ItemStack, q ResourceQuantity) ResourceTransaction {
	max := c.maxStack(proto.DescriptorID)
	remaining := q.Amount

	var sub []Transaction
	fill := func(i int) {
		if remaining <= 0 {
			return
		}
		before := c.slots[i]
		room := max - int(before.Quantity)
		if room <= 0 {
			return
		}
		placed := min(remaining, room)
		after := before
		if after.IsEmpty() {
			after = proto
			after.Quantity = 0
		}
		after.Quantity += uint16(placed)
		c.slots[i] = after
		remaining -= placed
		sub = append(sub, ResourceSlotTransaction{
			Inner:    SlotTransaction{Slot: i, Before: before, After: after, Succeeded: true},
			Query:    q,
			Consumed: placed,
		})
	}

	match := proto
	for i, s := range c.slots {
		if !s.IsEmpty() && s.StackableWith(match) {
			fill(i)
		}
	}
	for i, s := range c.slots {
		if s.IsEmpty() {
			fill(i)
		}
	}

	consumed := q.Amount - remaining
	return ResourceTransaction{
		ListTransaction: ListTransaction{Succeeded: consumed > 0, Sub: sub},
		Action:          ActionAdd,
		Query:           q,
		Consumed:        consumed,
		Remainder:       remaining,
	}
}

// RemoveResource drains the queried descriptor from slots left-to-right
// until Query.Amount is removed or the container holds no more of it.
func (c *Container) RemoveResource(q ResourceQuantity) ResourceTransaction {
	remaining := q.Amount
	var sub []Transaction

	for i, s := range c.slots {
		if remaining <= 0 {
			break
		}
		if s.IsEmpty() || s.DescriptorID != q.DescriptorID {
			continue
		}
		before := s
		taken := min(remaining, int(s.Quantity))
		after := before
		after.Quantity -= uint16(taken)
		if after.Quantity == 0 {
			after = components.ItemStack{}
		}
		c.slots[i] = after
		remaining -= taken
		sub = append(sub, ResourceSlotTransaction{
			Inner:    SlotTransaction{Slot: i, Before: before, After: after, Succeeded: true},
			Query:    q,
			Consumed: taken,
		})
	}

	consumed := q.Amount - remaining
	return ResourceTransaction{
		ListTransaction: ListTransaction{Succeeded: consumed > 0, Sub: sub},
		Action:          ActionRemove,
		Query:           q,
		Consumed:        consumed,
		Remainder:       remaining,
	}
}

// AddByTag tops up existing stacks whose descriptor carries tag, left to
// right. With allOrNothing set, a nonzero remainder rolls the whole
// operation back and returns Succeeded=false with the container unchanged
// (spec.md §4.7 "allOrNothing flag on tag-based ops").
func (c *Container) AddByTag(tag, amount int, allOrNothing bool) TagTransaction {
	snapshot := c.Slots()
	remaining := amount
	var sub []Transaction

	for i, s := range c.slots {
		if remaining <= 0 {
			break
		}
		if s.IsEmpty() || !c.hasTag(s.DescriptorID, tag) {
			continue
		}
		max := c.maxStack(s.DescriptorID)
		room := max - int(s.Quantity)
		if room <= 0 {
			continue
		}
		before := s
		placed := min(remaining, room)
		after := before
		after.Quantity += uint16(placed)
		c.slots[i] = after
		remaining -= placed
		sub = append(sub, TagSlotTransaction{
			Inner: SlotTransaction{Slot: i, Before: before, After: after, Succeeded: true},
			Query: tag,
		})
	}

	consumed := amount - remaining
	if allOrNothing && remaining > 0 {
		copy(c.slots, snapshot)
		return TagTransaction{
			ListTransaction: ListTransaction{Succeeded: false},
			Action:          ActionAdd,
			Query:           tag,
			Consumed:        0,
			Remainder:       amount,
		}
	}
	return TagTransaction{
		ListTransaction: ListTransaction{Succeeded: consumed > 0, Sub: sub},
		Action:          ActionAdd,
		Query:           tag,
		Consumed:        consumed,
		Remainder:       remaining,
	}
}

// RemoveByTag drains stacks whose descriptor carries tag, left to right,
// with the same allOrNothing rollback contract as AddByTag.
func (c *Container) RemoveByTag(tag, amount int, allOrNothing bool) TagTransaction {
	snapshot := c.Slots()
	remaining := amount
	var sub []Transaction

	for i, s := range c.slots {
		if remaining <= 0 {
			break
		}
		if s.IsEmpty() || !c.hasTag(s.DescriptorID, tag) {
			continue
		}
		before := s
		taken := min(remaining, int(s.Quantity))
		after := before
		after.Quantity -= uint16(taken)
		if after.Quantity == 0 {
			after = components.ItemStack{}
		}
		c.slots[i] = after
		remaining -= taken
		sub = append(sub, TagSlotTransaction{
			Inner: SlotTransaction{Slot: i, Before: before, After: after, Succeeded: true},
			Query: tag,
		})
	}

	consumed := amount - remaining
	if allOrNothing && remaining > 0 {
		copy(c.slots, snapshot)
		return TagTransaction{
			ListTransaction: ListTransaction{Succeeded: false},
			Action:          ActionRemove,
			Query:           tag,
			Consumed:        0,
			Remainder:       amount,
		}
	}
	return TagTransaction{
		ListTransaction: ListTransaction{Succeeded: consumed > 0, Sub: sub},
		Action:          ActionRemove,
		Query:           tag,
		Consumed:        consumed,
		Remainder:       remaining,
	}
}

// MoveFrom pulls up to amount items out of source's sourceSlot into this
// container. Only what this container actually accepts leaves the source —
// a partial add never strands items in transit.
func (c *Container) MoveFrom(source *Container, sourceSlot, amount int) MoveTransaction {
	if source == nil || sourceSlot < 0 || sourceSlot >= source.Size() {
		return MoveTransaction{Remove: FailedAdd, MoveType: MoveToSelf, OtherContainer: source}
	}
	stack := source.slots[sourceSlot]
	if stack.IsEmpty() || amount <= 0 {
		return MoveTransaction{Remove: FailedAdd, MoveType: MoveToSelf, OtherContainer: source}
	}

	offered := stack
	offered.Quantity = uint16(min(amount, int(stack.Quantity)))

	add := c.AddStack(offered)
	if add.Consumed == 0 {
		return MoveTransaction{Remove: FailedAdd, Add: add, MoveType: MoveToSelf, OtherContainer: source}
	}

	before := source.slots[sourceSlot]
	after := before
	after.Quantity -= uint16(add.Consumed)
	if after.Quantity == 0 {
		after = components.ItemStack{}
	}
	source.slots[sourceSlot] = after

	return MoveTransaction{
		Succeeded:      true,
		Remove:         SlotTransaction{Slot: sourceSlot, Before: before, After: after, Succeeded: true},
		Add:            add,
		MoveType:       MoveToSelf,
		OtherContainer: source,
	}
}

// Swap exchanges the contents of slotA and slotB.
func (c *Container) Swap(slotA, slotB int) ListTransaction {
	if slotA < 0 || slotA >= len(c.slots) || slotB < 0 || slotB >= len(c.slots) || slotA == slotB {
		return ListTransaction{}
	}
	a, b := c.slots[slotA], c.slots[slotB]
	c.slots[slotA], c.slots[slotB] = b, a
	return ListTransaction{
		Succeeded: true,
		Sub: []Transaction{
			SlotTransaction{Slot: slotA, Before: a, After: b, Succeeded: true},
			SlotTransaction{Slot: slotB, Before: b, After: a, Succeeded: true},
		},
	}
}
