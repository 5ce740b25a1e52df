// Package inventory implements the transactional inventory model of
// spec.md §4.7: every high-level container operation returns an immutable
// transaction value describing exactly which slots changed and how, so
// callers (packet writers, drop systems) can report fine-grained effects
// without re-diffing container state.
package inventory

import (
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// MaterialQuantity is a single-slot query: a descriptor + metadata pair and
// an amount to add or remove against one slot.
type MaterialQuantity struct {
	DescriptorID string
	Metadata     map[string]string
	Amount       int
}

// ResourceQuantity is a spanning query: a descriptor and an amount that may
// be satisfied across any number of slots.
type ResourceQuantity struct {
	DescriptorID string
	Amount       int
}

// Action distinguishes the two directions a composite transaction ran in.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
)

// MoveType distinguishes which side of a cross-container move a
// MoveTransaction describes.
type MoveType int

const (
	MoveToSelf MoveType = iota
	MoveFromSelf
)

// Transaction is the interface every transaction variant satisfies.
// Transactions are immutable value objects produced by the engine; callers
// inspect them and never construct them (spec.md §4.7).
type Transaction interface {
	// OK reports the transaction's asserted logical outcome. When false,
	// callers must treat sub-states as undefined and never write them to
	// clients.
	OK() bool
	// WasSlotModified reports whether this transaction (or any
	// sub-transaction) targets slot with before != after.
	WasSlotModified(slot int) bool
}

// SlotTransaction records the actual pre- and post-state of exactly one
// slot at the moment of the operation.
type SlotTransaction struct {
	Slot      int
	Before    components.ItemStack
	After     components.ItemStack
	Succeeded bool
}

// FailedAdd is the shared canonical failed SlotTransaction instance
// (spec.md §4.7). Its slot index is -1 so it never aliases a real slot.
var FailedAdd = SlotTransaction{Slot: -1}

func (t SlotTransaction) OK() bool { return t.Succeeded }

func (t SlotTransaction) WasSlotModified(slot int) bool {
	return t.Slot == slot && !stacksEqual(t.Before, t.After)
}

// MaterialSlotTransaction wraps the single-slot outcome of a material
// add/remove with the original query and the unplaced remainder.
type MaterialSlotTransaction struct {
	Inner     SlotTransaction
	Query     MaterialQuantity
	Remainder int
}

func (t MaterialSlotTransaction) OK() bool                     { return t.Inner.Succeeded }
func (t MaterialSlotTransaction) WasSlotModified(slot int) bool { return t.Inner.WasSlotModified(slot) }

// ResourceSlotTransaction is one slot's share of a spanning resource
// operation.
type ResourceSlotTransaction struct {
	Inner     SlotTransaction
	Query     ResourceQuantity
	Consumed  int
	Remainder int
}

func (t ResourceSlotTransaction) OK() bool                     { return t.Inner.Succeeded }
func (t ResourceSlotTransaction) WasSlotModified(slot int) bool { return t.Inner.WasSlotModified(slot) }

// TagSlotTransaction is one slot's share of a tag-indexed operation; Query
// is the tag index.
type TagSlotTransaction struct {
	Inner     SlotTransaction
	Query     int
	Remainder int
}

func (t TagSlotTransaction) OK() bool                     { return t.Inner.Succeeded }
func (t TagSlotTransaction) WasSlotModified(slot int) bool { return t.Inner.WasSlotModified(slot) }

// ListTransaction is a composite of N sub-transactions. Succeeded is an
// independently asserted logical outcome, not a reduction over Sub
// (spec.md §4.7, §9 open question — see DESIGN.md).
type ListTransaction struct {
	Succeeded bool
	Sub       []Transaction
}

func (t ListTransaction) OK() bool { return t.Succeeded }

func (t ListTransaction) WasSlotModified(slot int) bool {
	for _, sub := range t.Sub {
		if sub.WasSlotModified(slot) {
			return true
		}
	}
	return false
}

// MoveTransaction records a cross-container move: the removal on one side
// and the add on the other.
type MoveTransaction struct {
	Succeeded      bool
	Remove         SlotTransaction
	Add            Transaction
	MoveType       MoveType
	OtherContainer *Container
}

func (t MoveTransaction) OK() bool { return t.Succeeded }

func (t MoveTransaction) WasSlotModified(slot int) bool {
	if t.Remove.WasSlotModified(slot) {
		return true
	}
	return t.Add != nil && t.Add.WasSlotModified(slot)
}

// ResourceTransaction is the spanning-operation specialization of
// ListTransaction carrying the direction, original query and totals.
type ResourceTransaction struct {
	ListTransaction
	Action    Action
	Query     ResourceQuantity
	Consumed  int
	Remainder int
}

// TagTransaction is the tag-indexed specialization of ListTransaction.
type TagTransaction struct {
	ListTransaction
	Action    Action
	Query     int
	Consumed  int
	Remainder int
}

func stacksEqual(a, b components.ItemStack) bool {
	if a.DescriptorID != b.DescriptorID || a.Quantity != b.Quantity || a.Durability != b.Durability {
		return false
	}
	if len(a.Metadata) != len(b.Metadata) {
		return false
	}
	for k, v := range a.Metadata {
		if b.Metadata[k] != v {
			return false
		}
	}
	return true
}
