package inventory

// ToParent translates tx's slot indices from a nested child container's
// coordinate space into the parent's, where the child occupies parent
// slots [childSlotStart, childSlotStart+childSize). It is pure: the input
// transaction is never mutated. The second return is false if no contained
// slot falls inside the child's range (spec.md §4.7).
func ToParent(tx Transaction, childSlotStart, childSize int) (Transaction, bool) {
	return remap(tx, func(slot int) (int, bool) {
		if slot < 0 || slot >= childSize {
			return 0, false
		}
		return slot + childSlotStart, true
	})
}

// FromParent is the inverse remapper: it translates a parent-space
// transaction into the child's coordinate space, keeping only slots that
// overlap the child's [parentSlotStart, parentSlotStart+childSize) window.
func FromParent(tx Transaction, parentSlotStart, childSize int) (Transaction, bool) {
	return remap(tx, func(slot int) (int, bool) {
		if slot < parentSlotStart || slot >= parentSlotStart+childSize {
			return 0, false
		}
		return slot - parentSlotStart, true
	})
}

// remap rebuilds tx with every slot index passed through translate.
// Sub-transactions whose slot falls outside the translated range are
// dropped; a transaction left with no surviving slot returns false.
func remap(tx Transaction, translate func(int) (int, bool)) (Transaction, bool) {
	switch t := tx.(type) {
	case SlotTransaction:
		return remapSlot(t, translate)

	case MaterialSlotTransaction:
		inner, ok := remapSlot(t.Inner, translate)
		if !ok {
			return nil, false
		}
		t.Inner = inner
		return t, true

	case ResourceSlotTransaction:
		inner, ok := remapSlot(t.Inner, translate)
		if !ok {
			return nil, false
		}
		t.Inner = inner
		return t, true

	case TagSlotTransaction:
		inner, ok := remapSlot(t.Inner, translate)
		if !ok {
			return nil, false
		}
		t.Inner = inner
		return t, true

	case ListTransaction:
		sub, any := remapList(t.Sub, translate)
		if !any {
			return nil, false
		}
		t.Sub = sub
		return t, true

	case ResourceTransaction:
		sub, any := remapList(t.Sub, translate)
		if !any {
			return nil, false
		}
		t.Sub = sub
		return t, true

	case TagTransaction:
		sub, any := remapList(t.Sub, translate)
		if !any {
			return nil, false
		}
		t.Sub = sub
		return t, true

	case MoveTransaction:
		remove, removeOK := remapSlot(t.Remove, translate)
		var add Transaction
		addOK := false
		if t.Add != nil {
			add, addOK = remap(t.Add, translate)
		}
		if !removeOK && !addOK {
			return nil, false
		}
		if removeOK {
			t.Remove = remove
		} else {
			t.Remove = SlotTransaction{Slot: -1}
		}
		if addOK {
			t.Add = add
		} else {
			t.Add = nil
		}
		return t, true

	default:
		return nil, false
	}
}

func remapSlot(t SlotTransaction, translate func(int) (int, bool)) (SlotTransaction, bool) {
	newSlot, ok := translate(t.Slot)
	if !ok {
		return SlotTransaction{}, false
	}
	t.Slot = newSlot
	return t, true
}

func remapList(sub []Transaction, translate func(int) (int, bool)) ([]Transaction, bool) {
	var out []Transaction
	for _, s := range sub {
		if r, ok := remap(s, translate); ok {
			out = append(out, r)
		}
	}
	return out, len(out) > 0
}
