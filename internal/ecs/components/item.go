package components

import "github.com/embervoid/tickcore/internal/ecs"

// ItemStack is the descriptor+quantity+durability+metadata tuple spec.md
// §3 defines. maxStackSize lives on the descriptor (resolved through
// AssetRegistry), not on the stack itself.
type ItemStack struct {
	DescriptorID string
	Quantity     uint16
	Durability   int32
	Metadata     map[string]string
}

// IsEmpty reports whether the stack carries no items.
func (s ItemStack) IsEmpty() bool { return s.Quantity == 0 }

// StackableWith reports whether s and other can be merged: equal
// descriptor and metadata (spec.md §3 "two stacks are stackable iff
// descriptor + metadata are equal").
func (s ItemStack) StackableWith(other ItemStack) bool {
	if s.DescriptorID != other.DescriptorID {
		return false
	}
	return metadataEqual(s.Metadata, other.Metadata)
}

func metadataEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// ItemComponent is the component an item entity carries: its ItemStack
// plus the cooldown timers and network-dirty flag spec.md §3 names.
type ItemComponent struct {
	Stack          ItemStack
	PickupDelay    float64
	MergeDelay     float64
	PickupThrottle float64
	NetworkDirty   bool
	PickupRadius   float64 // lazily resolved; 0 means "use default"
}

// PickupItemComponent drives the short interpolated "fly to owner"
// animation described in spec.md §4.4.
type PickupItemComponent struct {
	Target          ecs.Ref
	StartPosition   Vec3
	InitialLifetime float64
	LifeTime        float64
	Finished        bool
}

var (
	ItemComponentType       = ecs.RegisterComponent[ItemComponent]("item")
	PickupItemComponentType = ecs.RegisterComponent[PickupItemComponent]("pickup_item")
)
