package codec

import (
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// ItemComponentSchema is the codec descriptor for ItemComponent, the
// first of the two round-tripping components spec.md §6 names.
var ItemComponentSchema = Schema{
	Name: "item",
	Fields: []Field{
		{Name: "quantity", Type: FieldU16},
		{Name: "durability", Type: FieldI32},
		{Name: "pickup_delay", Type: FieldF64},
		{Name: "merge_delay", Type: FieldF64},
		{Name: "pickup_throttle", Type: FieldF64},
		{Name: "network_dirty", Type: FieldBool},
		{Name: "pickup_radius", Type: FieldF64, Optional: true, Default: float64(0)},
		{Name: "descriptor_id", Type: FieldString},
		{Name: "metadata", Type: FieldStringMap, Optional: true},
	},
}

// DeathComponentSchema is the codec descriptor for DeathComponent.
var DeathComponentSchema = Schema{
	Name: "death",
	Fields: []Field{
		{Name: "fatal_amount", Type: FieldF64},
		{Name: "fatal_source_index", Type: FieldU32, Optional: true},
		{Name: "fatal_source_generation", Type: FieldU32, Optional: true},
		{Name: "cause", Type: FieldString},
		{Name: "fatal_cause", Type: FieldString},
		{Name: "fatal_zone", Type: FieldString, Optional: true, Default: ""},
		{Name: "item_loss_ruleset", Type: FieldString, Optional: true, Default: ""},
	},
}

// EncodeItemComponent serializes an ItemComponent with the schema framing.
func EncodeItemComponent(item components.ItemComponent) ([]byte, error) {
	values := Values{
		"quantity":        item.Stack.Quantity,
		"durability":      item.Stack.Durability,
		"pickup_delay":    item.PickupDelay,
		"merge_delay":     item.MergeDelay,
		"pickup_throttle": item.PickupThrottle,
		"network_dirty":   item.NetworkDirty,
		"descriptor_id":   item.Stack.DescriptorID,
	}
	if item.PickupRadius != 0 {
		values["pickup_radius"] = item.PickupRadius
	}
	if len(item.Stack.Metadata) > 0 {
		values["metadata"] = item.Stack.Metadata
	}
	return Marshal(ItemComponentSchema, values)
}

// DecodeItemComponent is the inverse of EncodeItemComponent.
func DecodeItemComponent(data []byte) (components.ItemComponent, error) {
	values, err := Unmarshal(ItemComponentSchema, data)
	if err != nil {
		return components.ItemComponent{}, err
	}
	item := components.ItemComponent{
		Stack: components.ItemStack{
			DescriptorID: values["descriptor_id"].(string),
			Quantity:     values["quantity"].(uint16),
			Durability:   values["durability"].(int32),
		},
		PickupDelay:    values["pickup_delay"].(float64),
		MergeDelay:     values["merge_delay"].(float64),
		PickupThrottle: values["pickup_throttle"].(float64),
		NetworkDirty:   values["network_dirty"].(bool),
		PickupRadius:   values["pickup_radius"].(float64),
	}
	if m, ok := values["metadata"].(map[string]string); ok {
		item.Stack.Metadata = m
	}
	return item, nil
}

// EncodeDeathComponent serializes a DeathComponent with the schema framing.
func EncodeDeathComponent(d components.DeathComponent) ([]byte, error) {
	values := Values{
		"fatal_amount": d.FatalDamage.Amount,
		"cause":        d.Cause,
		"fatal_cause":  d.FatalDamage.Cause,
	}
	if d.FatalDamage.HasSource {
		values["fatal_source_index"] = d.FatalDamage.SourceRef.Index
		values["fatal_source_generation"] = d.FatalDamage.SourceRef.Generation
	}
	if d.FatalDamage.Zone != "" {
		values["fatal_zone"] = d.FatalDamage.Zone
	}
	if d.ItemLossRuleset != "" {
		values["item_loss_ruleset"] = d.ItemLossRuleset
	}
	return Marshal(DeathComponentSchema, values)
}

// DecodeDeathComponent is the inverse of EncodeDeathComponent.
func DecodeDeathComponent(data []byte) (components.DeathComponent, error) {
	values, err := Unmarshal(DeathComponentSchema, data)
	if err != nil {
		return components.DeathComponent{}, err
	}
	d := components.DeathComponent{
		Cause: values["cause"].(string),
		FatalDamage: components.DamageSnapshot{
			Cause:  values["fatal_cause"].(string),
			Amount: values["fatal_amount"].(float64),
			Zone:   values["fatal_zone"].(string),
		},
		ItemLossRuleset: values["item_loss_ruleset"].(string),
	}
	if idx, ok := values["fatal_source_index"].(uint32); ok {
		gen, _ := values["fatal_source_generation"].(uint32)
		d.FatalDamage.SourceRef = ecs.Ref{Index: idx, Generation: gen}
		d.FatalDamage.HasSource = true
	}
	return d, nil
}
