// Package damage implements the four ordered system groups spec.md §4.6
// names (GatherDamage, FilterDamage, ApplyDamage, InspectDamage) over an
// ephemeral per-tick Damage record.
//
// Each call to ExecuteDamage spawns a short-lived record entity carrying a
// Record component rather than appending to a field on the target:
// CommandBuffer.AddComponent is last-writer-wins, so two GatherDamage
// systems hitting the same target in the same tick would otherwise
// silently clobber each other. A record entity survives exactly the tick
// it was created on (InspectDamage destroys it once side-channel effects
// are emitted) and is the "per-entity inbox structure" alternative spec.md
// §4.6 allows.
package damage

import (
	"github.com/embervoid/tickcore/internal/ecs"
)

// Record is the ephemeral per-tick Damage value spec.md §4.6 describes.
type Record struct {
	Target      ecs.Ref
	Source      ecs.Ref
	HasSource   bool
	Cause       string
	Amount      float64
	Zone        string
	HasZone     bool
	Cancelled   bool
	// Desynced records keep flowing through InspectDamage's side effects
	// but never touch Health; set by FilterUnkillable in desync mode.
	Desynced    bool
	Applied     bool
	FinalAmount float64
}

// RecordType is the registered component type for Record, attached only to
// ephemeral record entities created by ExecuteDamage.
var RecordType = ecs.RegisterComponent[Record]("damage_record")

// ExecuteDamage is the single entry point to inflict damage on a target
// addressed by Ref (spec.md §6). It is never synchronous: the record only
// becomes visible to FilterDamage's query after the current group's sync.
func ExecuteDamage(buf *ecs.CommandBuffer, target ecs.Ref, d Record) ecs.Ref {
	d.Target = target
	return buf.CreateEntity(ecs.C(RecordType, d))
}

// ExecuteDamageAt addresses the target by its current chunk and slot
// instead of by Ref — the second of spec.md §6's three executeDamage
// overloads, for callers iterating raw chunk/slot pairs.
func ExecuteDamageAt(buf *ecs.CommandBuffer, chunk *ecs.Chunk, slot int, d Record) ecs.Ref {
	return ExecuteDamage(buf, chunk.Ref(slot), d)
}

// ExecuteDamageAccessor addresses the target via an already-positioned
// ComponentAccessor — the third overload, for callers iterating with
// ecs.NewComponentAccessor rather than raw chunk/slot pairs.
func ExecuteDamageAccessor(buf *ecs.CommandBuffer, acc ecs.ComponentAccessor, d Record) ecs.Ref {
	return ExecuteDamage(buf, acc.Ref(), d)
}
