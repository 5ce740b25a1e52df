package damage

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupFilterDamage is the second damage system group (spec.md §4.6). It
// is serial in practice because its systems share a write-set on
// RecordType, per spec.md §4.3's parallel-execution rule. Declared order:
// armor reduction, invulnerability window, PvP rules, unkillable filter.
const GroupFilterDamage = "FilterDamage"

var recordQuery = ecs.NewQuery(RecordType)

// ArmorFilterSystem reduces Amount by the target's armor stat, reading
// Health's stat map for StatArmor (spec.md §4.6 "armor reduction").
type ArmorFilterSystem struct {
	Store *ecs.Store
}

func (s *ArmorFilterSystem) Name() string         { return "ArmorFilterSystem" }
func (s *ArmorFilterSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *ArmorFilterSystem) Query() ecs.Query     { return recordQuery }
func (s *ArmorFilterSystem) DependsOn() []string  { return nil }
func (s *ArmorFilterSystem) IsParallel() bool     { return false }
func (s *ArmorFilterSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{RecordType}
}

func (s *ArmorFilterSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)
			if record.Cancelled {
				continue
			}
			health, ok := ecs.GetComponent[components.Health](store, record.Target, components.HealthType)
			if !ok {
				continue
			}
			armor := health.Get(components.StatArmor)
			if armor <= 0 {
				continue
			}
			reduction := armor * 0.04
			if reduction > 0.8 {
				reduction = 0.8
			}
			record.Amount *= 1 - reduction
			ecs.Set(acc, RecordType, record)
		}
	}
	return nil
}

// InvulnerabilityWindowSystem cancels damage against targets inside a
// post-hit grace window (spec.md §4.6 "invulnerability window"). The
// window itself is ticked down by InvulnerabilityTickSystem in the gather
// group.
type InvulnerabilityWindowSystem struct {
	Store *ecs.Store
}

func (s *InvulnerabilityWindowSystem) Name() string         { return "InvulnerabilityWindowSystem" }
func (s *InvulnerabilityWindowSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *InvulnerabilityWindowSystem) Query() ecs.Query     { return recordQuery }
func (s *InvulnerabilityWindowSystem) DependsOn() []string  { return []string{"ArmorFilterSystem"} }
func (s *InvulnerabilityWindowSystem) IsParallel() bool     { return false }
func (s *InvulnerabilityWindowSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{RecordType}
}

func (s *InvulnerabilityWindowSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)
			if record.Cancelled {
				continue
			}
			inv, ok := ecs.GetComponent[components.Invulnerability](store, record.Target, components.InvulnerabilityType)
			if !ok || inv.RemainingSeconds <= 0 {
				continue
			}
			record.Cancelled = true
			ecs.Set(acc, RecordType, record)
		}
	}
	return nil
}

// PvPRulesSystem cancels player-on-player damage while PvP is disabled
// (spec.md §4.6 "PvP rules"). AllowPvP is read each tick like the other
// between-ticks debug flags.
type PvPRulesSystem struct {
	Store    *ecs.Store
	AllowPvP func() bool
}

func (s *PvPRulesSystem) Name() string         { return "PvPRulesSystem" }
func (s *PvPRulesSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *PvPRulesSystem) Query() ecs.Query     { return recordQuery }
func (s *PvPRulesSystem) DependsOn() []string  { return []string{"InvulnerabilityWindowSystem"} }
func (s *PvPRulesSystem) IsParallel() bool     { return false }
func (s *PvPRulesSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{RecordType}
}

func (s *PvPRulesSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if s.AllowPvP == nil || s.AllowPvP() {
		return nil
	}
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)
			if record.Cancelled || !record.HasSource {
				continue
			}
			if !store.HasComponent(record.Source, components.PlayerMetadataType) ||
				!store.HasComponent(record.Target, components.PlayerMetadataType) {
				continue
			}
			record.Cancelled = true
			ecs.Set(acc, RecordType, record)
		}
	}
	return nil
}

// UnkillableFilterSystem cancels damage against targets carrying the
// Unkillable tag. The Desync debug flag bypasses this step entirely and
// instead marks every surviving record Desynced: the record keeps flowing
// (InspectDamage still emits its side effects) but ApplyDamage skips the
// health write — "lets damage through but cancels effect" (spec.md §9,
// resolution in DESIGN.md).
type UnkillableFilterSystem struct {
	Store  *ecs.Store
	Desync func() bool
}

func (s *UnkillableFilterSystem) Name() string         { return "FilterUnkillable" }
func (s *UnkillableFilterSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *UnkillableFilterSystem) Query() ecs.Query     { return recordQuery }
func (s *UnkillableFilterSystem) DependsOn() []string  { return []string{"PvPRulesSystem"} }
func (s *UnkillableFilterSystem) IsParallel() bool     { return false }
func (s *UnkillableFilterSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{RecordType}
}

func (s *UnkillableFilterSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	desync := s.Desync != nil && s.Desync()
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)
			if record.Cancelled {
				continue
			}
			if desync {
				record.Desynced = true
				ecs.Set(acc, RecordType, record)
				continue
			}
			if store.HasComponent(record.Target, components.UnkillableType) {
				record.Cancelled = true
				ecs.Set(acc, RecordType, record)
			}
		}
	}
	return nil
}

var invulnerabilityQuery = ecs.NewQuery(components.InvulnerabilityType)

// InvulnerabilityTickSystem counts the grace window down and removes the
// component once it expires. It runs in the gather group, before the
// filter systems read the window.
type InvulnerabilityTickSystem struct{}

func (s *InvulnerabilityTickSystem) Name() string         { return "InvulnerabilityTickSystem" }
func (s *InvulnerabilityTickSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *InvulnerabilityTickSystem) Query() ecs.Query     { return invulnerabilityQuery }
func (s *InvulnerabilityTickSystem) DependsOn() []string  { return nil }
func (s *InvulnerabilityTickSystem) IsParallel() bool     { return true }
func (s *InvulnerabilityTickSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.InvulnerabilityType}
}

func (s *InvulnerabilityTickSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			inv, _ := ecs.Get[components.Invulnerability](acc, components.InvulnerabilityType)
			inv.RemainingSeconds -= dt
			if inv.RemainingSeconds <= 0 {
				buf.RemoveComponent(acc.Ref(), components.InvulnerabilityType)
				continue
			}
			ecs.Set(acc, components.InvulnerabilityType, inv)
		}
	}
	return nil
}
