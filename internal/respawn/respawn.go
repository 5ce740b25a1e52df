// Package respawn implements the RefChange chain spec.md §4.6 fires when
// DeathComponent is removed from an entity: stats and effects reset,
// interactions cleared, broken items culled, player metadata reset, and
// finally the world RespawnController relocates and re-enables the player.
package respawn

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
	"github.com/embervoid/tickcore/internal/inventory"
)

// ResetStatsSystem restores Health's current stat to its max.
type ResetStatsSystem struct{}

func (ResetStatsSystem) Name() string { return "RespawnResetStats" }
func (ResetStatsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (ResetStatsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	health, ok := ecs.GetComponent[components.Health](store, ref, components.HealthType)
	if !ok {
		return nil
	}
	if health.Stats == nil {
		health.Stats = make(map[components.StatKind]float64)
	}
	maxHealth := health.Get(components.StatMaxHealth)
	if maxHealth <= 0 {
		maxHealth = 20
	}
	health.Stats[components.StatHealth] = maxHealth
	health.Stats[components.StatBreath] = 1
	ecs.SetComponent(buf, ref, components.HealthType, health)
	return nil
}

// ClearEffectsSystem wipes status effects left over from the death state.
type ClearEffectsSystem struct{}

func (ClearEffectsSystem) Name() string { return "RespawnClearEffects" }
func (ClearEffectsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (ClearEffectsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if store.HasComponent(ref, components.StatusEffectsType) {
		ecs.SetComponent(buf, ref, components.StatusEffectsType, components.StatusEffects{})
	}
	return nil
}

// ClearInteractionsSystem drops any interaction buffered while dead.
type ClearInteractionsSystem struct {
	Dispatcher *interaction.Dispatcher
}

func (ClearInteractionsSystem) Name() string { return "RespawnClearInteractions" }
func (ClearInteractionsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (s ClearInteractionsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if s.Dispatcher != nil {
		s.Dispatcher.ClearPending(ref)
	}
	if store.HasComponent(ref, interaction.ActiveInteractionType) {
		buf.RemoveComponent(ref, interaction.ActiveInteractionType)
	}
	return nil
}

// CheckBrokenItemsSystem culls negative-durability stacks from the respawning
// player's container so they do not come back holding broken equipment.
type CheckBrokenItemsSystem struct{}

func (CheckBrokenItemsSystem) Name() string { return "RespawnCheckBrokenItems" }
func (CheckBrokenItemsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (CheckBrokenItemsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	held, ok := ecs.GetComponent[inventory.Held](store, ref, inventory.HeldType)
	if !ok || held.Container == nil {
		return nil
	}
	for i := 0; i < held.Container.Size(); i++ {
		s := held.Container.Slot(i)
		if !s.IsEmpty() && s.Durability < 0 {
			held.Container.SetSlot(i, components.ItemStack{})
		}
	}
	return nil
}

// ResetMetadataSystem records the death in the player's metadata and
// zeroes the session-relative counters.
type ResetMetadataSystem struct{}

func (ResetMetadataSystem) Name() string { return "RespawnResetMetadata" }
func (ResetMetadataSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (ResetMetadataSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	meta, ok := ecs.GetComponent[components.PlayerMetadata](store, ref, components.PlayerMetadataType)
	if !ok {
		return nil
	}
	meta.Deaths++
	meta.TimeSinceSpawn = 0
	ecs.SetComponent(buf, ref, components.PlayerMetadataType, meta)
	return nil
}

// RelocateSystem is the final respawn step: it asks the world
// RespawnController for a spawn location, moves the player there, zeroes
// velocity, clears the death animation, and disarms any corpse countdown
// still pending.
type RelocateSystem struct {
	Controller collab.RespawnController
}

func (s *RelocateSystem) Name() string { return "RespawnRelocate" }
func (s *RelocateSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Removed
}
func (s *RelocateSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if s.Controller == nil {
		return nil
	}
	spawn, ok := s.Controller.Respawn(buf, ref)
	if !ok {
		return nil
	}
	transform, _ := ecs.GetComponent[components.Transform](store, ref, components.TransformType)
	transform.Position = spawn
	ecs.SetComponent(buf, ref, components.TransformType, transform)
	if store.HasComponent(ref, components.VelocityType) {
		ecs.SetComponent(buf, ref, components.VelocityType, components.Velocity{})
	}
	if store.HasComponent(ref, components.AnimationStateType) {
		buf.RemoveComponent(ref, components.AnimationStateType)
	}
	if store.HasComponent(ref, components.DeferredCorpseRemovalType) {
		buf.RemoveComponent(ref, components.DeferredCorpseRemovalType)
	}
	return nil
}

// Chain returns the respawn RefChange chain in declared order.
func Chain(dispatcher *interaction.Dispatcher, controller collab.RespawnController) []ecs.RefChangeSystem {
	return []ecs.RefChangeSystem{
		ResetStatsSystem{},
		ClearEffectsSystem{},
		ClearInteractionsSystem{Dispatcher: dispatcher},
		CheckBrokenItemsSystem{},
		ResetMetadataSystem{},
		&RelocateSystem{Controller: controller},
	}
}
