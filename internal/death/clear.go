// Package death implements the fixed, declaration-ordered chain of
// RefChange systems spec.md §4.6 fires when DeathComponent is added to an
// entity, plus the DeferredCorpseRemoval countdown.
package death

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
)

// ClearEntityEffectsSystem is step 1 of the death chain: it wipes the
// dying entity's active status-effect set.
type ClearEntityEffectsSystem struct{}

func (ClearEntityEffectsSystem) Name() string { return "ClearEntityEffects" }
func (ClearEntityEffectsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (ClearEntityEffectsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if store.HasComponent(ref, components.StatusEffectsType) {
		ecs.SetComponent(buf, ref, components.StatusEffectsType, components.StatusEffects{})
	}
	return nil
}

// ClearInteractionsSystem is step 2: cancels any in-progress interaction
// the dying entity was buffered on (spec.md §4.6 step 2).
type ClearInteractionsSystem struct {
	Dispatcher *interaction.Dispatcher
}

func (ClearInteractionsSystem) Name() string { return "ClearInteractions" }
func (ClearInteractionsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
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

// ClearHealthSystem is step 3: pins the Health stat map's current value to
// zero so no race with a concurrently-applied heal leaves a dead entity
// with positive health.
type ClearHealthSystem struct{}

func (ClearHealthSystem) Name() string { return "ClearHealth" }
func (ClearHealthSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (ClearHealthSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	health, ok := ecs.GetComponent[components.Health](store, ref, components.HealthType)
	if !ok {
		return nil
	}
	if health.Stats == nil {
		health.Stats = make(map[components.StatKind]float64)
	}
	health.Stats[components.StatHealth] = 0
	ecs.SetComponent(buf, ref, components.HealthType, health)
	return nil
}
