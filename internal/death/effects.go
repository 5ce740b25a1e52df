package death

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
)

// DeathAnimationSystem is step 4 of the death chain: it sets the dying
// entity's animation state from the fatal cause.
type DeathAnimationSystem struct{}

func (DeathAnimationSystem) Name() string { return "DeathAnimation" }
func (DeathAnimationSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (DeathAnimationSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	death, ok := ecs.GetComponent[components.DeathComponent](store, ref, components.DeathComponentType)
	if !ok {
		return nil
	}
	anim := "death"
	switch death.Cause {
	case "fall":
		anim = "death_collapse"
	case "projectile":
		anim = "death_knockback"
	case "void":
		anim = "death_fall"
	}
	ecs.AddComponent(buf, ref, components.AnimationStateType, components.AnimationState{Name: anim})
	return nil
}

// RunDeathInteractionsSystem is step 5: it fires the interactions
// configured for the entity's death cause through the dispatcher (death
// explosions, soul drops, scripted triggers).
type RunDeathInteractionsSystem struct {
	Dispatcher *interaction.Dispatcher
	// ByCause maps a death cause id to the interaction names to run; the
	// empty-string key holds interactions run for every death.
	ByCause map[string][]string
}

func (s *RunDeathInteractionsSystem) Name() string { return "RunDeathInteractions" }
func (s *RunDeathInteractionsSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (s *RunDeathInteractionsSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if s.Dispatcher == nil {
		return nil
	}
	death, _ := ecs.GetComponent[components.DeathComponent](store, ref, components.DeathComponentType)
	names := append(append([]string(nil), s.ByCause[""]...), s.ByCause[death.Cause]...)
	for _, name := range names {
		if _, err := s.Dispatcher.RequestAction(ctx, buf, ref, name, 0); err != nil {
			return err
		}
	}
	return nil
}
