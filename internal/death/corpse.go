package death

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/interaction"
)

// GroupCorpse is the system group the corpse countdown ticks in, placed
// after the damage pipeline in world wiring.
const GroupCorpse = "CorpseRemoval"

// CorpseRemovalSetupSystem is step 10, the final RefChange of the death
// chain: it arms the corpse countdown.
type CorpseRemovalSetupSystem struct {
	DurationSeconds float64
}

func (s *CorpseRemovalSetupSystem) Name() string { return "CorpseRemovalSetup" }
func (s *CorpseRemovalSetupSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (s *CorpseRemovalSetupSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	duration := s.DurationSeconds
	if duration <= 0 {
		duration = 30
	}
	ecs.AddComponent(buf, ref, components.DeferredCorpseRemovalType, components.DeferredCorpseRemoval{RemainingSeconds: duration})
	return nil
}

var corpseQuery = ecs.NewQuery(components.DeferredCorpseRemovalType)

// CorpseTickSystem decrements every armed corpse countdown by dt and
// destroys the corpse entity once it reaches zero (spec.md §4.6). It is a
// plain per-tick system, not a RefChange: the countdown is ordinary
// column data.
type CorpseTickSystem struct{}

func (s *CorpseTickSystem) Name() string         { return "CorpseTickSystem" }
func (s *CorpseTickSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *CorpseTickSystem) Query() ecs.Query     { return corpseQuery }
func (s *CorpseTickSystem) DependsOn() []string  { return nil }
func (s *CorpseTickSystem) IsParallel() bool     { return true }
func (s *CorpseTickSystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{components.DeferredCorpseRemovalType}
}

func (s *CorpseTickSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			removal, _ := ecs.Get[components.DeferredCorpseRemoval](acc, components.DeferredCorpseRemovalType)
			removal.RemainingSeconds -= dt
			if removal.RemainingSeconds <= 0 {
				buf.DestroyEntity(acc.Ref())
				continue
			}
			ecs.Set(acc, components.DeferredCorpseRemovalType, removal)
		}
	}
	return nil
}

// Chain returns the full death RefChange chain in the fixed order spec.md
// §4.6 declares. Callers register each system with the scheduler in slice
// order.
func Chain(deps ChainDeps) []ecs.RefChangeSystem {
	return []ecs.RefChangeSystem{
		ClearEntityEffectsSystem{},
		ClearInteractionsSystem{Dispatcher: deps.Dispatcher},
		ClearHealthSystem{},
		DeathAnimationSystem{},
		&RunDeathInteractionsSystem{Dispatcher: deps.Dispatcher, ByCause: deps.DeathInteractions},
		PlayerDropItemsConfigSystem{},
		DropPlayerDeathItemsSystem{},
		&KillFeedSystem{Outbox: deps.Outbox},
		PlayerDeathMarkerSystem{},
		&PlayerDeathScreenSystem{Outbox: deps.Outbox},
		&CorpseRemovalSetupSystem{DurationSeconds: deps.CorpseSeconds},
	}
}

// ChainDeps bundles the collaborators the death chain needs.
type ChainDeps struct {
	Dispatcher        *interaction.Dispatcher
	Outbox            collab.EntityViewer
	DeathInteractions map[string][]string
	CorpseSeconds     float64
}
