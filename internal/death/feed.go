package death

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// Broadcast is the viewer Ref the outbox treats as "every connected
// session"; the zero Ref never addresses a live entity, so it is free for
// this use.
var Broadcast = ecs.Ref{}

// KillFeedSystem is step 7: it enqueues the broadcast kill-feed message
// describing the death.
type KillFeedSystem struct {
	Outbox collab.EntityViewer
}

func (s *KillFeedSystem) Name() string { return "KillFeed" }
func (s *KillFeedSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (s *KillFeedSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if s.Outbox == nil {
		return nil
	}
	death, _ := ecs.GetComponent[components.DeathComponent](store, ref, components.DeathComponentType)
	s.Outbox.Enqueue(Broadcast, collab.Packet{
		Kind: "kill_feed",
		Payload: map[string]any{
			"victim": ref,
			"cause":  death.Cause,
			"source": death.FatalDamage.SourceRef,
		},
	})
	return nil
}

// PlayerDeathMarkerSystem is step 8: it spawns a map-marker entity at the
// death position.
type PlayerDeathMarkerSystem struct{}

func (PlayerDeathMarkerSystem) Name() string { return "PlayerDeathMarker" }
func (PlayerDeathMarkerSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (PlayerDeathMarkerSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	transform, ok := ecs.GetComponent[components.Transform](store, ref, components.TransformType)
	if !ok {
		return nil
	}
	buf.CreateEntity(
		ecs.C(components.DeathMarkerType, components.DeathMarker{Player: ref, Position: transform.Position}),
		ecs.C(components.TransformType, components.Transform{Position: transform.Position}),
	)
	return nil
}

// PlayerDeathScreenSystem is step 9: it enqueues the client death-screen
// UI packet to the dying player's own session.
type PlayerDeathScreenSystem struct {
	Outbox collab.EntityViewer
}

func (s *PlayerDeathScreenSystem) Name() string { return "PlayerDeathScreen" }
func (s *PlayerDeathScreenSystem) Watches() (ecs.ComponentType, ecs.ChangeKind) {
	return components.DeathComponentType, ecs.Added
}
func (s *PlayerDeathScreenSystem) Run(ctx context.Context, store *ecs.Store, ref ecs.Ref, buf *ecs.CommandBuffer) error {
	if s.Outbox == nil {
		return nil
	}
	death, _ := ecs.GetComponent[components.DeathComponent](store, ref, components.DeathComponentType)
	s.Outbox.Enqueue(ref, collab.Packet{
		Kind: "death_screen",
		Payload: map[string]any{
			"cause":  death.Cause,
			"amount": death.FatalDamage.Amount,
			"zone":   death.FatalDamage.Zone,
		},
	})
	return nil
}
