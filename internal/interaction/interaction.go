// Package interaction implements the data-defined action dispatch spec.md
// §4.8 describes, with ProjectileInteraction (firing) as the canonical
// case: client-authoritative data buffering, asset-backed config
// resolution, and the immutable HandlerResult contract spec.md §9
// mandates in place of mutable cancellable events.
package interaction

import (
	"context"
	"fmt"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// ResultKind is the outcome of one interaction invocation (spec.md §9:
// "builder → immutable event" plus an explicit handler_result).
type ResultKind int

const (
	Continue ResultKind = iota
	Cancel
	Redirect
)

// HandlerResult is the immutable value every Interaction step returns;
// dispatch short-circuits on Cancel/Redirect (spec.md §9).
type HandlerResult struct {
	Kind   ResultKind
	Reason string
	Target ecs.Ref
}

// DataSource names who must supply the data an interaction's first run
// needs before it can execute.
type DataSource int

const (
	FromServer DataSource = iota
	FromClient
)

// ClientActionData is the client-supplied payload ProjectileInteraction
// waits for: shooter position and aim rotation (spec.md §4.5, §4.8).
type ClientActionData struct {
	Position components.Vec3
	Pitch    float64
	Yaw      float64
}

// SyncData is the outbound reconciliation block simulateFirstRun fills in
// for the client to compare against its own prediction.
type SyncData struct {
	ShooterTransform components.Transform
	PredictionID     string
}

// Interaction is a reusable, data-defined action (spec.md §4.8).
type Interaction interface {
	Name() string
	WaitForDataFrom() DataSource
	FirstRun(ctx context.Context, buf *ecs.CommandBuffer, actor ecs.Ref, data ClientActionData, cooldown float64) (HandlerResult, error)
	SimulateFirstRun(ctx context.Context, actor ecs.Ref) (SyncData, error)
}

// ActiveInteraction marks an actor entity as having a buffered interaction
// awaiting client data; internal/death's ClearInteractions RefChange
// system removes it on death (spec.md §4.6 step 2).
type ActiveInteraction struct {
	InteractionName string
	ElapsedSeconds  float64
}

var ActiveInteractionType = ecs.RegisterComponent[ActiveInteraction]("active_interaction")

// ErrAssetNotResolved is returned when an Interaction's backing config id
// is absent from the AssetRegistry (spec.md §4.8 "Failure").
var ErrAssetNotResolved = fmt.Errorf("interaction: asset not resolved")
