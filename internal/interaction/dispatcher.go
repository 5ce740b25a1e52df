package interaction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/embervoid/tickcore/internal/ecs"
)

// DefaultWindowSeconds bounds how long the dispatcher waits for a
// FromClient interaction's data packet before dropping the buffered
// action (spec.md §4.8 "bounded window").
const DefaultWindowSeconds = 2.0

type pendingAction struct {
	interaction Interaction
	cooldown    float64
	elapsed     float64
	window      float64
}

// Dispatcher routes named interactions to their implementation, buffering
// FromClient interactions until SupplyClientData arrives (spec.md §4.8).
// It is driven from outside the tick's parallel phases — dispatch always
// records into a CommandBuffer, never mutates the Store directly.
type Dispatcher struct {
	Logger zerolog.Logger

	registered map[string]Interaction
	pending    map[ecs.Ref]pendingAction
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{Logger: logger, registered: make(map[string]Interaction), pending: make(map[ecs.Ref]pendingAction)}
}

// Register adds an Interaction under its own Name().
func (d *Dispatcher) Register(i Interaction) { d.registered[i.Name()] = i }

// RequestAction begins dispatch of a named interaction for actor. A
// FromServer interaction runs immediately with zero-value client data; a
// FromClient interaction is buffered until SupplyClientData arrives, and
// buf records ActiveInteraction so ClearInteractions can observe it if the
// actor dies first.
func (d *Dispatcher) RequestAction(ctx context.Context, buf *ecs.CommandBuffer, actor ecs.Ref, name string, cooldown float64) (HandlerResult, error) {
	i, ok := d.registered[name]
	if !ok {
		return HandlerResult{Kind: Cancel, Reason: "unknown interaction"}, nil
	}

	if i.WaitForDataFrom() == FromServer {
		return i.FirstRun(ctx, buf, actor, ClientActionData{}, cooldown)
	}

	d.pending[actor] = pendingAction{interaction: i, cooldown: cooldown, window: DefaultWindowSeconds}
	ecs.AddComponent(buf, actor, ActiveInteractionType, ActiveInteraction{InteractionName: name})
	return HandlerResult{Kind: Continue}, nil
}

// SupplyClientData delivers the client's (position, rotation) packet for
// actor's buffered interaction, running FirstRun and clearing the pending
// state. A call with no matching pending action (the window already
// expired or no action was ever requested) changes nothing and returns a
// Cancel result with reason "no pending action" and a nil error.
func (d *Dispatcher) SupplyClientData(ctx context.Context, buf *ecs.CommandBuffer, actor ecs.Ref, data ClientActionData) (HandlerResult, error) {
	p, ok := d.pending[actor]
	if !ok {
		return HandlerResult{Kind: Cancel, Reason: "no pending action"}, nil
	}
	delete(d.pending, actor)
	buf.RemoveComponent(actor, ActiveInteractionType)

	result, err := p.interaction.FirstRun(ctx, buf, actor, data, p.cooldown)
	if err != nil {
		d.Logger.Warn().Err(err).Str("interaction", p.interaction.Name()).Msg("interaction failed, action dropped")
	}
	return result, err
}

// Tick advances every pending action's buffered-window clock, dropping any
// that have waited past their window without client data (spec.md §4.8).
// Callers invoke this once per tick outside the parallel system phases.
func (d *Dispatcher) Tick(buf *ecs.CommandBuffer, dt float64) {
	for actor, p := range d.pending {
		p.elapsed += dt
		if p.elapsed >= p.window {
			delete(d.pending, actor)
			buf.RemoveComponent(actor, ActiveInteractionType)
			d.Logger.Warn().Str("interaction", p.interaction.Name()).Msg("interaction window expired, action dropped")
			continue
		}
		d.pending[actor] = p
	}
}

// ClearPending removes any buffered action for actor without running it,
// used by ClearInteractions when the actor dies mid-wait.
func (d *Dispatcher) ClearPending(actor ecs.Ref) {
	delete(d.pending, actor)
}
