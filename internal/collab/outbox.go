package collab

import (
	"sync"

	"github.com/embervoid/tickcore/internal/ecs"
)

// ChannelOutbox is the per-viewer outbound packet queue implementing
// EntityViewer: systems append packet intents during the tick, and the
// host drains Flush after Sync, never mid-tick (spec.md §6).
type ChannelOutbox struct {
	mu      sync.Mutex
	pending map[ecs.Ref][]Packet
}

// NewChannelOutbox constructs an empty outbox.
func NewChannelOutbox() *ChannelOutbox {
	return &ChannelOutbox{pending: make(map[ecs.Ref][]Packet)}
}

func (o *ChannelOutbox) Enqueue(viewer ecs.Ref, packet Packet) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[viewer] = append(o.pending[viewer], packet)
}

// Flush drains and returns every viewer's pending packets, resetting the
// outbox for the next tick.
func (o *ChannelOutbox) Flush() map[ecs.Ref][]Packet {
	o.mu.Lock()
	defer o.mu.Unlock()
	drained := o.pending
	o.pending = make(map[ecs.Ref][]Packet)
	return drained
}
