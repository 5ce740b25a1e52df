package ecs

// commandKind tags the deferred structural mutation a command represents.
type commandKind int

const (
	cmdCreate commandKind = iota
	cmdDestroy
	cmdAdd
	cmdRemove
	cmdSet
)

type command struct {
	kind          commandKind
	ref           Ref
	componentType ComponentType
	value         any
	comps         []Comp
	recordIndex   int
}

// CommandBuffer is a per-worker, append-only log of deferred structural
// mutations (spec.md §4.2). Systems never mutate archetype membership
// directly; they record intent here and the Sync phase applies it in a
// single-threaded, deterministic pass.
type CommandBuffer struct {
	store       *Store
	GroupOrder  int
	SystemID    string
	WorkerID    int
	commands    []command
}

// NewCommandBuffer constructs an empty buffer bound to store. GroupOrder,
// SystemID and WorkerID identify the buffer's place in the cross-buffer
// application order defined by spec.md §4.2 rule 2.
func NewCommandBuffer(store *Store, groupOrder int, systemID string, workerID int) *CommandBuffer {
	return &CommandBuffer{store: store, GroupOrder: groupOrder, SystemID: systemID, WorkerID: workerID}
}

// Len returns the number of recorded commands, used by telemetry to report
// command-buffer depth.
func (b *CommandBuffer) Len() int { return len(b.commands) }

func (b *CommandBuffer) record(c command) {
	c.recordIndex = len(b.commands)
	b.commands = append(b.commands, c)
}

// CreateEntity reserves a fresh Ref immediately (so later commands in this
// same buffer or others can address it this tick) and defers its archetype
// placement to Sync. The Ref is not visible to queries until Sync runs.
func (b *CommandBuffer) CreateEntity(comps ...Comp) Ref {
	ref := b.store.reserve()
	b.record(command{kind: cmdCreate, ref: ref, comps: append([]Comp(nil), comps...)})
	return ref
}

// DestroyEntity records ref's destruction. Per spec.md §4.2 rule 4,
// destroying an already-destroyed ref is a no-op at Sync; per rule 3, any
// mutation recorded for ref in this sync is applied before the destroy.
func (b *CommandBuffer) DestroyEntity(ref Ref) {
	b.record(command{kind: cmdDestroy, ref: ref})
}

// AddComponent records adding component type t with value v to ref,
// triggering an archetype move at Sync. Adding a type ref already carries
// replaces the value in place (last-writer-wins, spec.md §4.1).
func AddComponent[T any](b *CommandBuffer, ref Ref, t ComponentType, v T) {
	b.record(command{kind: cmdAdd, ref: ref, componentType: t, value: v})
}

// RemoveComponent records removing component type t from ref. Removing a
// type ref does not carry is a no-op.
func (b *CommandBuffer) RemoveComponent(ref Ref, t ComponentType) {
	b.record(command{kind: cmdRemove, ref: ref, componentType: t})
}

// SetComponent records an in-place value update for a component type ref
// already carries. Unlike AddComponent this never moves the entity's
// archetype and never fires a RefChange event; use it for deferred writes
// to columns a system does not own directly via ComponentAccessor.
func SetComponent[T any](b *CommandBuffer, ref Ref, t ComponentType, v T) {
	b.record(command{kind: cmdSet, ref: ref, componentType: t, value: v})
}
