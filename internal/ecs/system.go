package ecs

import "context"

// SystemKind distinguishes the three system shapes spec.md §4.3 names.
// EntityTicking and HolderBootstrap systems run per tick over a Query's
// chunks; RefChange systems are event-driven and never hold a Query.
type SystemKind int

const (
	EntityTicking SystemKind = iota
	HolderBootstrap
)

// TickSystem is a per-tick system scheduled into a system group. Run is
// invoked once per wave-assigned chunk slice; implementations iterate
// slot-by-slot with a ComponentAccessor for in-place column writes (a
// type in WriteSet) and use buf for any structural change.
type TickSystem interface {
	Name() string
	Kind() SystemKind
	Query() Query
	// DependsOn names sibling systems in the same group that must finish
	// (including their Sync-visible effects are NOT required — only their
	// Run call) before this system starts its own Run.
	DependsOn() []string
	// WriteSet lists component types this system mutates in place via a
	// ComponentAccessor. Two systems in the same group with overlapping
	// write-sets are never run concurrently.
	WriteSet() []ComponentType
	// IsParallel vetoes the scheduler splitting this system's chunk list
	// across workers; a false return always runs on a single worker over
	// the system's full chunk list (spec.md §4.3).
	IsParallel() bool
	Run(ctx context.Context, store *Store, chunks []*Chunk, dt float64, buf *CommandBuffer) error
}

// RefChangeSystem is invoked exactly once per matching component change,
// during the fixed phase after Sync (spec.md §4.3, §4.6). Watches reports
// the (type, kind) pair this system registers for.
type RefChangeSystem interface {
	Name() string
	Watches() (ComponentType, ChangeKind)
	Run(ctx context.Context, store *Store, ref Ref, buf *CommandBuffer) error
}

// Group is an ordered bucket of TickSystems that run (possibly in
// parallel waves), followed by exactly one Sync.
type Group struct {
	Name    string
	Systems []TickSystem
}
