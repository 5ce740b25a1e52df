package ecs

import "sort"

// ChangeEvent records a structural component change applied during Sync,
// consumed by the scheduler's RefChange phase (spec.md §4.3, §4.6). Only
// explicit AddComponent/RemoveComponent commands produce events —
// SetComponent and an entity's initial creation components do not, since
// no pipeline in this codebase needs to observe those and spec.md leaves
// the choice open (see DESIGN.md).
type ChangeEvent struct {
	Ref  Ref
	Type ComponentType
	Kind ChangeKind
}

// SyncStats summarizes one Sync call for telemetry.
type SyncStats struct {
	Created   int
	Destroyed int
	Added     int
	Removed   int
	Set       int
}

type taggedCommand struct {
	cmd        command
	groupOrder int
	systemID   string
	workerID   int
}

// Sync is the single-threaded region that drains every worker's
// CommandBuffer and realizes structural changes (spec.md §4.2). Callers
// must invoke Sync from exactly one goroutine per tick group; Sync itself
// holds the Store's lock for its entire duration so no query or accessor
// read can race with it.
func Sync(store *Store, buffers []*CommandBuffer) (SyncStats, []ChangeEvent) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var entries []taggedCommand
	for _, b := range buffers {
		for _, c := range b.commands {
			entries = append(entries, taggedCommand{cmd: c, groupOrder: b.GroupOrder, systemID: b.SystemID, workerID: b.WorkerID})
		}
	}

	// Deterministic cross-buffer order, spec.md §4.2 rule 2: by
	// (systemGroup order, systemId, workerId, recordIndex). Stable sort
	// preserves rule 1 (within-buffer recorded order) since recordIndex
	// is the final tiebreaker.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.groupOrder != b.groupOrder {
			return a.groupOrder < b.groupOrder
		}
		if a.systemID != b.systemID {
			return a.systemID < b.systemID
		}
		if a.workerID != b.workerID {
			return a.workerID < b.workerID
		}
		return a.cmd.recordIndex < b.cmd.recordIndex
	})

	var stats SyncStats
	var events []ChangeEvent
	var destroys []Ref

	// Two passes realize rule 3 unconditionally: every non-destroy
	// mutation for a Ref applies before that Ref's destruction, and rule 5
	// (writes discarded once an entity is destroyed) falls out for free
	// because no destroy has happened yet during this first pass.
	for _, e := range entries {
		switch e.cmd.kind {
		case cmdDestroy:
			destroys = append(destroys, e.cmd.ref)
		case cmdCreate:
			if store.placeReserved(e.cmd.ref, e.cmd.comps) {
				stats.Created++
			}
		case cmdAdd:
			if applied, structural := store.addOrSet(e.cmd.ref, e.cmd.componentType, e.cmd.value); applied {
				stats.Added++
				if structural {
					events = append(events, ChangeEvent{Ref: e.cmd.ref, Type: e.cmd.componentType, Kind: Added})
				}
			}
		case cmdRemove:
			if store.removeType(e.cmd.ref, e.cmd.componentType) {
				stats.Removed++
				events = append(events, ChangeEvent{Ref: e.cmd.ref, Type: e.cmd.componentType, Kind: Removed})
			}
		case cmdSet:
			if store.isValidLocked(e.cmd.ref) {
				loc := store.entities[e.cmd.ref.Index]
				if loc.archetype.Has(e.cmd.componentType) {
					setComponent(loc.chunk, e.cmd.componentType, loc.slot, e.cmd.value)
					stats.Set++
				}
			}
		}
	}

	for _, ref := range destroys {
		if store.destroy(ref) {
			stats.Destroyed++
		}
	}

	for _, b := range buffers {
		b.commands = b.commands[:0]
	}

	return stats, events
}
