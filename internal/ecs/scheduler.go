package ecs

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type changeKey struct {
	t ComponentType
	k ChangeKind
}

// Scheduler runs an ordered list of system Groups against a Store once per
// Tick, followed by Sync, followed by the fixed RefChange phase
// (spec.md §4.3). It owns worker-count for parallel waves and recovers
// individual system panics so one bad chunk never corrupts the Store
// (spec.md §7 "System panic").
type Scheduler struct {
	Store      *Store
	Groups     []Group
	Workers    int
	Logger     zerolog.Logger
	Metrics    StoreMetrics
	refChanges map[changeKey][]RefChangeSystem
}

// NewScheduler constructs a Scheduler over store with the given ordered
// groups. workers <= 0 defaults to 1 (fully serial).
func NewScheduler(store *Store, groups []Group, workers int, logger zerolog.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		Store:      store,
		Groups:     groups,
		Workers:    workers,
		Logger:     logger,
		refChanges: make(map[changeKey][]RefChangeSystem),
	}
}

// RegisterRefChange adds sys to the fixed, declaration-ordered chain
// invoked for its watched (componentType, changeKind) pair.
func (s *Scheduler) RegisterRefChange(sys RefChangeSystem) {
	t, k := sys.Watches()
	key := changeKey{t, k}
	s.refChanges[key] = append(s.refChanges[key], sys)
}

// Tick runs every group in declared order, syncing after each, then fires
// the RefChange phase for every change produced by that group's sync
// (spec.md §4.3 step 2-3, §4.6). Tick never returns an error for an
// individual system failure; those are logged and counted, per the
// "errors internal to the tick are swallowed with metrics" rule (§7).
func (s *Scheduler) Tick(ctx context.Context, dt float64) error {
	for _, group := range s.Groups {
		buffers := s.runGroup(ctx, group, dt)

		stats, events := Sync(s.Store, buffers)
		s.reportSyncStats(group.Name, stats)

		// Index loop, not range: RefChange systems append follow-up events
		// and those must be visited too (death's chained component adds).
		for i := 0; i < len(events); i++ {
			ev := events[i]
			for _, rc := range s.refChanges[changeKey{ev.Type, ev.Kind}] {
				rcBuf := NewCommandBuffer(s.Store, 0, rc.Name(), 0)
				s.runRefChange(ctx, rc, ev.Ref, rcBuf)
				rstats, revents := Sync(s.Store, []*CommandBuffer{rcBuf})
				s.reportSyncStats(rc.Name(), rstats)
				// A RefChange system's own mutations (e.g.
				// CorpseRemovalSetup adding DeferredCorpseRemoval,
				// DropPlayerDeathItems removing pending drops) can themselves add/remove watched components; spec.md
				// describes death/respawn as chained exactly this way.
				events = append(events, revents...)
			}
		}
	}
	return nil
}

func (s *Scheduler) reportSyncStats(scope string, stats SyncStats) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.IncCommandsApplied("create", stats.Created)
	s.Metrics.IncCommandsApplied("destroy", stats.Destroyed)
	s.Metrics.IncCommandsApplied("add", stats.Added)
	s.Metrics.IncCommandsApplied("remove", stats.Removed)
	s.Metrics.IncCommandsApplied("set", stats.Set)
}

func (s *Scheduler) runRefChange(ctx context.Context, rc RefChangeSystem, ref Ref, buf *CommandBuffer) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Warn().Str("system", rc.Name()).Interface("panic", r).Msg("refchange system panicked, skipping entity")
			if s.Metrics != nil {
				s.Metrics.IncSystemPanic(rc.Name())
			}
		}
	}()
	if err := rc.Run(ctx, s.Store, ref, buf); err != nil {
		s.Logger.Warn().Err(err).Str("system", rc.Name()).Msg("refchange system returned error")
	}
}

// runGroup plans parallel waves for group's systems and executes them,
// returning every CommandBuffer produced (one per worker per system).
func (s *Scheduler) runGroup(ctx context.Context, group Group, dt float64) []*CommandBuffer {
	waves := planWaves(group.Systems)
	var all []*CommandBuffer

	for waveIdx, wave := range waves {
		eg, egCtx := errgroup.WithContext(ctx)
		buffersCh := make(chan *CommandBuffer, len(wave)*s.Workers)

		for _, sys := range wave {
			sys := sys
			chunks := sys.Query().Chunks(s.Store)
			shards := shardChunks(chunks, s.Workers, sys.IsParallel())

			for workerID, shard := range shards {
				workerID, shard := workerID, shard
				eg.Go(func() (err error) {
					buf := NewCommandBuffer(s.Store, waveIdx, sys.Name(), workerID)
					defer func() {
						if r := recover(); r != nil {
							s.Logger.Warn().Str("system", sys.Name()).Int("worker", workerID).Interface("panic", r).
								Msg("system panicked, discarding this worker's command buffer")
							if s.Metrics != nil {
								s.Metrics.IncSystemPanic(sys.Name())
							}
							buf.commands = nil
							err = nil
						}
						buffersCh <- buf
					}()
					return sys.Run(egCtx, s.Store, shard, dt, buf)
				})
			}
		}

		if err := eg.Wait(); err != nil {
			s.Logger.Warn().Err(err).Str("group", group.Name).Msg("system returned error")
		}
		close(buffersCh)
		for buf := range buffersCh {
			all = append(all, buf)
		}
	}
	return all
}

// shardChunks splits chunks into up to `workers` disjoint slices. A
// non-parallel system always gets one shard covering every chunk
// (spec.md §4.3 "always runs on a single worker over its full chunk
// list").
func shardChunks(chunks []*Chunk, workers int, parallel bool) [][]*Chunk {
	if !parallel || workers <= 1 || len(chunks) <= 1 {
		if len(chunks) == 0 {
			return nil
		}
		return [][]*Chunk{chunks}
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}
	shards := make([][]*Chunk, workers)
	for i, c := range chunks {
		shards[i%workers] = append(shards[i%workers], c)
	}
	out := shards[:0]
	for _, sh := range shards {
		if len(sh) > 0 {
			out = append(out, sh)
		}
	}
	return out
}

// planWaves groups a system group's systems into ordered waves: within a
// wave every system's DependsOn is already satisfied by an earlier wave,
// and no two systems in the wave share a write-set component or veto
// parallel execution (spec.md §4.3 "Parallel execution rule").
func planWaves(systems []TickSystem) [][]TickSystem {
	placed := make(map[string]bool, len(systems))
	remaining := append([]TickSystem(nil), systems...)
	var waves [][]TickSystem

	for len(remaining) > 0 {
		var wave []TickSystem
		var next []TickSystem
		writeUnion := make(map[ComponentType]bool)
		waveHasSerial := false

		for _, sys := range remaining {
			ready := true
			for _, dep := range sys.DependsOn() {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if !ready {
				next = append(next, sys)
				continue
			}

			conflict := waveHasSerial || (len(wave) > 0 && !sys.IsParallel())
			if !conflict {
				for _, w := range sys.WriteSet() {
					if writeUnion[w] {
						conflict = true
						break
					}
				}
			}
			if conflict {
				next = append(next, sys)
				continue
			}

			wave = append(wave, sys)
			for _, w := range sys.WriteSet() {
				writeUnion[w] = true
			}
			if !sys.IsParallel() {
				waveHasSerial = true
			}
		}

		if len(wave) == 0 {
			// Every remaining system is blocked — an unsatisfiable
			// DependsOn (typo or cross-group reference). Run the first
			// one alone rather than deadlock the scheduler.
			wave = append(wave, remaining[0])
			next = remaining[1:]
		}

		for _, sys := range wave {
			placed[sys.Name()] = true
		}
		waves = append(waves, wave)
		remaining = next
	}
	return waves
}
