package projectile

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupTrackerQueueUpdate is the system-group name for the networking hook
// spec.md §4.3 lists after physics.
const GroupTrackerQueueUpdate = "TrackerQueueUpdate"

// BeginPredictionPacketKind tags the outbound packet TrackerSystem enqueues
// for each newly-visible viewer→projectile pair.
const BeginPredictionPacketKind = "begin_prediction"

var trackerQuery = ecs.NewQuery(
	components.PredictedProjectileType,
	components.NetworkVisibilityType,
)

// TrackerSystem is EntityTrackerUpdate (spec.md §4.5 "Prediction signal"):
// for each viewer newly present in a projectile's NetworkVisibility set,
// it enqueues a begin-prediction packet carrying the projectile's
// prediction UUID. It never mutates world state; only outbox intents.
type TrackerSystem struct {
	Outbox collab.EntityViewer
	seen   map[ecs.Ref]map[ecs.Ref]bool
}

func NewTrackerSystem(outbox collab.EntityViewer) *TrackerSystem {
	return &TrackerSystem{Outbox: outbox, seen: make(map[ecs.Ref]map[ecs.Ref]bool)}
}

func (s *TrackerSystem) Name() string         { return "EntityTrackerUpdate" }
func (s *TrackerSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *TrackerSystem) Query() ecs.Query     { return trackerQuery }
func (s *TrackerSystem) DependsOn() []string  { return nil }

// Serial: the cross-tick seen map is owned by this one system instance,
// and the scheduler shards a parallel system's chunks across workers that
// would all write it concurrently.
func (s *TrackerSystem) IsParallel() bool { return false }
func (s *TrackerSystem) WriteSet() []ecs.ComponentType { return nil }

func (s *TrackerSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	if s.Outbox == nil {
		return nil
	}
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			ref := acc.Ref()

			predicted, _ := ecs.Get[components.PredictedProjectile](acc, components.PredictedProjectileType)
			visibility, _ := ecs.Get[components.NetworkVisibility](acc, components.NetworkVisibilityType)

			already := s.seen[ref]
			if already == nil {
				already = make(map[ecs.Ref]bool)
				s.seen[ref] = already
			}

			for viewer, visible := range visibility.VisibleTo {
				if !visible || already[viewer] {
					continue
				}
				already[viewer] = true
				s.Outbox.Enqueue(viewer, collab.Packet{
					Kind: BeginPredictionPacketKind,
					Payload: map[string]any{
						"projectile":    ref,
						"prediction_id": predicted.PredictionID.String(),
					},
				})
			}
		}
	}
	return nil
}
