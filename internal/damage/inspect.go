package damage

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/embervoid/tickcore/internal/ecs"
)

// GroupInspectDamage is the fourth and final damage system group: it reads
// the final applied amount for side-channel effects only (spec.md §4.6)
// and is responsible for retiring the ephemeral record entity once those
// effects have been emitted.
const GroupInspectDamage = "InspectDamage"

// Metrics is the narrow telemetry seam InspectSystem reports into.
type Metrics interface {
	IncDamageApplied(cause string, amount float64)
}

// InspectSystem emits a structured log line per applied damage record (a
// stand-in for the particle/sound/indicator-packet side effects spec.md
// §4.6 describes, which are genuinely out of this core's scope) and then
// destroys the record — it is the only system in the pipeline allowed to,
// since every earlier group still needs the record alive.
type InspectSystem struct {
	Logger  zerolog.Logger
	Metrics Metrics
}

func (s *InspectSystem) Name() string         { return "InspectSystem" }
func (s *InspectSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *InspectSystem) Query() ecs.Query     { return recordQuery }
func (s *InspectSystem) DependsOn() []string  { return nil }
func (s *InspectSystem) IsParallel() bool     { return true }
func (s *InspectSystem) WriteSet() []ecs.ComponentType { return nil }

func (s *InspectSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)

			if !record.Cancelled {
				s.Logger.Debug().
					Str("cause", record.Cause).
					Float64("amount", record.FinalAmount).
					Uint32("target_index", record.Target.Index).
					Msg("damage applied")
				if s.Metrics != nil {
					s.Metrics.IncDamageApplied(record.Cause, record.FinalAmount)
				}
			}

			buf.DestroyEntity(acc.Ref())
		}
	}
	return nil
}
