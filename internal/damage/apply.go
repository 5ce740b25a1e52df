package damage

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupApplyDamage is the third damage system group: a single serial
// system that subtracts the filtered amount from Health and, on lethal
// damage, attaches DeathComponent (spec.md §4.6).
const GroupApplyDamage = "ApplyDamage"

// ApplySystem reads each non-cancelled Record, subtracts Amount from the
// target's Health.StatHealth (clamping it at zero), and emits
// DeathComponent once that stat reaches zero. Health and DeathComponent both live on the
// target entity, not the record entity, so both writes are deferred
// through the CommandBuffer rather than an in-place ComponentAccessor set.
type ApplySystem struct {
	Store *ecs.Store
}

func (s *ApplySystem) Name() string         { return "ApplySystem" }
func (s *ApplySystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *ApplySystem) Query() ecs.Query     { return recordQuery }
func (s *ApplySystem) DependsOn() []string  { return nil }
func (s *ApplySystem) IsParallel() bool     { return false }
func (s *ApplySystem) WriteSet() []ecs.ComponentType {
	return []ecs.ComponentType{RecordType}
}

func (s *ApplySystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			record, _ := ecs.Get[Record](acc, RecordType)
			if record.Applied {
				continue
			}

			finalAmount := 0.0
			if !record.Cancelled && !record.Desynced {
				health, ok := ecs.GetComponent[components.Health](store, record.Target, components.HealthType)
				if ok {
					finalAmount = record.Amount
					if finalAmount < 0 {
						finalAmount = 0
					}
					newHealth := health.Get(components.StatHealth) - finalAmount
					if newHealth < 0 {
						newHealth = 0
					}
					if health.Stats == nil {
						health.Stats = make(map[components.StatKind]float64)
					}
					health.Stats[components.StatHealth] = newHealth
					ecs.SetComponent(buf, record.Target, components.HealthType, health)

					if newHealth <= 0 {
						ecs.AddComponent(buf, record.Target, components.DeathComponentType, components.DeathComponent{
							Cause: record.Cause,
							FatalDamage: components.DamageSnapshot{
								SourceRef: record.Source,
								HasSource: record.HasSource,
								Cause:     record.Cause,
								Amount:    finalAmount,
								Zone:      record.Zone,
							},
						})
					}
				}
			}

			record.Applied = true
			record.FinalAmount = finalAmount
			ecs.Set(acc, RecordType, record)
		}
	}
	return nil
}
