package damage

import (
	"context"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GroupGatherDamage is the first of the four ordered damage system groups
// (spec.md §4.3, §4.6).
const GroupGatherDamage = "GatherDamage"

// FallThreshold is the downward speed past which landing triggers fall
// damage (spec.md §4.6 "fall damage (read landing velocity vs threshold)").
const FallThreshold = 10.0

// FallDamageSystem watches entities that just came to rest (OnGround
// transition detected by a large downward velocity immediately preceding
// an upward-normal contact) and emits proportional fall damage.
type FallDamageSystem struct{}

var fallQuery = ecs.NewQuery(components.VelocityType, components.HealthType)

func (s *FallDamageSystem) Name() string         { return "FallDamageSystem" }
func (s *FallDamageSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *FallDamageSystem) Query() ecs.Query     { return fallQuery }
func (s *FallDamageSystem) DependsOn() []string  { return nil }
func (s *FallDamageSystem) IsParallel() bool     { return true }
func (s *FallDamageSystem) WriteSet() []ecs.ComponentType { return nil }

func (s *FallDamageSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			velocity, _ := ecs.Get[components.Velocity](acc, components.VelocityType)
			if velocity.Linear.Y >= -FallThreshold {
				continue
			}
			amount := (-velocity.Linear.Y - FallThreshold) * 2
			ExecuteDamageAccessor(buf, acc, Record{Cause: "fall", Amount: amount})
		}
	}
	return nil
}

// OutOfWorldDamageSystem deals continuous damage to any entity whose
// Transform.Y has fallen below the configured world floor (spec.md §4.6
// "out-of-world (y < floor)").
type OutOfWorldDamageSystem struct {
	FloorY float64
	Amount float64
}

var outOfWorldQuery = ecs.NewQuery(components.TransformType, components.HealthType)

func (s *OutOfWorldDamageSystem) Name() string         { return "OutOfWorldDamageSystem" }
func (s *OutOfWorldDamageSystem) Kind() ecs.SystemKind { return ecs.EntityTicking }
func (s *OutOfWorldDamageSystem) Query() ecs.Query     { return outOfWorldQuery }
func (s *OutOfWorldDamageSystem) DependsOn() []string  { return nil }
func (s *OutOfWorldDamageSystem) IsParallel() bool     { return true }
func (s *OutOfWorldDamageSystem) WriteSet() []ecs.ComponentType { return nil }

func (s *OutOfWorldDamageSystem) Run(ctx context.Context, store *ecs.Store, chunks []*ecs.Chunk, dt float64, buf *ecs.CommandBuffer) error {
	amount := s.Amount
	if amount == 0 {
		amount = 4
	}
	for _, chunk := range chunks {
		for slot := 0; slot < chunk.Count(); slot++ {
			acc := ecs.NewComponentAccessor(chunk, slot)
			transform, _ := ecs.Get[components.Transform](acc, components.TransformType)
			if transform.Position.Y >= s.FloorY {
				continue
			}
			ExecuteDamageAccessor(buf, acc, Record{Cause: "void", Amount: amount})
		}
	}
	return nil
}
