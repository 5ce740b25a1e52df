package interaction

import (
	"context"
	"fmt"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
	"github.com/embervoid/tickcore/internal/projectile"
)

// ProjectileInteraction is the canonical client-authoritative firing
// action (spec.md §4.8): it requires client-supplied position+rotation,
// resolves its ProjectileConfig by string id, and emits the projectile
// creation command.
type ProjectileInteraction struct {
	ID       string // e.g. "hytale:arrow_standard"
	Registry collab.AssetRegistry
	Bounce   components.BounceConsumer
	Impact   components.ImpactConsumer

	// syncData is keyed by actor: one registered instance serves every
	// shooter of this weapon, so per-shot reconciliation state must not
	// share a single slot. Written and read only through the dispatcher,
	// which runs outside the tick's parallel phases.
	syncData map[ecs.Ref]SyncData
}

func (p *ProjectileInteraction) Name() string                  { return "ProjectileInteraction:" + p.ID }
func (p *ProjectileInteraction) WaitForDataFrom() DataSource    { return FromClient }

// FirstRun validates that client data is present, resolves ProjectileConfig
// from the AssetRegistry, computes the muzzle offset and launch velocity,
// and emits createEntity for the new projectile (spec.md §4.5 "Ballistic
// launch", §4.8 "firstRun").
func (p *ProjectileInteraction) FirstRun(ctx context.Context, buf *ecs.CommandBuffer, actor ecs.Ref, data ClientActionData, cooldown float64) (HandlerResult, error) {
	cfg, ok := p.Registry.ProjectileConfig(p.ID)
	if !ok {
		return HandlerResult{Kind: Cancel, Reason: "asset not resolved"}, fmt.Errorf("%w: projectile config %q", ErrAssetNotResolved, p.ID)
	}

	pose := projectile.ShooterPose{Position: data.Position, Pitch: data.Pitch, Yaw: data.Yaw}
	_, predictionID := projectile.Launch(buf, cfg, pose, p.Bounce, p.Impact)

	if p.syncData == nil {
		p.syncData = make(map[ecs.Ref]SyncData)
	}
	p.syncData[actor] = SyncData{
		ShooterTransform: components.Transform{Position: data.Position, Rotation: components.Vec3{X: data.Pitch, Y: data.Yaw}},
		PredictionID:     predictionID.String(),
	}
	return HandlerResult{Kind: Continue}, nil
}

// SimulateFirstRun fills the outbound sync-data block with the server's
// view of the shooter's transform and the projectile's prediction UUID,
// allowing clients to reconcile (spec.md §4.8). An actor that never fired
// this interaction gets the zero SyncData.
func (p *ProjectileInteraction) SimulateFirstRun(ctx context.Context, actor ecs.Ref) (SyncData, error) {
	return p.syncData[actor], nil
}
