package interaction

import (
	"context"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// ContactConsumers builds the bounce/impact callback pair for a standard
// projectile: both forward the contact to the InteractionManager so
// registered interactions (explosions, status effects) can react, and the
// impact consumer destroys the projectile — the destroy decision belongs
// to the consumer alone (spec.md §4.5 step 4).
func ContactConsumers(mgr collab.InteractionManager) (components.BounceConsumer, components.ImpactConsumer) {
	bounce := func(ctx context.Context, buf *ecs.CommandBuffer, projectile ecs.Ref, contactPoint components.Vec3) {
		if mgr != nil {
			mgr.NotifyProjectileContact(projectile, contactPoint, ecs.Ref{}, false)
		}
	}
	impact := func(ctx context.Context, buf *ecs.CommandBuffer, projectile ecs.Ref, contactPoint components.Vec3, hitEntity ecs.Ref, hasHitEntity bool, hitZone string) {
		if mgr != nil {
			mgr.NotifyProjectileContact(projectile, contactPoint, hitEntity, hasHitEntity)
		}
		buf.DestroyEntity(projectile)
	}
	return bounce, impact
}
