package collab

import (
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// FixedRespawnController relocates every respawning player to one of a
// configured set of spawn points, cycling round-robin. It is the
// reference RespawnController; a real deployment
// would instead consult world/region state, but the tick core only needs
// the interface's contract exercised end-to-end.
type FixedRespawnController struct {
	spawnPoints []components.Vec3
	next        int
}

// NewFixedRespawnController builds a controller cycling through points.
// With no points it always falls back to the origin.
func NewFixedRespawnController(points ...components.Vec3) *FixedRespawnController {
	if len(points) == 0 {
		points = []components.Vec3{{}}
	}
	return &FixedRespawnController{spawnPoints: points}
}

func (c *FixedRespawnController) Respawn(buf *ecs.CommandBuffer, player ecs.Ref) (components.Vec3, bool) {
	point := c.spawnPoints[c.next%len(c.spawnPoints)]
	c.next++
	return point, true
}

// NoopInteractionManager is a reference InteractionManager that records
// nothing. world.Initialize installs it when Deps.Interactions is nil;
// this module has no other InteractionManager implementation.
type NoopInteractionManager struct{}

func (NoopInteractionManager) NotifyProjectileContact(projectile ecs.Ref, contactPoint components.Vec3, hitEntity ecs.Ref, hasHitEntity bool) {
}
