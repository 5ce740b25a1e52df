// Package collab hosts the named external collaborator interfaces
// spec.md §6 treats as out-of-scope implementation detail, plus one
// reference implementation of each sufficient to drive the tick loop
// end-to-end in tests and cmd/tickserver.
package collab

import (
	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// AssetRegistry resolves string ids to immutable configs. Implementations
// must be safe for concurrent reads (spec.md §5 "read-only after
// startup; lock-free concurrent reads").
type AssetRegistry interface {
	ProjectileConfig(id string) (ProjectileConfig, bool)
	DamageCause(id string) (DamageCauseConfig, bool)
	ItemDescriptor(id string) (ItemDescriptorConfig, bool)
	WeaponBalance(id string) (WeaponBalanceConfig, bool)
}

// CollisionModule sweeps a bounding box from one position to another and
// reports the first contact (spec.md §6).
type CollisionModule interface {
	Sweep(bbox components.BoundingBox, from, to components.Vec3) components.CollisionResult
	// FluidAt reports the fluid id (if any) whose volume contains point,
	// used to compute submerged volume fraction for buoyancy (spec.md
	// §4.5 step 5).
	FluidAt(point components.Vec3) (string, bool)
	// Overlaps reports whether bbox at position intersects a solid voxel
	// and, if so, the smallest axis-aligned displacement that exits it
	// (spec.md §4.4 ItemPrePhysicsSystem "un-stick").
	Overlaps(bbox components.BoundingBox, position components.Vec3) (components.Vec3, bool)
}

// SpatialResource is the grid/octree collaborator item-merge and pickup
// radius queries hit (spec.md §6). Reads are thread-safe; NotifyMoved is
// a write-behind call made at Sync from CommandBuffer-recorded position
// changes (spec.md §5).
type SpatialResource interface {
	Query(center components.Vec3, radius float64) []ecs.Ref
	NotifyMoved(ref ecs.Ref, newPosition components.Vec3)
}

// Packet is the opaque outbound network payload an EntityViewer delivers.
// Its wire-format is out of scope (spec.md §1); only the intent to
// deliver one to a viewer matters to the tick core.
type Packet struct {
	Kind    string
	Payload map[string]any
}

// EntityViewer is the per-viewer networking outbox. Systems never call it
// mid-sync; they append packet intents which are flushed after Sync
// (spec.md §6).
type EntityViewer interface {
	Enqueue(viewer ecs.Ref, packet Packet)
}

// InteractionManager dispatches registered interactions; consumed by
// projectile impact/bounce callbacks (spec.md §6) to notify interested
// interactions of a hit without the physics code depending on
// internal/interaction directly.
type InteractionManager interface {
	NotifyProjectileContact(projectile ecs.Ref, contactPoint components.Vec3, hitEntity ecs.Ref, hasHitEntity bool)
}

// RespawnController is world-scoped: it selects a spawn location and
// re-enables the player entity, invoked from the respawn RefChange system
// chain (spec.md §4.6, §6).
type RespawnController interface {
	Respawn(buf *ecs.CommandBuffer, player ecs.Ref) (spawnPosition components.Vec3, ok bool)
}
