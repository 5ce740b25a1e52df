// Package components defines the plain-data component types the tick
// pipelines operate on. Every type here is inert; behavior lives entirely
// in the systems under internal/itemphysics, internal/projectile,
// internal/damage, internal/death and internal/respawn.
package components

import "github.com/embervoid/tickcore/internal/ecs"

// Vec3 is the plain 3D float64 vector used by every spatial component.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Transform is position + rotation (+ optional scale) in world space.
// Rotation is stored as Euler degrees (pitch/yaw/roll about X/Y/Z).
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// Velocity is the entity's linear velocity in world units/second.
type Velocity struct {
	Linear Vec3
}

// BoundingBox is axis-aligned extents in entity-local space, centered on
// Transform.Position.
type BoundingBox struct {
	HalfExtents Vec3
}

// Min returns the world-space minimum corner for a box at position.
func (b BoundingBox) Min(position Vec3) Vec3 { return position.Sub(b.HalfExtents) }

// Max returns the world-space maximum corner for a box at position.
func (b BoundingBox) Max(position Vec3) Vec3 { return position.Add(b.HalfExtents) }

// PhysicsValues holds the per-entity constants spec.md §3 lists: mass,
// drag, bounciness and restitution caps.
type PhysicsValues struct {
	Mass           float64
	GravityScale   float64
	Drag           float64
	Bounciness     float64
	MaxBounces     int
	MaxSpeed       float64
}

// StatKind identifies one entry of the Health stat map, so the damage
// gather/filter systems share one component for health, armor and breath.
type StatKind int

const (
	StatHealth StatKind = iota
	StatMaxHealth
	StatArmor
	StatBreath
)

// Health is the stat-map component damage/death read and write.
type Health struct {
	Stats map[StatKind]float64
}

// Get returns the current value of k, or 0 if unset.
func (h Health) Get(k StatKind) float64 { return h.Stats[k] }

// Component type registrations. Every component used by a CommandBuffer
// or Query must be registered exactly once; package-level vars guarantee
// this happens before any Store is constructed, per ecs.RegisterComponent.
var (
	TransformType    = ecs.RegisterComponent[Transform]("transform")
	VelocityType     = ecs.RegisterComponent[Velocity]("velocity")
	BoundingBoxType  = ecs.RegisterComponent[BoundingBox]("bounding_box")
	PhysicsValuesType = ecs.RegisterComponent[PhysicsValues]("physics_values")
	HealthType       = ecs.RegisterComponent[Health]("health")

	InteractableType       = ecs.RegisterComponent[Interactable]("interactable")
	PreventItemMergingType = ecs.RegisterComponent[PreventItemMerging]("prevent_item_merging")
	PreventPickupType      = ecs.RegisterComponent[PreventPickup]("prevent_pickup")

	NetworkVisibilityType = ecs.RegisterComponent[NetworkVisibility]("network_visibility")
	WeaponBalanceRefType   = ecs.RegisterComponent[WeaponBalanceRef]("weapon_balance_ref")
	StatusEffectsType      = ecs.RegisterComponent[StatusEffects]("status_effects")
	AnimationStateType     = ecs.RegisterComponent[AnimationState]("animation_state")
	PlayerMetadataType     = ecs.RegisterComponent[PlayerMetadata]("player_metadata")
	DeathMarkerType        = ecs.RegisterComponent[DeathMarker]("death_marker")
	UnkillableType         = ecs.RegisterComponent[Unkillable]("unkillable")
	InvulnerabilityType    = ecs.RegisterComponent[Invulnerability]("invulnerability")
)

// Unkillable is a tag component; damage against an entity carrying it is
// cancelled by the unkillable filter (spec.md §4.6).
type Unkillable struct{}

// Invulnerability is a post-hit grace window: while RemainingSeconds is
// positive, incoming damage against the entity is cancelled.
type Invulnerability struct {
	RemainingSeconds float64
}

// AnimationState names the animation the entity is currently playing;
// death sets it from the fatal cause (spec.md §4.6 step 4).
type AnimationState struct {
	Name string
}

// PlayerMetadata is the per-player bookkeeping the respawn chain resets.
type PlayerMetadata struct {
	Deaths         int
	LastDeathCause string
	TimeSinceSpawn float64
}

// DeathMarker is carried by the map-marker entity spawned at a player's
// death position (spec.md §4.6 step 8).
type DeathMarker struct {
	Player   ecs.Ref
	Position Vec3
}

// StatusEffects is the active-effect set death's ClearEntityEffects step
// wipes on death (spec.md §4.6 step 1).
type StatusEffects struct {
	Effects map[string]float64 // effect id -> remaining seconds
}

// Interactable is a tag component excluding an item entity from automatic
// merge/pickup (spec.md §4.4).
type Interactable struct{}

// PreventItemMerging is a singleton tag component suppressing
// ItemMergeSystem for the entity it is attached to.
type PreventItemMerging struct{}

// PreventPickup is a singleton tag component suppressing automatic pickup.
type PreventPickup struct{}

// NetworkVisibility is the per-viewer visibility set EntityTrackerUpdate
// (internal/projectile) diffs each tick to detect newly-visible
// viewer→entity pairs (spec.md §4.5).
type NetworkVisibility struct {
	VisibleTo map[ecs.Ref]bool
}

// WeaponBalanceRef is a string asset id that AssetRegistry.WeaponBalance
// resolves to a WeaponBalanceConfig. ProjectileInteraction.FirstRun does
// not read it; it resolves its ProjectileConfig from its own ID.
type WeaponBalanceRef struct {
	AssetID string
}
