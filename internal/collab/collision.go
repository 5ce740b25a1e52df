package collab

import (
	"math"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// VoxelCollisionModule is a flat voxel-solidity grid plus a simple
// entity-bbox list, implementing CollisionModule.Sweep.
// Solid voxels are keyed by integer (x, y, z); entity boxes are
// checked after block contact so a projectile cannot clip through a
// player while stuck in a wall.
type VoxelCollisionModule struct {
	solid  map[[3]int]bool
	fluids map[[3]int]string
	entityBoxes map[ecs.Ref]entityBox
}

type entityBox struct {
	Center components.Vec3
	Box     components.BoundingBox
}

// NewVoxelCollisionModule constructs an empty grid; callers populate it
// via SetSolid/SetFluid/SetEntityBox as the world loads or entities move.
func NewVoxelCollisionModule() *VoxelCollisionModule {
	return &VoxelCollisionModule{
		solid:       make(map[[3]int]bool),
		fluids:      make(map[[3]int]string),
		entityBoxes: make(map[ecs.Ref]entityBox),
	}
}

func (m *VoxelCollisionModule) SetSolid(x, y, z int, solid bool) {
	key := [3]int{x, y, z}
	if solid {
		m.solid[key] = true
	} else {
		delete(m.solid, key)
	}
}

func (m *VoxelCollisionModule) SetFluid(x, y, z int, fluidID string) {
	m.fluids[[3]int{x, y, z}] = fluidID
}

func (m *VoxelCollisionModule) SetEntityBox(ref ecs.Ref, center components.Vec3, box components.BoundingBox) {
	m.entityBoxes[ref] = entityBox{Center: center, Box: box}
}

func (m *VoxelCollisionModule) ClearEntityBox(ref ecs.Ref) { delete(m.entityBoxes, ref) }

func voxelOf(v components.Vec3) [3]int {
	return [3]int{int(math.Floor(v.X)), int(math.Floor(v.Y)), int(math.Floor(v.Z))}
}

// Sweep walks the segment from→to in small fixed steps sized to the
// bounding box's smallest extent, testing voxel solidity at each step;
// this keeps the reference implementation simple and correct for the
// item/projectile speeds the tick core deals with, at the cost of exact
// continuous-time TOI precision a production broadphase would want.
func (m *VoxelCollisionModule) Sweep(bbox components.BoundingBox, from, to components.Vec3) components.CollisionResult {
	delta := to.Sub(from)
	dist := math.Sqrt(delta.X*delta.X + delta.Y*delta.Y + delta.Z*delta.Z)
	if dist == 0 {
		return components.CollisionResult{Kind: components.ContactNone}
	}

	step := math.Min(bbox.HalfExtents.X, math.Min(bbox.HalfExtents.Y, bbox.HalfExtents.Z))
	if step <= 0 {
		step = 0.1
	}
	steps := int(math.Ceil(dist / step))
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pos := components.Vec3{X: from.X + delta.X*t, Y: from.Y + delta.Y*t, Z: from.Z + delta.Z*t}
		voxel := voxelOf(pos)
		if m.solid[voxel] {
			return components.CollisionResult{
				Hit:     true,
				TEnter:  t,
				Normal:  normalAgainst(delta),
				Kind:    components.ContactBlock,
				BlockID: "solid",
			}
		}
		for ref, eb := range m.entityBoxes {
			if aabbOverlap(pos, bbox, eb.Center, eb.Box) {
				return components.CollisionResult{
					Hit:    true,
					TEnter: t,
					Normal: normalAgainst(delta),
					Kind:   components.ContactEntity,
					Entity: ref,
				}
			}
		}
	}
	return components.CollisionResult{Kind: components.ContactNone}
}

// Overlaps samples the voxel cells under bbox's footprint at position and,
// if any is solid, returns a displacement that pushes the box straight up
// above the tallest solid voxel found — the smallest axis-aligned exit
// for the common "spawned inside the floor" case (spec.md §4.4).
func (m *VoxelCollisionModule) Overlaps(bbox components.BoundingBox, position components.Vec3) (components.Vec3, bool) {
	min, max := bbox.Min(position), bbox.Max(position)
	highestSolidTop := math.Inf(-1)
	found := false

	for x := int(math.Floor(min.X)); x <= int(math.Floor(max.X)); x++ {
		for y := int(math.Floor(min.Y)); y <= int(math.Floor(max.Y)); y++ {
			for z := int(math.Floor(min.Z)); z <= int(math.Floor(max.Z)); z++ {
				if m.solid[[3]int{x, y, z}] {
					found = true
					top := float64(y) + 1
					if top > highestSolidTop {
						highestSolidTop = top
					}
				}
			}
		}
	}
	if !found {
		return components.Vec3{}, false
	}
	wantMinY := highestSolidTop
	delta := wantMinY - min.Y
	if delta <= 0 {
		return components.Vec3{}, false
	}
	return components.Vec3{Y: delta}, true
}

func (m *VoxelCollisionModule) FluidAt(point components.Vec3) (string, bool) {
	id, ok := m.fluids[voxelOf(point)]
	return id, ok
}

func aabbOverlap(posA components.Vec3, boxA components.BoundingBox, posB components.Vec3, boxB components.BoundingBox) bool {
	aMin, aMax := boxA.Min(posA), boxA.Max(posA)
	bMin, bMax := boxB.Min(posB), boxB.Max(posB)
	return aMin.X <= bMax.X && aMax.X >= bMin.X &&
		aMin.Y <= bMax.Y && aMax.Y >= bMin.Y &&
		aMin.Z <= bMax.Z && aMax.Z >= bMin.Z
}

// normalAgainst returns the unit vector opposing the dominant axis of
// travel, a reasonable incident-normal approximation for a voxel grid
// where faces are axis-aligned.
func normalAgainst(delta components.Vec3) components.Vec3 {
	ax, ay, az := math.Abs(delta.X), math.Abs(delta.Y), math.Abs(delta.Z)
	switch {
	case ay >= ax && ay >= az:
		if delta.Y > 0 {
			return components.Vec3{Y: -1}
		}
		return components.Vec3{Y: 1}
	case ax >= ay && ax >= az:
		if delta.X > 0 {
			return components.Vec3{X: -1}
		}
		return components.Vec3{X: 1}
	default:
		if delta.Z > 0 {
			return components.Vec3{Z: -1}
		}
		return components.Vec3{Z: 1}
	}
}
