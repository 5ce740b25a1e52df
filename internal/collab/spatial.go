package collab

import (
	"math"
	"sync"

	"github.com/embervoid/tickcore/internal/ecs"
	"github.com/embervoid/tickcore/internal/ecs/components"
)

// GridSpatialResource is a uniform spatial hash grid implementing
// SpatialResource: entities bucket by cell key, so a neighborhood query
// touches a handful of cells instead of scanning every entity.
type GridSpatialResource struct {
	mu       sync.RWMutex
	cellSize float64
	cells    map[[3]int][]entry
	position map[ecs.Ref][3]int
}

type entry struct {
	ref ecs.Ref
	pos components.Vec3
}

// NewGridSpatialResource builds an empty grid with the given cell size;
// cellSize should be on the order of the largest query radius callers
// expect so a query only ever touches a handful of neighboring cells.
func NewGridSpatialResource(cellSize float64) *GridSpatialResource {
	if cellSize <= 0 {
		cellSize = 4
	}
	return &GridSpatialResource{
		cellSize: cellSize,
		cells:    make(map[[3]int][]entry),
		position: make(map[ecs.Ref][3]int),
	}
}

func (g *GridSpatialResource) cellOf(pos components.Vec3) [3]int {
	return [3]int{
		int(math.Floor(pos.X / g.cellSize)),
		int(math.Floor(pos.Y / g.cellSize)),
		int(math.Floor(pos.Z / g.cellSize)),
	}
}

// NotifyMoved is the write-behind call made at Sync from
// CommandBuffer-recorded position changes (spec.md §5).
func (g *GridSpatialResource) NotifyMoved(ref ecs.Ref, newPosition components.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.position[ref]; ok {
		bucket := g.cells[old]
		for i, e := range bucket {
			if e.ref == ref {
				bucket[i] = bucket[len(bucket)-1]
				g.cells[old] = bucket[:len(bucket)-1]
				break
			}
		}
	}
	cell := g.cellOf(newPosition)
	g.cells[cell] = append(g.cells[cell], entry{ref: ref, pos: newPosition})
	g.position[ref] = cell
}

// Forget removes ref entirely, used when an entity is destroyed.
func (g *GridSpatialResource) Forget(ref ecs.Ref) {
	g.mu.Lock()
	defer g.mu.Unlock()
	old, ok := g.position[ref]
	if !ok {
		return
	}
	bucket := g.cells[old]
	for i, e := range bucket {
		if e.ref == ref {
			bucket[i] = bucket[len(bucket)-1]
			g.cells[old] = bucket[:len(bucket)-1]
			break
		}
	}
	delete(g.position, ref)
}

// Query returns every ref within radius of center, scanning the cube of
// cells that extends ceil(radius/cellSize)+1 cells from center's cell in
// each direction (spec.md §6).
func (g *GridSpatialResource) Query(center components.Vec3, radius float64) []ecs.Ref {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cc := g.cellOf(center)
	span := int(math.Ceil(radius/g.cellSize)) + 1
	var out []ecs.Ref
	r2 := radius * radius

	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				key := [3]int{cc[0] + dx, cc[1] + dy, cc[2] + dz}
				for _, e := range g.cells[key] {
					d := e.pos.Sub(center)
					if d.X*d.X+d.Y*d.Y+d.Z*d.Z <= r2 {
						out = append(out, e.ref)
					}
				}
			}
		}
	}
	return out
}
