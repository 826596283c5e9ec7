package main

import "math"

// SpatialHash is a lazy, unbounded uniform grid for broad-phase collision
// queries. Entities are inserted into every cell their bounding square
// overlaps, and Query scans the 3x3 neighborhood of each overlapped cell, so
// cell size must be >= 2x the largest entity radius for neighbor scans to
// have no false negatives. False positives are expected; callers narrow-phase
// with CheckCollision.
//
// The grid holds no memory of previous ticks: Clear it and reinsert the live
// entity set before issuing queries. Single game-loop goroutine only.
type SpatialHash struct {
	cellSize float64
	cells    map[spatialCell][]Entity
	primary  map[Entity]spatialCell // entity -> minimum overlapped cell, diagnostics only
}

// spatialCell keys one grid bucket. Coordinates are floor(x/cellSize) and may
// be negative; empty cells simply don't exist in the map.
type spatialCell struct {
	CX, CY int
}

// NewSpatialHash creates a hash with the given cell size.
func NewSpatialHash(cellSize float64) *SpatialHash {
	if cellSize <= 0 {
		panic("spatial: cell size must be positive")
	}
	return &SpatialHash{
		cellSize: cellSize,
		cells:    make(map[spatialCell][]Entity),
		primary:  make(map[Entity]spatialCell),
	}
}

func (h *SpatialHash) cellAt(x, y float64) spatialCell {
	return spatialCell{
		CX: int(math.Floor(x / h.cellSize)),
		CY: int(math.Floor(y / h.cellSize)),
	}
}

// cellRange returns the inclusive cell range covered by a bounding box.
func (h *SpatialHash) cellRange(minX, minY, maxX, maxY float64) (lo, hi spatialCell) {
	return h.cellAt(minX, minY), h.cellAt(maxX, maxY)
}

// Clear empties all cells and the entity bookkeeping. Call once per tick
// before reinserting the live entity set.
func (h *SpatialHash) Clear() {
	clear(h.cells)
	clear(h.primary)
}

// Insert adds an entity to every cell its bounding square (position +/- radius)
// overlaps. An entity spanning k x m cells costs O(k*m); with radius well
// under the cell size this is a single append.
func (h *SpatialHash) Insert(e Entity) {
	b := e.body()
	lo, hi := h.cellRange(b.X-b.Radius, b.Y-b.Radius, b.X+b.Radius, b.Y+b.Radius)
	for cy := lo.CY; cy <= hi.CY; cy++ {
		for cx := lo.CX; cx <= hi.CX; cx++ {
			k := spatialCell{cx, cy}
			h.cells[k] = append(h.cells[k], e)
		}
	}
	h.primary[e] = lo
}

// Query returns every distinct entity found in the 3x3 neighborhoods of the
// cells e overlaps, excluding e itself. Result order is unspecified; the
// slice is computed fresh per call.
func (h *SpatialHash) Query(e Entity) []Entity {
	b := e.body()
	lo, hi := h.cellRange(b.X-b.Radius, b.Y-b.Radius, b.X+b.Radius, b.Y+b.Radius)

	seen := map[Entity]struct{}{e: {}}
	var result []Entity
	for cy := lo.CY - 1; cy <= hi.CY+1; cy++ {
		for cx := lo.CX - 1; cx <= hi.CX+1; cx++ {
			for _, other := range h.cells[spatialCell{cx, cy}] {
				if _, ok := seen[other]; ok {
					continue
				}
				seen[other] = struct{}{}
				result = append(result, other)
			}
		}
	}
	return result
}

// QueryPoint returns distinct entities in the cell containing (x, y) and its
// 8 neighbors. No self-exclusion: there is no querying entity.
func (h *SpatialHash) QueryPoint(x, y float64) []Entity {
	c := h.cellAt(x, y)
	seen := make(map[Entity]struct{})
	var result []Entity
	for cy := c.CY - 1; cy <= c.CY+1; cy++ {
		for cx := c.CX - 1; cx <= c.CX+1; cx++ {
			for _, e := range h.cells[spatialCell{cx, cy}] {
				if _, ok := seen[e]; ok {
					continue
				}
				seen[e] = struct{}{}
				result = append(result, e)
			}
		}
	}
	return result
}

// QueryRect returns distinct entities registered in cells overlapped by the
// axis-aligned box (x1,y1)-(x2,y2). Used for area lookups such as
// spawn-placement checks.
func (h *SpatialHash) QueryRect(x1, y1, x2, y2 float64) []Entity {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	lo, hi := h.cellRange(x1, y1, x2, y2)

	seen := make(map[Entity]struct{})
	var result []Entity
	for cy := lo.CY; cy <= hi.CY; cy++ {
		for cx := lo.CX; cx <= hi.CX; cx++ {
			for _, e := range h.cells[spatialCell{cx, cy}] {
				if _, ok := seen[e]; ok {
					continue
				}
				seen[e] = struct{}{}
				result = append(result, e)
			}
		}
	}
	return result
}

// EntityCount returns the number of entities currently inserted.
func (h *SpatialHash) EntityCount() int {
	return len(h.primary)
}

// CellCount returns the number of occupied cells.
func (h *SpatialHash) CellCount() int {
	return len(h.cells)
}
