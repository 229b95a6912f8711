// Package systems provides the per-agent simulation steps: spatial indexing,
// steering rules, boundary handling and integration.
package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/flock/components"
)

// SpatialGrid buckets agent indices into fixed-size cells so that neighbor
// queries only visit the 3x3 block around an agent.
//
// The grid is a snapshot: Rebuild fills it from the particle store and it is
// only read until the next Rebuild.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	originX  float64
	originY  float64
	cells    [][]int // flat grid of index lists, row-major
	cellOf   []int   // cell index per agent at last Rebuild
}

// NewSpatialGrid creates a grid covering space with floor(width/cellSize) by
// floor(height/cellSize) cells.
func NewSpatialGrid(space components.Space, cellSize float64) (*SpatialGrid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, fmt.Errorf("spatial grid: cell size must be positive, got %g", cellSize)
	}
	cols := int(space.Width() / cellSize)
	rows := int(space.Height() / cellSize)
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("spatial grid: %gx%g area with cell size %g has %dx%d cells",
			space.Width(), space.Height(), cellSize, cols, rows)
	}

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		originX:  space.Left(),
		originY:  space.Top(),
		cells:    cells,
	}, nil
}

// CellSize returns the edge length of one cell.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// Cols returns the number of cell columns.
func (g *SpatialGrid) Cols() int { return g.cols }

// Rows returns the number of cell rows.
func (g *SpatialGrid) Rows() int { return g.rows }

// Rebuild clears every bucket and re-inserts all agents of p.
func (g *SpatialGrid) Rebuild(p *components.Particles) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	n := p.Len()
	if cap(g.cellOf) < n {
		g.cellOf = make([]int, n)
	}
	g.cellOf = g.cellOf[:n]

	for i := 0; i < n; i++ {
		pos := p.Position(i)
		idx := g.cellIndex(pos.X, pos.Y)
		g.cells[idx] = append(g.cells[idx], i)
		g.cellOf[i] = idx
	}
}

// Cell returns the clamped (col, row) containing world position (x, y).
func (g *SpatialGrid) Cell(x, y float64) (col, row int) {
	col = clampInt(int(math.Floor((x-g.originX)/g.cellSize)), 0, g.cols-1)
	row = clampInt(int(math.Floor((y-g.originY)/g.cellSize)), 0, g.rows-1)
	return col, row
}

// Bucket returns the indices stored in cell (col, row). Out-of-range
// coordinates are clamped. The slice is owned by the grid.
func (g *SpatialGrid) Bucket(col, row int) []int {
	col = clampInt(col, 0, g.cols-1)
	row = clampInt(row, 0, g.rows-1)
	return g.cells[row*g.cols+col]
}

// AgentCell returns the cell agent i was placed in at the last Rebuild.
func (g *SpatialGrid) AgentCell(i int) (col, row int) {
	idx := g.cellOf[i]
	return idx % g.cols, idx / g.cols
}

// NeighborsInto appends to dst every index in the 3x3 block of cells around
// agent i's cell, clamped at the grid edges (never wrapped). The result
// includes i itself. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) NeighborsInto(dst []int, i int) []int {
	col, row := g.AgentCell(i)

	c0, c1 := max(col-1, 0), min(col+1, g.cols-1)
	r0, r1 := max(row-1, 0), min(row+1, g.rows-1)

	for r := r0; r <= r1; r++ {
		base := r * g.cols
		for c := c0; c <= c1; c++ {
			dst = append(dst, g.cells[base+c]...)
		}
	}
	return dst
}

// Neighbors returns the 3x3 neighborhood of agent i.
// Deprecated: Use NeighborsInto to avoid allocations.
func (g *SpatialGrid) Neighbors(i int) []int {
	return g.NeighborsInto(nil, i)
}

// BorderMembersInto appends every index found in the outermost rows and
// columns. Each perimeter cell is visited once and every agent lives in
// exactly one cell, so the result has no duplicates.
func (g *SpatialGrid) BorderMembersInto(dst []int) []int {
	last := (g.rows - 1) * g.cols

	// top and bottom rows
	for c := 0; c < g.cols; c++ {
		dst = append(dst, g.cells[c]...)
		if g.rows > 1 {
			dst = append(dst, g.cells[last+c]...)
		}
	}

	// left and right columns, corners already visited
	for r := 1; r < g.rows-1; r++ {
		base := r * g.cols
		dst = append(dst, g.cells[base]...)
		if g.cols > 1 {
			dst = append(dst, g.cells[base+g.cols-1]...)
		}
	}
	return dst
}

// OccupancyStats returns the number of non-empty cells and the largest bucket.
func (g *SpatialGrid) OccupancyStats() (occupied, largest int) {
	for _, c := range g.cells {
		if len(c) > 0 {
			occupied++
		}
		if len(c) > largest {
			largest = len(c)
		}
	}
	return occupied, largest
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.Cell(x, y)
	return row*g.cols + col
}
