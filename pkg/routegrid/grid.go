// Package routegrid discretizes the board outline into a Manhattan
// routing grid: cells outside the outline (or too close to its edge)
// are permanently blocked, component bodies that block routing add
// further permanent blocks, and routed traces add temporary blocks
// that rip-up can clear.
package routegrid

import (
	"math"

	"github.com/dshills/boardlayout/pkg/geom"
)

// CellState is the state of a single routing grid cell.
type CellState byte

const (
	Free CellState = iota
	Blocked
	PermanentlyBlocked
	TracePath
)

// Cell is a grid coordinate (column, row).
type Cell struct {
	X, Y int
}

// Grid is a 2D Manhattan routing grid covering the outline's bounding
// box, with its origin at the box's lower-left corner.
type Grid struct {
	Resolution    float64
	EdgeClearance float64
	OriginX       float64
	OriginY       float64
	Width         int
	Height        int

	cells     []CellState
	protected map[Cell]bool
	verts     []geom.Point
}

// New builds a routing grid from an outline polygon, blocking every
// cell whose center falls outside the outline inset by edgeClearance.
func New(verts []geom.Point, resolution, edgeClearance float64) *Grid {
	xmin, ymin, xmax, ymax := bounds(verts)
	g := &Grid{
		Resolution:    resolution,
		EdgeClearance: edgeClearance,
		OriginX:       xmin,
		OriginY:       ymin,
		Width:         int(math.Ceil((xmax-xmin)/resolution)) + 1,
		Height:        int(math.Ceil((ymax-ymin)/resolution)) + 1,
		protected:     make(map[Cell]bool),
		verts:         verts,
	}
	g.cells = make([]CellState, g.Width*g.Height)

	for gy := 0; gy < g.Height; gy++ {
		wy := g.OriginY + (float64(gy)+0.5)*resolution
		for gx := 0; gx < g.Width; gx++ {
			wx := g.OriginX + (float64(gx)+0.5)*resolution
			if !g.insideInset(wx, wy) {
				g.cells[gy*g.Width+gx] = PermanentlyBlocked
			}
		}
	}
	return g
}

func (g *Grid) insideInset(wx, wy float64) bool {
	if !geom.PolygonContains(g.verts, wx, wy) {
		return false
	}
	return geom.MinDistToBoundary(wx, wy, g.verts) >= g.EdgeClearance
}

func bounds(verts []geom.Point) (xmin, ymin, xmax, ymax float64) {
	xmin, ymin = verts[0][0], verts[0][1]
	xmax, ymax = xmin, ymin
	for _, v := range verts[1:] {
		xmin = math.Min(xmin, v[0])
		xmax = math.Max(xmax, v[0])
		ymin = math.Min(ymin, v[1])
		ymax = math.Max(ymax, v[1])
	}
	return
}

// WorldToGrid converts world millimeters to a clamped grid cell.
func (g *Grid) WorldToGrid(wx, wy float64) Cell {
	gx := int(math.Round((wx-g.OriginX)/g.Resolution - 0.5))
	gy := int(math.Round((wy-g.OriginY)/g.Resolution - 0.5))
	if gx < 0 {
		gx = 0
	}
	if gx > g.Width-1 {
		gx = g.Width - 1
	}
	if gy < 0 {
		gy = 0
	}
	if gy > g.Height-1 {
		gy = g.Height - 1
	}
	return Cell{gx, gy}
}

// GridToWorld converts a grid cell to its world-space center, in mm.
func (g *Grid) GridToWorld(c Cell) geom.Point {
	return geom.Point{
		g.OriginX + (float64(c.X)+0.5)*g.Resolution,
		g.OriginY + (float64(c.Y)+0.5)*g.Resolution,
	}
}

// InBounds reports whether a cell lies within the grid's dimensions.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

func (g *Grid) idx(c Cell) int { return c.Y*g.Width + c.X }

// IsFree reports whether a cell is free and in bounds.
func (g *Grid) IsFree(c Cell) bool {
	return g.InBounds(c) && g.cells[g.idx(c)] == Free
}

// IsBlocked reports whether a cell is anything but free (out-of-bounds
// counts as blocked).
func (g *Grid) IsBlocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cells[g.idx(c)] != Free
}

// IsPermanentlyBlocked reports whether a cell is permanently blocked
// (out-of-bounds counts as permanently blocked).
func (g *Grid) IsPermanentlyBlocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cells[g.idx(c)] == PermanentlyBlocked
}

// State returns a cell's raw state, Free for out-of-bounds cells.
func (g *Grid) State(c Cell) CellState {
	if !g.InBounds(c) {
		return Free
	}
	return g.cells[g.idx(c)]
}

// BlockCell temporarily blocks a free cell.
func (g *Grid) BlockCell(c Cell) {
	if g.InBounds(c) && g.cells[g.idx(c)] == Free {
		g.cells[g.idx(c)] = Blocked
	}
}

// PermanentlyBlockCell marks a cell as permanently blocked.
func (g *Grid) PermanentlyBlockCell(c Cell) {
	if g.InBounds(c) {
		g.cells[g.idx(c)] = PermanentlyBlocked
	}
}

// FreeCell clears a temporarily-blocked cell back to free. Permanent
// blocks are untouched.
func (g *Grid) FreeCell(c Cell) {
	if g.InBounds(c) && g.cells[g.idx(c)] == Blocked {
		g.cells[g.idx(c)] = Free
	}
}

// ForceFreeCell forces a cell to Free even if permanently blocked,
// used to guarantee pin positions stay reachable even when the
// component body blocks routing.
func (g *Grid) ForceFreeCell(c Cell) {
	if g.InBounds(c) {
		g.cells[g.idx(c)] = Free
	}
}

// BlockRectWorld blocks every cell whose center falls inside a
// world-space rectangle.
func (g *Grid) BlockRectWorld(cxMM, cyMM, halfWMM, halfHMM float64, permanent bool) {
	left, right := cxMM-halfWMM, cxMM+halfWMM
	bottom, top := cyMM-halfHMM, cyMM+halfHMM

	gxMin := maxInt(0, int(math.Floor((left-g.OriginX)/g.Resolution)))
	gxMax := minInt(g.Width-1, int(math.Ceil((right-g.OriginX)/g.Resolution)))
	gyMin := maxInt(0, int(math.Floor((bottom-g.OriginY)/g.Resolution)))
	gyMax := minInt(g.Height-1, int(math.Ceil((top-g.OriginY)/g.Resolution)))

	for gy := gyMin; gy <= gyMax; gy++ {
		for gx := gxMin; gx <= gxMax; gx++ {
			c := Cell{gx, gy}
			if permanent {
				g.PermanentlyBlockCell(c)
			} else {
				g.BlockCell(c)
			}
		}
	}
}

// ProtectCell marks a cell as a protected pin-pad position: clearance
// zones from block_trace skip it so pads stay reachable.
func (g *Grid) ProtectCell(c Cell) {
	if g.InBounds(c) {
		g.protected[c] = true
	}
}

func defaultClearanceCells(traceWidthMM, traceClearanceMM, resolution float64) int {
	cells := int(math.Ceil((traceWidthMM/2 + traceClearanceMM) / resolution))
	if cells < 1 {
		return 1
	}
	return cells
}

// BlockTrace marks a routed path's cells as TracePath, and its
// clearance envelope as Blocked, skipping protected pin pads so other
// nets can still reach them.
func (g *Grid) BlockTrace(path []Cell, clearanceCells int) {
	pathSet := make(map[Cell]bool, len(path))
	for _, c := range path {
		pathSet[c] = true
	}

	for c := range pathSet {
		if g.InBounds(c) {
			v := g.cells[g.idx(c)]
			if v == Free || v == Blocked {
				g.cells[g.idx(c)] = TracePath
			}
		}
	}

	for _, c := range path {
		for dy := -clearanceCells; dy <= clearanceCells; dy++ {
			for dx := -clearanceCells; dx <= clearanceCells; dx++ {
				n := Cell{c.X + dx, c.Y + dy}
				if !pathSet[n] && !g.protected[n] {
					g.BlockCell(n)
				}
			}
		}
	}
}

// FreeTrace frees a previously-blocked trace path: both the path
// cells and its clearance zone. Permanent blocks are never touched.
func (g *Grid) FreeTrace(path []Cell, clearanceCells int) {
	for _, c := range path {
		for dy := -clearanceCells; dy <= clearanceCells; dy++ {
			for dx := -clearanceCells; dx <= clearanceCells; dx++ {
				n := Cell{c.X + dx, c.Y + dy}
				if g.InBounds(n) {
					v := g.cells[g.idx(n)]
					if v == Blocked || v == TracePath {
						g.cells[g.idx(n)] = Free
					}
				}
			}
		}
	}
}

// Clone returns a deep copy of the grid: cell array and protected set
// are copied so mutations to the clone never affect the original.
func (g *Grid) Clone() *Grid {
	clone := &Grid{
		Resolution:    g.Resolution,
		EdgeClearance: g.EdgeClearance,
		OriginX:       g.OriginX,
		OriginY:       g.OriginY,
		Width:         g.Width,
		Height:        g.Height,
		verts:         g.verts,
	}
	clone.cells = make([]CellState, len(g.cells))
	copy(clone.cells, g.cells)
	clone.protected = make(map[Cell]bool, len(g.protected))
	for c := range g.protected {
		clone.protected[c] = true
	}
	return clone
}

// Snapshot returns a copy of the cell state array for a later Restore.
func (g *Grid) Snapshot() []CellState {
	snap := make([]CellState, len(g.cells))
	copy(snap, g.cells)
	return snap
}

// Restore replaces the grid's cell state from a prior Snapshot.
func (g *Grid) Restore(snap []CellState) {
	copy(g.cells, snap)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
