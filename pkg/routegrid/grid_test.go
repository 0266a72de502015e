package routegrid

import (
	"testing"

	"github.com/dshills/boardlayout/pkg/geom"
)

func testSquare() []geom.Point {
	return []geom.Point{{0, 0}, {40, 0}, {40, 40}, {0, 40}}
}

func TestNewBlocksOutsideInset(t *testing.T) {
	g := New(testSquare(), 1.0, 2.0)
	center := g.WorldToGrid(20, 20)
	if !g.IsFree(center) {
		t.Error("expected the board center to be free")
	}
	corner := g.WorldToGrid(0.5, 0.5)
	if !g.IsPermanentlyBlocked(corner) {
		t.Error("expected a cell near the outline corner to be permanently blocked")
	}
}

func TestWorldToGridRoundTrip(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	c := g.WorldToGrid(20, 20)
	w := g.GridToWorld(c)
	if w[0] < 19 || w[0] > 21 || w[1] < 19 || w[1] > 21 {
		t.Errorf("expected round-trip near (20, 20), got %v", w)
	}
}

func TestBlockAndFreeCell(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	c := g.WorldToGrid(20, 20)
	g.BlockCell(c)
	if g.IsFree(c) {
		t.Error("expected cell to be blocked")
	}
	g.FreeCell(c)
	if !g.IsFree(c) {
		t.Error("expected cell to be freed")
	}
}

func TestForceFreeCellOverridesPermanentBlock(t *testing.T) {
	g := New(testSquare(), 1.0, 2.0)
	corner := g.WorldToGrid(0.5, 0.5)
	g.ForceFreeCell(corner)
	if !g.IsFree(corner) {
		t.Error("expected force-freed cell to be free")
	}
}

func TestBlockTraceMarksPathAndClearance(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	path := []Cell{{10, 10}, {11, 10}, {12, 10}}
	g.BlockTrace(path, 1)

	if g.State(Cell{10, 10}) != TracePath {
		t.Errorf("expected path cell to be TracePath, got %v", g.State(Cell{10, 10}))
	}
	if g.State(Cell{10, 9}) != Blocked {
		t.Errorf("expected clearance cell to be Blocked, got %v", g.State(Cell{10, 9}))
	}
}

func TestFreeTraceClearsPathAndClearance(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	path := []Cell{{10, 10}, {11, 10}}
	g.BlockTrace(path, 1)
	g.FreeTrace(path, 1)

	if !g.IsFree(Cell{10, 10}) {
		t.Error("expected path cell to be freed")
	}
	if !g.IsFree(Cell{10, 9}) {
		t.Error("expected clearance cell to be freed")
	}
}

func TestProtectedCellSkipsClearanceBlock(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	protectedCell := Cell{10, 9}
	g.ProtectCell(protectedCell)

	path := []Cell{{10, 10}}
	g.BlockTrace(path, 1)

	if !g.IsFree(protectedCell) {
		t.Error("expected protected cell to stay free despite being in the clearance zone")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	clone := g.Clone()
	c := Cell{5, 5}
	clone.BlockCell(c)
	if g.State(c) != Free {
		t.Error("mutating the clone should not affect the original")
	}
}

func TestSnapshotRestore(t *testing.T) {
	g := New(testSquare(), 1.0, 1.0)
	snap := g.Snapshot()
	g.BlockCell(Cell{5, 5})
	g.Restore(snap)
	if !g.IsFree(Cell{5, 5}) {
		t.Error("expected restore to revert the block")
	}
}
