// Package pathfind implements A* Manhattan pathfinding over a
// routing grid: point-to-point routing with an L-shaped fast path,
// and multi-source-to-tree routing for growing a net's Steiner tree,
// with an optional crossing-aware mode used during rip-up.
package pathfind

import (
	"container/heap"

	"github.com/dshills/boardlayout/pkg/routegrid"
)

// dirs are the four Manhattan step directions, indexed 0-3.
var dirs = [4]routegrid.Cell{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

type item struct {
	f, counter int
	cell       routegrid.Cell
	dir        int // -1 for the seed item
	parent     routegrid.Cell
	hasParent  bool
}

type openHeap []item

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].counter < h[j].counter
}
func (h openHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x any)        { *h = append(*h, x.(item)) }
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

func manhattan(a, b routegrid.Cell) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FindPath finds a single-source, single-sink Manhattan path, trying
// a fast L-shaped route before falling back to full A*. Returns
// (path, true) on success, or (nil, false) if no path exists.
func FindPath(grid *routegrid.Grid, source, sink routegrid.Cell, turnPenalty int) ([]routegrid.Cell, bool) {
	if grid.State(source) == routegrid.TracePath || grid.State(sink) == routegrid.TracePath {
		return nil, false
	}
	if source == sink {
		return []routegrid.Cell{source}, true
	}

	if path, ok := tryLRoute(grid, source, sink); ok {
		return path, true
	}

	open := &openHeap{{f: manhattan(source, sink), counter: 0, cell: source, dir: -1}}
	heap.Init(open)
	gScores := map[routegrid.Cell]int{source: 0}
	parents := map[routegrid.Cell]struct {
		cell routegrid.Cell
		dir  int
	}{}
	closed := map[routegrid.Cell]bool{}
	counter := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(item)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if cur.cell == sink {
			return reconstruct(cur.cell, parents), true
		}

		curG := gScores[cur.cell]
		for d, delta := range dirs {
			next := routegrid.Cell{X: cur.cell.X + delta.X, Y: cur.cell.Y + delta.Y}
			if !grid.InBounds(next) || closed[next] {
				continue
			}
			state := grid.State(next)
			if state != routegrid.Free {
				if state == routegrid.TracePath {
					continue
				}
				if next != sink && next != source {
					continue
				}
			}

			isTurn := cur.dir != -1 && cur.dir != d
			cost := 1
			if isTurn {
				cost += turnPenalty
			}
			tentativeG := curG + cost

			if existing, ok := gScores[next]; !ok || tentativeG < existing {
				gScores[next] = tentativeG
				counter++
				parents[next] = struct {
					cell routegrid.Cell
					dir  int
				}{cur.cell, d}
				heap.Push(open, item{f: tentativeG + manhattan(next, sink), counter: counter, cell: next, dir: d})
			}
		}
	}

	return nil, false
}

func reconstruct(sink routegrid.Cell, parents map[routegrid.Cell]struct {
	cell routegrid.Cell
	dir  int
}) []routegrid.Cell {
	path := []routegrid.Cell{sink}
	cur := sink
	for {
		p, ok := parents[cur]
		if !ok {
			break
		}
		path = append(path, p.cell)
		cur = p.cell
	}
	// Reverse in place.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindPathToTree searches from one or more source cells to any cell
// of an existing routing tree, simultaneously, returning the shortest
// path from any source to any tree cell. When allowCrossings is true,
// non-permanently-blocked cells may be traversed at crossingPenalty
// cost, used during rip-up to discover minimum-crossing paths;
// another net's committed trace is never crossable.
func FindPathToTree(grid *routegrid.Grid, sources []routegrid.Cell, tree map[routegrid.Cell]bool, turnPenalty, crossingPenalty int, allowCrossings bool) ([]routegrid.Cell, bool) {
	for _, s := range sources {
		if tree[s] {
			return []routegrid.Cell{s}, true
		}
	}

	treeList := make([]routegrid.Cell, 0, len(tree))
	for c := range tree {
		treeList = append(treeList, c)
	}
	minH := func(c routegrid.Cell) int {
		best := manhattan(c, treeList[0])
		for _, t := range treeList[1:] {
			if d := manhattan(c, t); d < best {
				best = d
				if d == 0 {
					return 0
				}
			}
		}
		return best
	}

	open := &openHeap{}
	heap.Init(open)
	gScores := map[routegrid.Cell]int{}
	sourceKeys := map[routegrid.Cell]bool{}
	counter := 0

	for _, s := range sources {
		if !grid.InBounds(s) {
			continue
		}
		state := grid.State(s)
		if state == routegrid.TracePath || state == routegrid.PermanentlyBlocked {
			continue
		}
		sourceKeys[s] = true
		gScores[s] = 0
		heap.Push(open, item{f: minH(s), counter: counter, cell: s, dir: -1})
		counter++
	}
	if open.Len() == 0 {
		return nil, false
	}

	parents := map[routegrid.Cell]struct {
		cell routegrid.Cell
		dir  int
	}{}
	closed := map[routegrid.Cell]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(item)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if tree[cur.cell] {
			return reconstruct(cur.cell, parents), true
		}

		curG := gScores[cur.cell]
		for d, delta := range dirs {
			next := routegrid.Cell{X: cur.cell.X + delta.X, Y: cur.cell.Y + delta.Y}
			if !grid.InBounds(next) || closed[next] {
				continue
			}

			isTreeCell := tree[next]
			state := grid.State(next)
			cellFree := state == routegrid.Free

			if !cellFree && !isTreeCell {
				if state == routegrid.TracePath {
					continue
				}
				if !allowCrossings || state == routegrid.PermanentlyBlocked {
					continue
				}
			}

			isTurn := cur.dir != -1 && cur.dir != d
			cost := 1
			if isTurn {
				cost += turnPenalty
			}
			if !cellFree && !isTreeCell {
				cost += crossingPenalty
			}
			tentativeG := curG + cost

			if existing, ok := gScores[next]; !ok || tentativeG < existing {
				gScores[next] = tentativeG
				counter++
				parents[next] = struct {
					cell routegrid.Cell
					dir  int
				}{cur.cell, d}
				heap.Push(open, item{f: tentativeG + minH(next), counter: counter, cell: next, dir: d})
			}
		}
	}

	return nil, false
}

func tryLRoute(grid *routegrid.Grid, source, sink routegrid.Cell) ([]routegrid.Cell, bool) {
	if path, ok := lRoute(grid, source, sink, true); ok {
		return path, true
	}
	return lRoute(grid, source, sink, false)
}

func lRoute(grid *routegrid.Grid, source, sink routegrid.Cell, horizontalFirst bool) ([]routegrid.Cell, bool) {
	x, y := source.X, source.Y
	path := []routegrid.Cell{{X: x, Y: y}}

	walk := func(dx, dy int, steps int) bool {
		for i := 0; i < steps; i++ {
			x += dx
			y += dy
			c := routegrid.Cell{X: x, Y: y}
			if !grid.InBounds(c) {
				return false
			}
			state := grid.State(c)
			if state == routegrid.TracePath {
				return false
			}
			if state != routegrid.Free && c != sink {
				return false
			}
			path = append(path, c)
		}
		return true
	}

	if horizontalFirst {
		dx := sign(sink.X - source.X)
		if !walk(dx, 0, absInt(sink.X-source.X)) {
			return nil, false
		}
		dy := sign(sink.Y - source.Y)
		if !walk(0, dy, absInt(sink.Y-source.Y)) {
			return nil, false
		}
	} else {
		dy := sign(sink.Y - source.Y)
		if !walk(0, dy, absInt(sink.Y-source.Y)) {
			return nil, false
		}
		dx := sign(sink.X - source.X)
		if !walk(dx, 0, absInt(sink.X-source.X)) {
			return nil, false
		}
	}

	return path, true
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}
