package router

import (
	"context"
	"math"
	"sort"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/pathfind"
	"github.com/dshills/boardlayout/pkg/pins"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/rng"
	"github.com/dshills/boardlayout/pkg/routegrid"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// RipUpRouter routes every net via Manhattan A*, decomposing 3+ pin
// nets into an MST-guided Steiner tree, and repeats with randomized
// net orderings and crossing-aware rip-up when a pass leaves nets
// disconnected.
type RipUpRouter struct {
	cfg traceconfig.RouterConfig
}

func (r *RipUpRouter) Name() string { return "manhattan_ripup" }

// netPad is a pin position participating in a net, resolved to grid
// coordinates.
type netPad struct {
	InstanceID string
	PinID      string
	GroupID    string // "" unless dynamically allocated
	Cell       routegrid.Cell
	WorldX     float64
	WorldY     float64
}

// pinRef is an unresolved net pin reference, classified once up front.
type pinRef struct {
	Raw          string
	InstanceID   string
	PinOrGroup   string
	IsGroup      bool
}

// Route connects every net in fp with routed traces.
func (r *RipUpRouter) Route(ctx context.Context, fp *placer.FullPlacement, cat *catalog.CatalogResult, rnd *rng.RNG) (*RoutingResult, error) {
	catalogMap := cat.Map()
	verts := fp.Outline.Vertices()

	if len(verts) < 3 || !geom.IsSimplePolygon(verts) || geom.PolygonArea(verts) == 0 {
		failed := make([]string, len(fp.Nets))
		for i, n := range fp.Nets {
			failed[i] = n.ID
		}
		return &RoutingResult{PinAssignments: map[string]string{}, FailedNets: failed}, nil
	}

	pool := pins.BuildPinPools(fp, cat)

	netPadMap := make(map[string][]pinRef, len(fp.Nets))
	for _, net := range fp.Nets {
		refs := make([]pinRef, 0, len(net.Pins))
		for _, raw := range net.Pins {
			iid, pid, isGroup := pins.ResolvePinRef(raw, fp, cat)
			refs = append(refs, pinRef{Raw: raw, InstanceID: iid, PinOrGroup: pid, IsGroup: isGroup})
		}
		netPadMap[net.ID] = refs
	}

	baseGrid := routegrid.New(verts, r.cfg.Rules.GridResolutionMM, r.cfg.Rules.EdgeClearanceMM)
	padRad := padRadius(r.cfg)
	blockComponents(baseGrid, fp, catalogMap, verts, padRad)

	budgetCtx, cancel := context.WithTimeout(ctx, r.cfg.TimeBudget)
	defer cancel()

	result := routeWithRipup(budgetCtx, netPadMap, baseGrid, fp, cat, pool, r.cfg, padRad, verts, rnd)
	return result, nil
}

func padRadius(cfg traceconfig.RouterConfig) int {
	cells := int(math.Ceil((cfg.Rules.TraceWidthMM/2 + cfg.Rules.TraceClearanceMM) / cfg.Rules.GridResolutionMM))
	if cells < 1 {
		return 1
	}
	return cells
}

func foreignPinRadius(cfg traceconfig.RouterConfig) int {
	cells := int(math.Ceil(cfg.Rules.TraceWidthMM / cfg.Rules.GridResolutionMM))
	if cells < 1 {
		return 1
	}
	return cells
}

// ── Component blocking ──────────────────────────────────────────────

// blockComponents marks the grid cells under routing-blocking
// component bodies as permanently blocked, carves escape channels for
// any pin trapped in a blocked zone, then force-frees and protects
// every pin position so it stays reachable, re-blocking body interiors
// afterward so traces can never cross through a component.
func blockComponents(grid *routegrid.Grid, fp *placer.FullPlacement, catalogMap map[string]*catalog.Component, verts []geom.Point, padRad int) {
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok || !c.Mounting.BlocksRouting {
			continue
		}
		hw, hh := bodyHalfDims(c, pc.RotationDeg)
		keepout := c.Mounting.KeepoutMarginMM
		grid.BlockRectWorld(pc.XMM, pc.YMM, hw+keepout, hh+keepout, true)
	}

	// Carve escape channels for any pin trapped in a permanently
	// blocked zone, before freeing pin neighborhoods, so the scan sees
	// the true boundary of the blocked region.
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			continue
		}
		for _, pin := range c.Pins {
			wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
			cell := grid.WorldToGrid(wp[0], wp[1])
			if grid.IsPermanentlyBlocked(cell) {
				carveEscapeChannel(grid, cell, verts)
			}
		}
	}

	// Force-free and protect every pin position on every component.
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			continue
		}
		for _, pin := range c.Pins {
			wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
			center := grid.WorldToGrid(wp[0], wp[1])
			for dy := -padRad; dy <= padRad; dy++ {
				for dx := -padRad; dx <= padRad; dx++ {
					cell := routegrid.Cell{X: center.X + dx, Y: center.Y + dy}
					grid.ForceFreeCell(cell)
					grid.ProtectCell(cell)
				}
			}
		}
	}

	// Re-block body interiors of routing-blocked components: the
	// pad_radius freeing above may have opened cells deep inside a
	// body (e.g. a battery holder), but the body interior must stay a
	// hard block so traces never cross through the component.
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok || !c.Mounting.BlocksRouting {
			continue
		}
		hw, hh := bodyHalfDims(c, pc.RotationDeg)
		grid.BlockRectWorld(pc.XMM, pc.YMM, hw, hh, true)
	}

	// Re-free pin positions that the body re-block may have caught,
	// but only the 1-cell ring around each pin so the body interior
	// otherwise stays blocked.
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok || !c.Mounting.BlocksRouting {
			continue
		}
		for _, pin := range c.Pins {
			wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
			center := grid.WorldToGrid(wp[0], wp[1])
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					cell := routegrid.Cell{X: center.X + dx, Y: center.Y + dy}
					grid.ForceFreeCell(cell)
					grid.ProtectCell(cell)
				}
			}
		}
	}
}

func bodyHalfDims(c *catalog.Component, rotationDeg int) (hw, hh float64) {
	if c.Body.Shape == catalog.ShapeCircle {
		d := c.Body.DiameterMM
		if d == 0 {
			d = 5.0
		}
		return geom.FootprintHalfDimsCircle(d)
	}
	w, l := c.Body.WidthMM, c.Body.LengthMM
	if w == 0 {
		w = 1.0
	}
	if l == 0 {
		l = 1.0
	}
	return geom.FootprintHalfDims(w, l, rotationDeg)
}

var cardinalDirs = [4]routegrid.Cell{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

// carveEscapeChannel frees a path from a pin trapped inside a
// permanently blocked zone out to open space, scanning all four
// cardinal directions and carving the two shortest, with one cell of
// perpendicular clearance on each side. Cells outside the outline are
// never freed.
func carveEscapeChannel(grid *routegrid.Grid, pin routegrid.Cell, verts []geom.Point) {
	type dirDist struct {
		dist int
		dir  routegrid.Cell
	}
	var candidates []dirDist

	for _, dir := range cardinalDirs {
		cell := pin
		for dist := 1; dist < 300; dist++ {
			cell = routegrid.Cell{X: cell.X + dir.X, Y: cell.Y + dir.Y}
			if !grid.InBounds(cell) {
				break
			}
			if !grid.IsPermanentlyBlocked(cell) {
				candidates = append(candidates, dirDist{dist, dir})
				break
			}
		}
	}
	if len(candidates) == 0 {
		return
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	insideOutline := func(c routegrid.Cell) bool {
		w := grid.GridToWorld(c)
		return geom.PolygonContains(verts, w[0], w[1])
	}

	for _, cd := range candidates {
		dir := cd.dir
		cell := pin
		for {
			cell = routegrid.Cell{X: cell.X + dir.X, Y: cell.Y + dir.Y}
			if !grid.InBounds(cell) {
				break
			}
			if !grid.IsPermanentlyBlocked(cell) {
				break
			}
			if !insideOutline(cell) {
				break
			}
			grid.ForceFreeCell(cell)
			perp := routegrid.Cell{X: dir.Y, Y: dir.X}
			for _, sign := range [2]int{1, -1} {
				n := routegrid.Cell{X: cell.X + perp.X*sign, Y: cell.Y + perp.Y*sign}
				if grid.InBounds(n) && insideOutline(n) {
					grid.ForceFreeCell(n)
				}
			}
		}
	}
}

// ── Pad resolution ──────────────────────────────────────────────────

// resolvePads resolves every pin reference in a net to a netPad. Group
// references reuse an assignment recorded by an earlier attempt when
// present, otherwise the best available physical pin is allocated by
// proximity to the net's other, already-resolved pads.
func resolvePads(refs []pinRef, netID string, fp *placer.FullPlacement, cat *catalog.CatalogResult, pool map[string]*pins.PinPool, grid *routegrid.Grid, assignments map[string]string) ([]netPad, bool) {
	pads := make([]*netPad, len(refs))
	var unresolved []int

	for i, ref := range refs {
		if !ref.IsGroup {
			pos, ok := pins.GetPinWorldPos(ref.InstanceID, ref.PinOrGroup, fp, cat)
			if !ok {
				return nil, false
			}
			pads[i] = &netPad{InstanceID: ref.InstanceID, PinID: ref.PinOrGroup, Cell: grid.WorldToGrid(pos[0], pos[1]), WorldX: pos[0], WorldY: pos[1]}
			continue
		}

		key := netID + "|" + ref.Raw
		if assigned, ok := assignments[key]; ok {
			_, assignedPin, ok2 := pins.SplitRef(assigned)
			if ok2 {
				if pos, ok3 := pins.GetPinWorldPos(ref.InstanceID, assignedPin, fp, cat); ok3 {
					pads[i] = &netPad{InstanceID: ref.InstanceID, PinID: assignedPin, GroupID: ref.PinOrGroup, Cell: grid.WorldToGrid(pos[0], pos[1]), WorldX: pos[0], WorldY: pos[1]}
					continue
				}
			}
		}
		unresolved = append(unresolved, i)
	}

	fallbackX := grid.OriginX + float64(grid.Width)*grid.Resolution/2
	fallbackY := grid.OriginY + float64(grid.Height)*grid.Resolution/2

	for _, i := range unresolved {
		ref := refs[i]
		p, ok := pool[ref.InstanceID]
		if !ok {
			return nil, false
		}

		var sumX, sumY float64
		var n int
		for _, other := range pads {
			if other != nil {
				sumX += other.WorldX
				sumY += other.WorldY
				n++
			}
		}
		targetX, targetY := fallbackX, fallbackY
		if n > 0 {
			targetX, targetY = sumX/float64(n), sumY/float64(n)
		}

		chosenPin, ok := pins.AllocateBestPin(ref.InstanceID, ref.PinOrGroup, geom.Point{targetX, targetY}, p, fp, cat)
		if !ok {
			return nil, false
		}
		pos, ok := pins.GetPinWorldPos(ref.InstanceID, chosenPin, fp, cat)
		if !ok {
			return nil, false
		}
		pads[i] = &netPad{InstanceID: ref.InstanceID, PinID: chosenPin, GroupID: ref.PinOrGroup, Cell: grid.WorldToGrid(pos[0], pos[1]), WorldX: pos[0], WorldY: pos[1]}
		assignments[netID+"|"+ref.Raw] = ref.InstanceID + ":" + chosenPin
	}

	result := make([]netPad, len(pads))
	for i, p := range pads {
		if p == nil {
			return nil, false
		}
		result[i] = *p
	}
	return result, true
}

// ── MST decomposition ────────────────────────────────────────────────

type mstEdge struct{ a, b int }

// computeMST returns Kruskal's minimum spanning tree edges over pads
// by Manhattan grid distance.
func computeMST(pads []netPad) []mstEdge {
	n := len(pads)
	if n < 2 {
		return nil
	}

	type weighted struct {
		d, a, b int
	}
	var edges []weighted
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := absInt(pads[i].Cell.X-pads[j].Cell.X) + absInt(pads[i].Cell.Y-pads[j].Cell.Y)
			edges = append(edges, weighted{d, i, j})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].d < edges[j].d })

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	var result []mstEdge
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		if ra == rb {
			continue
		}
		parent[ra] = rb
		result = append(result, mstEdge{e.a, e.b})
		if len(result) == n-1 {
			break
		}
	}
	return result
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ── Pad neighborhood helpers ─────────────────────────────────────────

func freePadNeighborhood(grid *routegrid.Grid, center routegrid.Cell, padRad int) []routegrid.Cell {
	var freed []routegrid.Cell
	for dy := -padRad; dy <= padRad; dy++ {
		for dx := -padRad; dx <= padRad; dx++ {
			c := routegrid.Cell{X: center.X + dx, Y: center.Y + dy}
			if grid.IsBlocked(c) && !grid.IsPermanentlyBlocked(c) {
				grid.FreeCell(c)
				freed = append(freed, c)
			}
		}
	}
	return freed
}

func restoreCells(grid *routegrid.Grid, cells []routegrid.Cell) {
	for _, c := range cells {
		grid.BlockCell(c)
	}
}

func freeCellSet(grid *routegrid.Grid, cells map[routegrid.Cell]bool) []routegrid.Cell {
	var freed []routegrid.Cell
	for c := range cells {
		if grid.IsBlocked(c) && !grid.IsPermanentlyBlocked(c) {
			grid.FreeCell(c)
			freed = append(freed, c)
		}
	}
	return freed
}

// ── Foreign-pin blocking ─────────────────────────────────────────────

func buildAllPinCells(fp *placer.FullPlacement, catalogMap map[string]*catalog.Component, grid *routegrid.Grid) map[string]routegrid.Cell {
	result := make(map[string]routegrid.Cell)
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			continue
		}
		for _, pin := range c.Pins {
			wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
			result[pc.InstanceID+":"+pin.ID] = grid.WorldToGrid(wp[0], wp[1])
		}
	}
	return result
}

// blockForeignPins temporarily blocks a pinRad neighborhood around
// every pin not belonging to netPads, so a trace can never physically
// overlap with a pin pad it doesn't own.
func blockForeignPins(grid *routegrid.Grid, allPinCells map[string]routegrid.Cell, netPads []netPad, pinRad int) []routegrid.Cell {
	netCells := make(map[routegrid.Cell]bool)
	for _, pad := range netPads {
		for dy := -pinRad; dy <= pinRad; dy++ {
			for dx := -pinRad; dx <= pinRad; dx++ {
				netCells[routegrid.Cell{X: pad.Cell.X + dx, Y: pad.Cell.Y + dy}] = true
			}
		}
	}

	var blocked []routegrid.Cell
	for _, pinCell := range allPinCells {
		for dy := -pinRad; dy <= pinRad; dy++ {
			for dx := -pinRad; dx <= pinRad; dx++ {
				c := routegrid.Cell{X: pinCell.X + dx, Y: pinCell.Y + dy}
				if !netCells[c] && grid.IsFree(c) {
					grid.BlockCell(c)
					blocked = append(blocked, c)
				}
			}
		}
	}
	return blocked
}

func unblockForeignPins(grid *routegrid.Grid, blocked []routegrid.Cell) {
	for _, c := range blocked {
		grid.FreeCell(c)
	}
}

// ── Single-net routing ───────────────────────────────────────────────

// routeSingleNet connects every pad of one net: a direct A* route for
// 2-pin nets, or an MST-guided Steiner tree (with a nearest-component
// greedy fallback for anything the MST leaves disconnected) for 3+.
func routeSingleNet(netID string, pads []netPad, grid *routegrid.Grid, padRad, turnPenalty int, allPinCells map[string]routegrid.Cell, foreignPinRad int) ([][]routegrid.Cell, bool) {
	if len(pads) < 2 {
		return nil, true
	}

	if len(pads) == 2 {
		src, snk := pads[0].Cell, pads[1].Cell
		freedSrc := freePadNeighborhood(grid, src, padRad)
		freedSnk := freePadNeighborhood(grid, snk, padRad)
		fpBlocked := blockForeignPins(grid, allPinCells, pads, foreignPinRad)

		path, ok := pathfind.FindPath(grid, src, snk, turnPenalty)

		unblockForeignPins(grid, fpBlocked)
		restoreCells(grid, freedSrc)
		restoreCells(grid, freedSnk)

		if !ok {
			return nil, false
		}
		return [][]routegrid.Cell{path}, true
	}

	mstEdges := computeMST(pads)
	var allPaths [][]routegrid.Cell

	n := len(pads)
	ufParent := make([]int, n)
	ufRank := make([]int, n)
	for i := range ufParent {
		ufParent[i] = i
	}
	var ufFind func(int) int
	ufFind = func(x int) int {
		for ufParent[x] != x {
			ufParent[x] = ufParent[ufParent[x]]
			x = ufParent[x]
		}
		return x
	}
	ufUnion := func(a, b int) {
		ra, rb := ufFind(a), ufFind(b)
		if ra == rb {
			return
		}
		if ufRank[ra] < ufRank[rb] {
			ra, rb = rb, ra
		}
		ufParent[rb] = ra
		if ufRank[ra] == ufRank[rb] {
			ufRank[ra]++
		}
	}

	compTrees := make(map[int]map[routegrid.Cell]bool, n)
	for i, p := range pads {
		compTrees[i] = map[routegrid.Cell]bool{p.Cell: true}
	}
	getTree := func(idx int) map[routegrid.Cell]bool { return compTrees[ufFind(idx)] }
	mergeComps := func(a, b int, pathCells []routegrid.Cell) {
		ra, rb := ufFind(a), ufFind(b)
		if ra == rb {
			for _, c := range pathCells {
				compTrees[ra][c] = true
			}
			return
		}
		treeA, treeB := compTrees[ra], compTrees[rb]
		delete(compTrees, ra)
		delete(compTrees, rb)
		ufUnion(a, b)
		newRoot := ufFind(a)
		big, small := treeA, treeB
		if len(treeB) > len(treeA) {
			big, small = treeB, treeA
		}
		for c := range small {
			big[c] = true
		}
		for _, c := range pathCells {
			big[c] = true
		}
		compTrees[newRoot] = big
	}

	for _, edge := range mstEdges {
		pa, pb := edge.a, edge.b
		if ufFind(pa) == ufFind(pb) {
			continue
		}

		treePa, treePb := getTree(pa), getTree(pb)
		srcTree, targetTree := treePb, treePa
		srcIdx, tgtIdx := pb, pa
		if len(treePa) < len(treePb) {
			srcTree, targetTree = treePa, treePb
			srcIdx, tgtIdx = pa, pb
		}

		freed := freeCellSet(grid, targetTree)
		freedSrc := freeCellSet(grid, srcTree)

		srcRoot, tgtRoot := ufFind(srcIdx), ufFind(tgtIdx)
		for pidx := 0; pidx < n; pidx++ {
			switch ufFind(pidx) {
			case srcRoot:
				freedSrc = append(freedSrc, freePadNeighborhood(grid, pads[pidx].Cell, padRad)...)
			case tgtRoot:
				freed = append(freed, freePadNeighborhood(grid, pads[pidx].Cell, padRad)...)
			}
		}

		fpBlocked := blockForeignPins(grid, allPinCells, pads, foreignPinRad)

		srcList := make([]routegrid.Cell, 0, len(srcTree))
		for c := range srcTree {
			srcList = append(srcList, c)
		}
		path, ok := pathfind.FindPathToTree(grid, srcList, targetTree, turnPenalty, 0, false)

		unblockForeignPins(grid, fpBlocked)
		restoreCells(grid, freed)
		restoreCells(grid, freedSrc)

		if ok {
			allPaths = append(allPaths, path)
			mergeComps(pa, pb, path)
		}
	}

	roots := make(map[int]bool)
	for i := 0; i < n; i++ {
		roots[ufFind(i)] = true
	}
	if len(roots) == 1 {
		return allPaths, true
	}

	mainRoot := -1
	for root := range roots {
		if mainRoot == -1 || len(compTrees[root]) > len(compTrees[mainRoot]) {
			mainRoot = root
		}
	}

	var remainingRoots []int
	for root := range roots {
		if root != mainRoot {
			remainingRoots = append(remainingRoots, root)
		}
	}

	for _, rr := range remainingRoots {
		rr := rr
		if ufFind(rr) != rr {
			continue
		}
		compTree := compTrees[rr]
		mainTree := compTrees[mainRoot]

		freed := freeCellSet(grid, mainTree)
		freedSrc := freeCellSet(grid, compTree)
		for pidx := 0; pidx < n; pidx++ {
			switch ufFind(pidx) {
			case rr:
				freedSrc = append(freedSrc, freePadNeighborhood(grid, pads[pidx].Cell, padRad)...)
			case mainRoot:
				freed = append(freed, freePadNeighborhood(grid, pads[pidx].Cell, padRad)...)
			}
		}

		fpBlocked := blockForeignPins(grid, allPinCells, pads, foreignPinRad)

		srcList := make([]routegrid.Cell, 0, len(compTree))
		for c := range compTree {
			srcList = append(srcList, c)
		}
		path, ok := pathfind.FindPathToTree(grid, srcList, mainTree, turnPenalty, 0, false)

		unblockForeignPins(grid, fpBlocked)
		restoreCells(grid, freed)
		restoreCells(grid, freedSrc)

		if !ok {
			return allPaths, false
		}
		allPaths = append(allPaths, path)

		var mergeIdx int
		for i := 0; i < n; i++ {
			if ufFind(i) == rr {
				mergeIdx = i
				break
			}
		}
		mergeComps(mergeIdx, mainRoot, path)
		mainRoot = ufFind(mergeIdx)
	}

	return allPaths, true
}

// ── Routing orchestrator with rip-up ────────────────────────────────

func routeWithRipup(ctx context.Context, netPadMap map[string][]pinRef, baseGrid *routegrid.Grid, fp *placer.FullPlacement, cat *catalog.CatalogResult, pool map[string]*pins.PinPool, cfg traceconfig.RouterConfig, padRad int, verts []geom.Point, rnd *rng.RNG) *RoutingResult {
	var netIDs, skipped []string
	for _, net := range fp.Nets {
		if len(netPadMap[net.ID]) >= 2 {
			netIDs = append(netIDs, net.ID)
		} else {
			skipped = append(skipped, net.ID)
		}
	}
	if len(netIDs) == 0 {
		return &RoutingResult{PinAssignments: map[string]string{}, FailedNets: nil}
	}

	isPowerNet := func(id string) bool { return id == "VCC" || id == "GND" || id == "VBAT" }
	baseOrder := append([]string(nil), netIDs...)
	sort.SliceStable(baseOrder, func(i, j int) bool {
		pi, pj := isPowerNet(baseOrder[i]), isPowerNet(baseOrder[j])
		if pi != pj {
			return pi
		}
		return len(netPadMap[baseOrder[i]]) > len(netPadMap[baseOrder[j]])
	})

	allPinCells := buildAllPinCells(fp, cat.Map(), baseGrid)
	foreignPinRad := foreignPinRadius(cfg)

	var deadPrefixes [][]string
	startsWithDeadPrefix := func(order []string) bool {
		for _, pfx := range deadPrefixes {
			if len(pfx) > len(order) {
				continue
			}
			match := true
			for i, v := range pfx {
				if order[i] != v {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
		return false
	}

	bestTraces := []Trace{}
	bestAssignments := map[string]string{}
	bestFailed := append([]string(nil), netIDs...)

	for attempt := 0; attempt < cfg.MaxRipUpAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return &RoutingResult{Traces: bestTraces, PinAssignments: bestAssignments, FailedNets: bestFailed}
		default:
		}

		order := append([]string(nil), baseOrder...)
		if attempt > 0 {
			exhausted := true
			for reshuffle := 0; reshuffle < 100; reshuffle++ {
				rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
				if !startsWithDeadPrefix(order) {
					exhausted = false
					break
				}
			}
			if exhausted {
				break
			}
		}

		attemptPool := pins.ClonePools(pool)
		attemptAssignments := map[string]string{}
		grid := baseGrid.Clone()

		routedPaths := make(map[string][][]routegrid.Cell)
		failedSet := make(map[string]bool)

		for _, nid := range order {
			refs := netPadMap[nid]
			pads, ok := resolvePads(refs, nid, fp, cat, attemptPool, grid, attemptAssignments)
			if !ok || len(pads) < 2 {
				failedSet[nid] = true
				continue
			}
			paths, ok := routeSingleNet(nid, pads, grid, padRad, cfg.TurnPenalty, allPinCells, foreignPinRad)
			if ok && len(paths) > 0 {
				routedPaths[nid] = paths
				for _, path := range paths {
					grid.BlockTrace(path, padRad)
				}
			} else {
				failedSet[nid] = true
			}
		}

		if len(failedSet) == 0 {
			stripped := stripCrossingTraces(routedPaths, grid, padRad)
			if len(stripped) == 0 {
				return &RoutingResult{Traces: gridPathsToTraces(routedPaths, grid, verts), PinAssignments: attemptAssignments, FailedNets: nil}
			}
			for _, nid := range stripped {
				failedSet[nid] = true
			}
		}

		for inner := 0; inner < cfg.InnerRipUpLimit; inner++ {
			if len(failedSet) == 0 {
				break
			}
			select {
			case <-ctx.Done():
				stripped := stripCrossingTraces(routedPaths, grid, padRad)
				for _, nid := range stripped {
					failedSet[nid] = true
				}
				if len(failedSet) < len(bestFailed) {
					bestTraces = gridPathsToTraces(routedPaths, grid, verts)
					bestAssignments = attemptAssignments
					bestFailed = make([]string, 0, len(failedSet))
					for nid := range failedSet {
						bestFailed = append(bestFailed, nid)
					}
					sort.Strings(bestFailed)
				}
				return &RoutingResult{Traces: bestTraces, PinAssignments: bestAssignments, FailedNets: bestFailed}
			default:
			}

			progress := false
			failedList := make([]string, 0, len(failedSet))
			for nid := range failedSet {
				failedList = append(failedList, nid)
			}
			rnd.Shuffle(len(failedList), func(i, j int) { failedList[i], failedList[j] = failedList[j], failedList[i] })

			for _, failedNet := range failedList {
				if !failedSet[failedNet] {
					continue
				}

				refs := netPadMap[failedNet]
				pads, ok := resolvePads(refs, failedNet, fp, cat, attemptPool, grid, attemptAssignments)
				if !ok || len(pads) < 2 {
					continue
				}

				paths, ok := routeSingleNet(failedNet, pads, grid, padRad, cfg.TurnPenalty, allPinCells, foreignPinRad)
				if ok && len(paths) > 0 {
					routedPaths[failedNet] = paths
					for _, path := range paths {
						grid.BlockTrace(path, padRad)
					}
					delete(failedSet, failedNet)
					progress = true
					continue
				}

				if ripupCrossingAware(failedNet, pads, grid, cfg, padRad, allPinCells, foreignPinRad, routedPaths, failedSet, attemptPool, attemptAssignments, netPadMap, fp, cat) {
					progress = true
					break
				}
			}

			if !progress {
				break
			}
		}

		stripped := stripCrossingTraces(routedPaths, grid, padRad)
		for _, nid := range stripped {
			failedSet[nid] = true
		}

		if len(failedSet) < len(bestFailed) {
			bestTraces = gridPathsToTraces(routedPaths, grid, verts)
			bestAssignments = attemptAssignments
			bestFailed = make([]string, 0, len(failedSet))
			for nid := range failedSet {
				bestFailed = append(bestFailed, nid)
			}
			sort.Strings(bestFailed)
		}

		if len(failedSet) == 0 {
			return &RoutingResult{Traces: bestTraces, PinAssignments: bestAssignments, FailedNets: nil}
		}

		var routedPrefix []string
		for _, nid := range order {
			if !failedSet[nid] {
				routedPrefix = append(routedPrefix, nid)
			}
		}
		if len(routedPrefix) >= 1 {
			covered := false
			for _, pfx := range deadPrefixes {
				if len(pfx) > len(routedPrefix) {
					continue
				}
				match := true
				for i, v := range pfx {
					if routedPrefix[i] != v {
						match = false
						break
					}
				}
				if match {
					covered = true
					break
				}
			}
			if !covered {
				deadPrefixes = append(deadPrefixes, routedPrefix)
			}
		}
	}

	return &RoutingResult{Traces: bestTraces, PinAssignments: bestAssignments, FailedNets: bestFailed}
}

// ripupCrossingAware tries to route failedNet allowing it to cross
// other nets' clearance zones, growing its tree one pad at a time
// toward the nearest unconnected pad. If it succeeds and the crossed
// cells belong to other routed nets, those nets are ripped up and
// re-routed; the whole rip-up commits only if every ripped net
// re-routes successfully, otherwise everything rolls back so a
// crossing is never left in the grid.
func ripupCrossingAware(
	failedNet string,
	pads []netPad,
	grid *routegrid.Grid,
	cfg traceconfig.RouterConfig,
	padRad int,
	allPinCells map[string]routegrid.Cell,
	foreignPinRad int,
	routedPaths map[string][][]routegrid.Cell,
	failedSet map[string]bool,
	attemptPool map[string]*pins.PinPool,
	attemptAssignments map[string]string,
	netPadMap map[string][]pinRef,
	fp *placer.FullPlacement,
	cat *catalog.CatalogResult,
) bool {
	treeCells := map[routegrid.Cell]bool{pads[0].Cell: true}
	var crossingPaths [][]routegrid.Cell
	crossedCells := make(map[routegrid.Cell]bool)

	remaining := make([]int, 0, len(pads)-1)
	for i := 1; i < len(pads); i++ {
		remaining = append(remaining, i)
	}

	for len(remaining) > 0 {
		bestRi, bestDist := -1, -1
		for ri, padIdx := range remaining {
			px, py := pads[padIdx].Cell.X, pads[padIdx].Cell.Y
			for t := range treeCells {
				d := absInt(px-t.X) + absInt(py-t.Y)
				if bestRi == -1 || d < bestDist {
					bestDist = d
					bestRi = ri
				}
			}
		}
		padIdx := remaining[bestRi]
		remaining = append(remaining[:bestRi], remaining[bestRi+1:]...)

		freed := freeCellSet(grid, treeCells)
		src := pads[padIdx].Cell
		freedSrc := freePadNeighborhood(grid, src, padRad)
		fpBlocked := blockForeignPins(grid, allPinCells, pads, foreignPinRad)

		path, ok := pathfind.FindPathToTree(grid, []routegrid.Cell{src}, treeCells, cfg.TurnPenalty, cfg.CrossingPenalty, true)

		unblockForeignPins(grid, fpBlocked)
		restoreCells(grid, freed)
		restoreCells(grid, freedSrc)

		if !ok {
			return false
		}

		for _, c := range path {
			treeCells[c] = true
			if grid.IsBlocked(c) && !grid.IsPermanentlyBlocked(c) {
				crossedCells[c] = true
			}
		}
		crossingPaths = append(crossingPaths, path)
	}

	if len(crossedCells) == 0 {
		return false
	}

	rippedNets := make(map[string]bool)
	for nid, paths := range routedPaths {
		if nid == failedNet {
			continue
		}
	outer:
		for _, path := range paths {
			for _, c := range path {
				if crossedCells[c] {
					rippedNets[nid] = true
					break outer
				}
			}
		}
	}
	if len(rippedNets) == 0 {
		return false
	}

	snapBeforeRip := grid.Snapshot()
	savedRouted := make(map[string][][]routegrid.Cell, len(routedPaths))
	for nid, paths := range routedPaths {
		savedRouted[nid] = paths
	}

	for ripped := range rippedNets {
		for _, path := range routedPaths[ripped] {
			grid.FreeTrace(path, padRad)
		}
		delete(routedPaths, ripped)
	}

	routedPaths[failedNet] = crossingPaths
	for _, path := range crossingPaths {
		grid.BlockTrace(path, padRad)
	}

	rerouted := make(map[string][][]routegrid.Cell)
	allRerouted := true
	for ripped := range rippedNets {
		refs := netPadMap[ripped]
		rpads, ok := resolvePads(refs, ripped, fp, cat, attemptPool, grid, attemptAssignments)
		if !ok || len(rpads) < 2 {
			allRerouted = false
			break
		}
		rpaths, ok := routeSingleNet(ripped, rpads, grid, padRad, cfg.TurnPenalty, allPinCells, foreignPinRad)
		if ok && len(rpaths) > 0 {
			rerouted[ripped] = rpaths
			for _, rp := range rpaths {
				grid.BlockTrace(rp, padRad)
			}
		} else {
			allRerouted = false
			break
		}
	}

	if allRerouted {
		for ripped, rpaths := range rerouted {
			routedPaths[ripped] = rpaths
		}
		delete(failedSet, failedNet)
		for ripped := range rippedNets {
			delete(failedSet, ripped)
		}
		return true
	}

	grid.Restore(snapBeforeRip)
	for k := range routedPaths {
		delete(routedPaths, k)
	}
	for nid, paths := range savedRouted {
		routedPaths[nid] = paths
	}
	for ripped := range rippedNets {
		if _, stillRouted := routedPaths[ripped]; !stillRouted {
			failedSet[ripped] = true
		}
	}
	return false
}

// ── Post-routing helpers ─────────────────────────────────────────────

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func gridPathsToTraces(routedPaths map[string][][]routegrid.Cell, grid *routegrid.Grid, verts []geom.Point) []Trace {
	var traces []Trace
	for netID, paths := range routedPaths {
		for _, path := range paths {
			if len(path) < 2 {
				continue
			}
			worldPath := simplifyPath(path, grid)
			clamped := make([]geom.Point, len(worldPath))
			for i, w := range worldPath {
				if !geom.PolygonContains(verts, w[0], w[1]) {
					w = geom.NearestBoundaryPoint(w[0], w[1], verts)
				}
				clamped[i] = geom.Point{round2(w[0]), round2(w[1])}
			}
			traces = append(traces, Trace{NetID: netID, Path: clamped})
		}
	}
	return traces
}

// simplifyPath removes collinear intermediate points, keeping only the
// start, end, and every direction-change waypoint.
func simplifyPath(path []routegrid.Cell, grid *routegrid.Grid) []geom.Point {
	if len(path) <= 2 {
		out := make([]geom.Point, len(path))
		for i, c := range path {
			out[i] = grid.GridToWorld(c)
		}
		return out
	}

	waypoints := []routegrid.Cell{path[0]}
	for i := 1; i < len(path)-1; i++ {
		prev, cur, next := path[i-1], path[i], path[i+1]
		d1 := routegrid.Cell{X: cur.X - prev.X, Y: cur.Y - prev.Y}
		d2 := routegrid.Cell{X: next.X - cur.X, Y: next.Y - cur.Y}
		if d1 != d2 {
			waypoints = append(waypoints, cur)
		}
	}
	waypoints = append(waypoints, path[len(path)-1])

	out := make([]geom.Point, len(waypoints))
	for i, c := range waypoints {
		out[i] = grid.GridToWorld(c)
	}
	return out
}

// findCrossingNets reports the IDs of nets that physically share a
// grid cell with another net's trace.
func findCrossingNets(routedPaths map[string][][]routegrid.Cell) []string {
	cellOwner := make(map[routegrid.Cell]string)
	crossing := make(map[string]bool)

	for netID, paths := range routedPaths {
		for _, path := range paths {
			for _, c := range path {
				if existing, ok := cellOwner[c]; ok && existing != netID {
					crossing[netID] = true
					crossing[existing] = true
				} else {
					cellOwner[c] = netID
				}
			}
		}
	}

	result := make([]string, 0, len(crossing))
	for nid := range crossing {
		result = append(result, nid)
	}
	return result
}

// stripCrossingTraces removes traces that physically cross another
// net, longest-net-first, until no crossings remain, returning the
// IDs it removed.
func stripCrossingTraces(routedPaths map[string][][]routegrid.Cell, grid *routegrid.Grid, clearanceCells int) []string {
	var removed []string
	maxIters := len(routedPaths) + 1

	for iter := 0; iter < maxIters; iter++ {
		crossing := findCrossingNets(routedPaths)
		if len(crossing) == 0 {
			break
		}

		netLength := func(nid string) int {
			total := 0
			for _, p := range routedPaths[nid] {
				total += len(p)
			}
			return total
		}
		victim := crossing[0]
		for _, nid := range crossing[1:] {
			if netLength(nid) > netLength(victim) {
				victim = nid
			}
		}

		for _, path := range routedPaths[victim] {
			grid.FreeTrace(path, clearanceCells)
		}
		delete(routedPaths, victim)
		removed = append(removed, victim)
	}

	return removed
}
