// Package netgraph builds the instance-to-instance connectivity graph
// that placement scoring and group ordering rely on: which component
// instances share a net, how many nets they share, and which
// components act as connectivity hubs.
package netgraph

import (
	"sort"
	"strings"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
)

// Edge is one connection in the net-connectivity graph between two
// component instances. Fanout is the number of distinct instances on
// the originating net; placement scoring does not read it.
type Edge struct {
	NetID      string
	OtherIID   string
	MyPins     []string
	OtherPins  []string
	Fanout     int
}

// Graph maps an instance ID to every edge touching it.
type Graph map[string][]Edge

// Build constructs the net-connectivity graph: for every net, an edge
// between every pair of participating instances.
func Build(nets []design.Net) Graph {
	graph := make(Graph)

	for _, net := range nets {
		byInst := make(map[string][]string)
		var order []string
		for _, ref := range net.Pins {
			iid, pid, ok := splitRef(ref)
			if !ok {
				continue
			}
			if _, seen := byInst[iid]; !seen {
				order = append(order, iid)
			}
			byInst[iid] = append(byInst[iid], pid)
		}

		fanout := len(order)
		for i, a := range order {
			for _, b := range order[i+1:] {
				graph[a] = append(graph[a], Edge{net.ID, b, byInst[a], byInst[b], fanout})
				graph[b] = append(graph[b], Edge{net.ID, a, byInst[b], byInst[a], fanout})
			}
		}
	}

	return graph
}

// FanoutMap returns, for every net ID, the number of distinct instances
// participating in it. Nets with fanout >= 3 are high-fanout and their
// connected components should be kept especially close together.
func FanoutMap(nets []design.Net) map[string]int {
	result := make(map[string]int, len(nets))
	for _, net := range nets {
		instances := make(map[string]bool)
		for _, ref := range net.Pins {
			if iid, _, ok := splitRef(ref); ok {
				instances[iid] = true
			}
		}
		result[net.ID] = len(instances)
	}
	return result
}

// CountSharedNets returns the number of distinct nets connecting two
// instances, telling the placer how many trace channels must fit in
// the gap between them.
func CountSharedNets(iidA, iidB string, graph Graph) int {
	nets := make(map[string]bool)
	for _, e := range graph[iidA] {
		if e.OtherIID == iidB {
			nets[e.NetID] = true
		}
	}
	return len(nets)
}

// Degree returns, for every instance, the number of unique component
// neighbors it has. Higher degree marks a connectivity hub.
func Degree(graph Graph) map[string]int {
	degrees := make(map[string]int, len(graph))
	for iid, edges := range graph {
		neighbors := make(map[string]bool, len(edges))
		for _, e := range edges {
			neighbors[e.OtherIID] = true
		}
		degrees[iid] = len(neighbors)
	}
	return degrees
}

// BuildPlacementGroups partitions instanceIDs into connectivity
// groups and orders both the groups and the instances within each
// group for hub-first, area-tiebroken placement.
//
// Connectivity is traced through the full net graph (including
// UI-placed instances acting as bridges) and then filtered down to
// instanceIDs, so two auto-placed instances linked only through a
// fixed component still land in the same group.
func BuildPlacementGroups(instanceIDs []string, graph Graph, areaMap map[string]float64) [][]string {
	if len(instanceIDs) == 0 {
		return nil
	}

	degrees := Degree(graph)
	wanted := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		wanted[id] = true
	}

	visitedGlobal := make(map[string]bool)
	var rawGroups [][]string

	for _, seed := range instanceIDs {
		if visitedGlobal[seed] {
			continue
		}
		reached := map[string]bool{seed: true}
		queue := []string{seed}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, e := range graph[current] {
				if !reached[e.OtherIID] {
					reached[e.OtherIID] = true
					queue = append(queue, e.OtherIID)
				}
			}
		}
		var members []string
		for _, id := range instanceIDs {
			if reached[id] {
				members = append(members, id)
				visitedGlobal[id] = true
			}
		}
		rawGroups = append(rawGroups, members)
	}

	orderedGroups := make([][]string, len(rawGroups))
	for i, members := range rawGroups {
		orderedGroups[i] = bfsOrder(members, graph, degrees, areaMap)
	}

	sort.SliceStable(orderedGroups, func(i, j int) bool {
		return maxArea(orderedGroups[i], areaMap) > maxArea(orderedGroups[j], areaMap)
	})

	return orderedGroups
}

func maxArea(members []string, areaMap map[string]float64) float64 {
	best := 0.0
	for _, m := range members {
		if a := areaMap[m]; a > best {
			best = a
		}
	}
	return best
}

// bfsOrder produces a hub-first visiting order within one connected
// group: BFS seeded at the highest-(degree, area) member, with each
// frontier re-sorted by (degree, area) descending before the next pop.
func bfsOrder(members []string, graph Graph, degrees map[string]int, areaMap map[string]float64) []string {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	better := func(a, b string) bool {
		da, db := degrees[a], degrees[b]
		if da != db {
			return da > db
		}
		return areaMap[a] > areaMap[b]
	}

	seed := members[0]
	for _, m := range members[1:] {
		if better(m, seed) {
			seed = m
		}
	}

	var visited []string
	seen := map[string]bool{seed: true}
	queue := []string{seed}

	for len(queue) > 0 {
		sort.SliceStable(queue, func(i, j int) bool { return better(queue[i], queue[j]) })
		current := queue[0]
		queue = queue[1:]
		visited = append(visited, current)
		for _, e := range graph[current] {
			if memberSet[e.OtherIID] && !seen[e.OtherIID] {
				seen[e.OtherIID] = true
				queue = append(queue, e.OtherIID)
			}
		}
	}

	var stragglers []string
	for _, m := range members {
		if !seen[m] {
			stragglers = append(stragglers, m)
		}
	}
	sort.SliceStable(stragglers, func(i, j int) bool { return areaMap[stragglers[i]] > areaMap[stragglers[j]] })
	visited = append(visited, stragglers...)

	return visited
}

// ResolvePinPositions returns the local-frame positions for a list of
// pin or group references. A group reference resolves to the centroid
// of its member pins; the router later picks the exact physical pin.
func ResolvePinPositions(pinIDs []string, cat *catalog.Component) [][2]float64 {
	pinMap := make(map[string][2]float64, len(cat.Pins))
	for _, p := range cat.Pins {
		pinMap[p.ID] = p.PositionMM
	}

	groupMap := make(map[string][2]float64, len(cat.PinGroups))
	for _, g := range cat.PinGroups {
		var sumX, sumY float64
		var n int
		for _, pid := range g.PinIDs {
			if pos, ok := pinMap[pid]; ok {
				sumX += pos[0]
				sumY += pos[1]
				n++
			}
		}
		if n > 0 {
			groupMap[g.ID] = [2]float64{sumX / float64(n), sumY / float64(n)}
		}
	}

	var positions [][2]float64
	for _, pid := range pinIDs {
		if pos, ok := pinMap[pid]; ok {
			positions = append(positions, pos)
		} else if pos, ok := groupMap[pid]; ok {
			positions = append(positions, pos)
		}
	}
	return positions
}

func splitRef(ref string) (instanceID, pinID string, ok bool) {
	idx := strings.IndexByte(ref, ':')
	if idx < 0 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}
