package placer

import (
	"math"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/netgraph"
)

// Placed tracks one already-placed component during the placement
// algorithm: its resolved position plus the body and pin-envelope
// half-dims needed for subsequent overlap and clearance checks.
type Placed struct {
	InstanceID string
	CatalogID  string
	X, Y       float64
	Rotation   int
	HW, HH     float64 // body half-dims, rotated
	EnvHW, EnvHH float64 // body+pin envelope half-dims, rotated
	Keepout    float64
}

// WireSegment is a virtual straight-line wire between two pins on a
// net, used only to detect crossings during placement scoring.
type WireSegment struct {
	NetID string
	P1, P2 geom.Point
}

// ComputePlacedSegments finds, for every pair of already-placed
// instances sharing a net, the closest connected pin pair and records
// it as a virtual wire segment. These segments let scoreCandidate
// flag candidate positions that would force different-net crossings,
// which single-layer routing cannot resolve.
func ComputePlacedSegments(placed []Placed, catalogMap map[string]*catalog.Component, graph netgraph.Graph) []WireSegment {
	placedMap := make(map[string]*Placed, len(placed))
	for i := range placed {
		placedMap[placed[i].InstanceID] = &placed[i]
	}

	type key struct{ net, a, b string }
	seen := make(map[key]bool)
	var segments []WireSegment

	for _, p := range placed {
		catA, ok := catalogMap[p.CatalogID]
		if !ok {
			continue
		}
		for _, edge := range graph[p.InstanceID] {
			other, ok := placedMap[edge.OtherIID]
			if !ok {
				continue
			}
			a, b := p.InstanceID, edge.OtherIID
			if a > b {
				a, b = b, a
			}
			k := key{edge.NetID, a, b}
			if seen[k] {
				continue
			}
			seen[k] = true

			catB, ok := catalogMap[other.CatalogID]
			if !ok {
				continue
			}

			myPositions := netgraph.ResolvePinPositions(edge.MyPins, catA)
			otherPositions := netgraph.ResolvePinPositions(edge.OtherPins, catB)

			bestDist := math.Inf(1)
			var bestPair [2]geom.Point
			found := false
			for _, mp := range myPositions {
				w1 := geom.PinWorldXY(mp, p.X, p.Y, p.Rotation)
				for _, op := range otherPositions {
					w2 := geom.PinWorldXY(op, other.X, other.Y, other.Rotation)
					d := (w1[0]-w2[0])*(w1[0]-w2[0]) + (w1[1]-w2[1])*(w1[1]-w2[1])
					if d < bestDist {
						bestDist = d
						bestPair = [2]geom.Point{w1, w2}
						found = true
					}
				}
			}
			if found {
				segments = append(segments, WireSegment{edge.NetID, bestPair[0], bestPair[1]})
			}
		}
	}

	return segments
}

// scoreContext bundles the extra, slower-changing context score
// Candidate needs beyond the candidate position itself.
type scoreContext struct {
	instanceID      string
	cat             *catalog.Component
	placed          []Placed
	catalogMap      map[string]*catalog.Component
	graph           netgraph.Graph
	outlineVerts    []geom.Point
	outlineBounds   [4]float64 // xmin, ymin, xmax, ymax
	outlineArea     float64
	mountingStyle   string
	existingSegments []WireSegment
	groupMates      map[string]bool
	envHW, envHH    float64
	weights         Weights
}

// scoreCandidate scores a candidate position; higher is better. It
// combines net proximity (the dominant term), edge clearance, uniform
// neighbor clearance, compactness, mounting-style preferences, a
// same-net-tolerant crossing penalty, pin-collocation avoidance, a
// spread reward, a large-component edge pull, and group cohesion.
func scoreCandidate(cx, cy float64, rotation int, hw, hh, keepout float64, ctx scoreContext) float64 {
	w := ctx.weights
	score := 0.0

	// 1. Net proximity — the main driver.
	for _, edge := range ctx.graph[ctx.instanceID] {
		other := findPlaced(ctx.placed, edge.OtherIID)
		if other == nil {
			continue
		}
		myPositions := netgraph.ResolvePinPositions(edge.MyPins, ctx.cat)
		otherCat, ok := ctx.catalogMap[other.CatalogID]
		if !ok {
			continue
		}
		otherPositions := netgraph.ResolvePinPositions(edge.OtherPins, otherCat)

		bestDist := math.Inf(1)
		for _, mp := range myPositions {
			w1 := geom.PinWorldXY(mp, cx, cy, rotation)
			for _, op := range otherPositions {
				w2 := geom.PinWorldXY(op, other.X, other.Y, other.Rotation)
				d := math.Hypot(w1[0]-w2[0], w1[1]-w2[1])
				if d < bestDist {
					bestDist = d
				}
			}
		}
		if !math.IsInf(bestDist, 1) {
			score -= bestDist * w.NetProximity
		}
	}

	// 2. Edge clearance.
	edgeDist := geom.RectEdgeClearance(cx, cy, hw, hh, ctx.outlineVerts)
	score += math.Min(edgeDist, 5.0) * w.EdgeClearance

	// 3. Uniform clearance to neighbors.
	if len(ctx.placed) > 0 {
		for _, p := range ctx.placed {
			gap := geom.AABBGap(cx, cy, hw, hh, p.X, p.Y, p.HW, p.HH)
			target := math.Max(keepout, p.Keepout)
			if gap > 0 {
				deviation := math.Abs(gap - target)
				score -= deviation * w.ClearanceUniform / float64(len(ctx.placed))
			}
		}

		// 4. Compactness — pull toward the centroid of what's placed.
		var cxSum, cySum float64
		for _, p := range ctx.placed {
			cxSum += p.X
			cySum += p.Y
		}
		centroidX := cxSum / float64(len(ctx.placed))
		centroidY := cySum / float64(len(ctx.placed))
		score -= math.Hypot(cx-centroidX, cy-centroidY) * w.Compactness
	}

	// 5. Bottom preference for bottom-mount components.
	if ctx.mountingStyle == string(catalog.StyleBottom) {
		ymin := ctx.outlineBounds[1]
		score -= (cy - ymin) * w.BottomPreference
	}

	// 6. Crossing penalty: same-net crossings are fine (the router
	// treats them as one tree); different-net crossings are costly.
	if len(ctx.existingSegments) > 0 {
		crossings := 0
		for _, edge := range ctx.graph[ctx.instanceID] {
			other := findPlaced(ctx.placed, edge.OtherIID)
			if other == nil {
				continue
			}
			myPositions := netgraph.ResolvePinPositions(edge.MyPins, ctx.cat)
			otherCat, ok := ctx.catalogMap[other.CatalogID]
			if !ok {
				continue
			}
			otherPositions := netgraph.ResolvePinPositions(edge.OtherPins, otherCat)

			bestD := math.Inf(1)
			var bestSeg [2]geom.Point
			found := false
			for _, mp := range myPositions {
				w1 := geom.PinWorldXY(mp, cx, cy, rotation)
				for _, op := range otherPositions {
					w2 := geom.PinWorldXY(op, other.X, other.Y, other.Rotation)
					d := (w1[0]-w2[0])*(w1[0]-w2[0]) + (w1[1]-w2[1])*(w1[1]-w2[1])
					if d < bestD {
						bestD = d
						bestSeg = [2]geom.Point{w1, w2}
						found = true
					}
				}
			}
			if !found {
				continue
			}

			for _, seg := range ctx.existingSegments {
				if seg.NetID == edge.NetID {
					continue
				}
				if geom.SegmentsCross(bestSeg[0], bestSeg[1], seg.P1, seg.P2) {
					crossings++
				}
			}
		}
		score -= float64(crossings) * w.Crossing
	}

	// 7. Pin collocation: penalize pins landing unnecessarily close to
	// foreign pins beyond what the hard clearance gate already forbids.
	if len(ctx.placed) > 0 {
		nearMisses := 0
		myWorldPins := pinWorldPositions(ctx.cat, cx, cy, rotation)
		threshold := 3.0
		thresholdSq := threshold * threshold
		for _, p := range ctx.placed {
			otherCat, ok := ctx.catalogMap[p.CatalogID]
			if !ok {
				continue
			}
			otherWorldPins := pinWorldPositions(otherCat, p.X, p.Y, p.Rotation)
			for _, mp := range myWorldPins {
				for _, op := range otherWorldPins {
					dx, dy := mp[0]-op[0], mp[1]-op[1]
					if dx*dx+dy*dy < thresholdSq {
						nearMisses++
					}
				}
			}
		}
		score -= float64(nearMisses) * w.PinCollocation
	}

	// 8. Spread: when the outline has slack, mildly reward positions
	// further from already-placed neighbors (counteracts compactness
	// collapsing everything into one corner on sparse designs).
	if ctx.outlineArea > 0 && len(ctx.placed) > 0 {
		minDist := math.Inf(1)
		for _, p := range ctx.placed {
			d := math.Hypot(cx-p.X, cy-p.Y)
			if d < minDist {
				minDist = d
			}
		}
		if !math.IsInf(minDist, 1) {
			score += math.Min(minDist, math.Sqrt(ctx.outlineArea)) * w.Spread * 0.01
		}
	}

	// 9. Large-edge pull: bigger components are pulled toward the
	// outline edge, leaving the interior free for small parts.
	bodyArea := (hw * 2) * (hh * 2)
	if ctx.outlineArea > 0 {
		edgeDistForPull := geom.RectEdgeClearance(cx, cy, hw, hh, ctx.outlineVerts)
		score -= edgeDistForPull * w.LargeEdgePull * (bodyArea / ctx.outlineArea)
	}

	// 10. Pin side: penalize approaching a connected neighbor such
	// that the straight-line net segment backtracks through the body
	// (approximated as closest-pin distance exceeding center distance).
	for _, edge := range ctx.graph[ctx.instanceID] {
		other := findPlaced(ctx.placed, edge.OtherIID)
		if other == nil {
			continue
		}
		centerDist := math.Hypot(cx-other.X, cy-other.Y)
		myPositions := netgraph.ResolvePinPositions(edge.MyPins, ctx.cat)
		otherCat, ok := ctx.catalogMap[other.CatalogID]
		if !ok || len(myPositions) == 0 {
			continue
		}
		otherPositions := netgraph.ResolvePinPositions(edge.OtherPins, otherCat)
		bestDist := math.Inf(1)
		for _, mp := range myPositions {
			w1 := geom.PinWorldXY(mp, cx, cy, rotation)
			for _, op := range otherPositions {
				w2 := geom.PinWorldXY(op, other.X, other.Y, other.Rotation)
				d := math.Hypot(w1[0]-w2[0], w1[1]-w2[1])
				if d < bestDist {
					bestDist = d
				}
			}
		}
		if !math.IsInf(bestDist, 1) && bestDist > centerDist {
			score -= (bestDist - centerDist) * w.PinSide
		}
	}

	// 11. Group cohesion: reward staying close to group-mates beyond
	// what net proximity alone already captures.
	if len(ctx.groupMates) > 0 {
		var sumDist float64
		var n int
		for _, p := range ctx.placed {
			if ctx.groupMates[p.InstanceID] {
				sumDist += math.Hypot(cx-p.X, cy-p.Y)
				n++
			}
		}
		if n > 0 {
			score -= (sumDist / float64(n)) * w.GroupCohesion * 0.1
		}
	}

	return score
}

func findPlaced(placed []Placed, instanceID string) *Placed {
	for i := range placed {
		if placed[i].InstanceID == instanceID {
			return &placed[i]
		}
	}
	return nil
}

func pinWorldPositions(cat *catalog.Component, cx, cy float64, rotation int) []geom.Point {
	pts := make([]geom.Point, len(cat.Pins))
	for i, p := range cat.Pins {
		pts[i] = geom.PinWorldXY(p.PositionMM, cx, cy, rotation)
	}
	return pts
}
