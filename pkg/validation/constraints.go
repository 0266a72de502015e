package validation

import (
	"fmt"
	"math"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
	"github.com/dshills/boardlayout/pkg/routegrid"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// CheckEnvelopeContainment verifies every placed component's envelope
// lies inside the outline inset by edge clearance (P3).
func CheckEnvelopeContainment(fp *placer.FullPlacement, cat *catalog.CatalogResult, edgeClearanceMM float64) ConstraintResult {
	verts := fp.Outline.Vertices()
	catalogMap := cat.Map()
	violations := []string{}

	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			violations = append(violations, fmt.Sprintf("%s: unknown catalog id %s", pc.InstanceID, pc.CatalogID))
			continue
		}
		ehw, ehh := envelopeHalfDims(c, pc.RotationDeg)
		clearance := geom.RectEdgeClearance(pc.XMM, pc.YMM, ehw, ehh, verts)
		if clearance < edgeClearanceMM-0.01 {
			violations = append(violations, fmt.Sprintf("%s: envelope clearance %.3fmm < required %.3fmm", pc.InstanceID, clearance, edgeClearanceMM))
		}
	}

	satisfied := len(violations) == 0
	details := "every component envelope is contained within the outline"
	if !satisfied {
		details = fmt.Sprintf("%d containment violations: %v", len(violations), violations)
	}
	return NewConstraintResult("EnvelopeContainment", "envelope ⊆ outline ⊖ edge_clearance", satisfied, details)
}

// CheckNonOverlap verifies every unordered pair of placed components
// clears the larger of their two keepout margins (P4), within a
// 0.01mm tolerance.
func CheckNonOverlap(fp *placer.FullPlacement, cat *catalog.CatalogResult) ConstraintResult {
	catalogMap := cat.Map()
	violations := []string{}

	for i := 0; i < len(fp.Components); i++ {
		a := fp.Components[i]
		ca, ok := catalogMap[a.CatalogID]
		if !ok {
			continue
		}
		ahw, ahh := envelopeHalfDims(ca, a.RotationDeg)

		for j := i + 1; j < len(fp.Components); j++ {
			b := fp.Components[j]
			cb, ok := catalogMap[b.CatalogID]
			if !ok {
				continue
			}
			bhw, bhh := envelopeHalfDims(cb, b.RotationDeg)

			gap := geom.AABBGap(a.XMM, a.YMM, ahw, ahh, b.XMM, b.YMM, bhw, bhh)
			required := math.Max(ca.Mounting.KeepoutMarginMM, cb.Mounting.KeepoutMarginMM)
			if gap < required-0.01 {
				violations = append(violations, fmt.Sprintf("%s/%s: gap %.3fmm < required %.3fmm", a.InstanceID, b.InstanceID, gap, required))
			}
		}
	}

	satisfied := len(violations) == 0
	details := "no component pair violates its keepout margin"
	if !satisfied {
		details = fmt.Sprintf("%d overlap violations: %v", len(violations), violations)
	}
	return NewConstraintResult("NonOverlap", "aabb_gap(A, B) ≥ max(keepout_A, keepout_B)", satisfied, details)
}

// CheckPinSeparation verifies every pin pair from different
// components clears the configured minimum pin clearance (P5).
func CheckPinSeparation(fp *placer.FullPlacement, cat *catalog.CatalogResult, minClearanceMM float64) ConstraintResult {
	catalogMap := cat.Map()
	minSq := minClearanceMM * minClearanceMM
	violations := 0

	type worldPin struct {
		instanceID string
		pos        geom.Point
	}
	var allPins []worldPin
	for _, pc := range fp.Components {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			continue
		}
		for _, pin := range c.Pins {
			wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
			allPins = append(allPins, worldPin{pc.InstanceID, wp})
		}
	}

	for i := 0; i < len(allPins); i++ {
		for j := i + 1; j < len(allPins); j++ {
			if allPins[i].instanceID == allPins[j].instanceID {
				continue
			}
			dx := allPins[i].pos[0] - allPins[j].pos[0]
			dy := allPins[i].pos[1] - allPins[j].pos[1]
			if dx*dx+dy*dy < minSq {
				violations++
			}
		}
	}

	satisfied := violations == 0
	details := "every cross-component pin pair clears minimum pin separation"
	if !satisfied {
		details = fmt.Sprintf("%d pin pairs closer than %.3fmm", violations, minClearanceMM)
	}
	return NewConstraintResult("PinSeparation", "dist(pin_A, pin_B)² ≥ min_pin_clearance²", satisfied, details)
}

// CheckManhattanTraces verifies every routed trace's consecutive
// waypoints differ on exactly one axis (P6).
func CheckManhattanTraces(result *router.RoutingResult) ConstraintResult {
	violations := []string{}

	for _, trace := range result.Traces {
		for i := 1; i < len(trace.Path); i++ {
			dx := math.Abs(trace.Path[i][0] - trace.Path[i-1][0])
			dy := math.Abs(trace.Path[i][1] - trace.Path[i-1][1])
			const eps = 1e-6
			if dx > eps && dy > eps {
				violations = append(violations, fmt.Sprintf("%s: waypoint %d is diagonal (dx=%.3f dy=%.3f)", trace.NetID, i, dx, dy))
			}
		}
	}

	satisfied := len(violations) == 0
	details := "every trace segment is axis-aligned"
	if !satisfied {
		details = fmt.Sprintf("%d non-Manhattan segments: %v", len(violations), violations)
	}
	return NewConstraintResult("ManhattanTraces", "consecutive waypoints differ on exactly one axis", satisfied, details)
}

// CheckNoNetCrossings verifies no grid cell is claimed by the traces
// of two different nets (P7), rasterizing each Manhattan segment onto
// a grid at the configured resolution.
func CheckNoNetCrossings(fp *placer.FullPlacement, result *router.RoutingResult, rules traceconfig.TraceRules) ConstraintResult {
	verts := fp.Outline.Vertices()
	if len(verts) < 3 {
		return NewConstraintResult("NoNetCrossings", "cells(trace_A) ∩ cells(trace_B) = ∅ for A ≠ B", true, "no outline to rasterize against")
	}
	grid := routegrid.New(verts, rules.GridResolutionMM, rules.EdgeClearanceMM)

	cellOwner := make(map[routegrid.Cell]string)
	crossingNets := make(map[string]bool)

	for _, trace := range result.Traces {
		for i := 1; i < len(trace.Path); i++ {
			for _, c := range rasterSegment(grid, trace.Path[i-1], trace.Path[i]) {
				if existing, ok := cellOwner[c]; ok {
					if existing != trace.NetID {
						crossingNets[existing] = true
						crossingNets[trace.NetID] = true
					}
				} else {
					cellOwner[c] = trace.NetID
				}
			}
		}
	}

	satisfied := len(crossingNets) == 0
	details := "no cell is shared by two different nets' traces"
	if !satisfied {
		nets := make([]string, 0, len(crossingNets))
		for n := range crossingNets {
			nets = append(nets, n)
		}
		details = fmt.Sprintf("nets sharing a routed cell: %v", nets)
	}
	return NewConstraintResult("NoNetCrossings", "cells(trace_A) ∩ cells(trace_B) = ∅ for A ≠ B", satisfied, details)
}

func rasterSegment(grid *routegrid.Grid, a, b geom.Point) []routegrid.Cell {
	ca := grid.WorldToGrid(a[0], a[1])
	cb := grid.WorldToGrid(b[0], b[1])
	if ca == cb {
		return []routegrid.Cell{ca}
	}
	var cells []routegrid.Cell
	if ca.X == cb.X {
		step := 1
		if cb.Y < ca.Y {
			step = -1
		}
		for y := ca.Y; ; y += step {
			cells = append(cells, routegrid.Cell{X: ca.X, Y: y})
			if y == cb.Y {
				break
			}
		}
		return cells
	}
	step := 1
	if cb.X < ca.X {
		step = -1
	}
	for x := ca.X; ; x += step {
		cells = append(cells, routegrid.Cell{X: x, Y: ca.Y})
		if x == cb.X {
			break
		}
	}
	return cells
}

// CheckTraceClamping verifies every trace waypoint lies on or inside
// the outline, within a small grid-quantization tolerance (P8).
func CheckTraceClamping(fp *placer.FullPlacement, result *router.RoutingResult, gridResolutionMM float64) ConstraintResult {
	verts := fp.Outline.Vertices()
	tolerance := gridResolutionMM
	violations := []string{}

	for _, trace := range result.Traces {
		for i, wp := range trace.Path {
			if geom.PolygonContains(verts, wp[0], wp[1]) {
				continue
			}
			if geom.MinDistToBoundary(wp[0], wp[1], verts) > tolerance {
				violations = append(violations, fmt.Sprintf("%s: waypoint %d at (%.2f,%.2f) is outside the outline", trace.NetID, i, wp[0], wp[1]))
			}
		}
	}

	satisfied := len(violations) == 0
	details := "every trace waypoint lies on or inside the outline"
	if !satisfied {
		details = fmt.Sprintf("%d out-of-outline waypoints: %v", len(violations), violations)
	}
	return NewConstraintResult("TraceClamping", "waypoint ∈ outline (± grid tolerance)", satisfied, details)
}

// CheckPinPoolSoundness verifies no two dynamic pin-group assignments
// reuse the same physical pin on the same instance (P9).
func CheckPinPoolSoundness(result *router.RoutingResult) ConstraintResult {
	seen := make(map[string]string) // "instance:pin" -> first assignment key
	violations := []string{}

	for ref, assigned := range result.PinAssignments {
		if prior, ok := seen[assigned]; ok {
			violations = append(violations, fmt.Sprintf("%s reuses physical pin %s already assigned to %s", ref, assigned, prior))
		} else {
			seen[assigned] = ref
		}
	}

	satisfied := len(violations) == 0
	details := "no physical pin is assigned to two group references"
	if !satisfied {
		details = fmt.Sprintf("%d pin reuse violations: %v", len(violations), violations)
	}
	return NewConstraintResult("PinPoolSoundness", "assignments use distinct (instance, pin) pairs", satisfied, details)
}

func envelopeHalfDims(c *catalog.Component, rotationDeg int) (ehw, ehh float64) {
	hw, hh := bodyHalfDims(c, rotationDeg)
	ehw, ehh = hw, hh
	for _, pin := range c.Pins {
		wp := geom.PinWorldXY(pin.PositionMM, 0, 0, rotationDeg)
		if math.Abs(wp[0]) > ehw {
			ehw = math.Abs(wp[0])
		}
		if math.Abs(wp[1]) > ehh {
			ehh = math.Abs(wp[1])
		}
	}
	return
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
