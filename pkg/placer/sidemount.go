package placer

import (
	"math"

	"github.com/dshills/boardlayout/pkg/design"
)

// edgeDirection returns the (start, end) vertices of an outline edge.
func edgeDirection(outline design.Outline, edgeIndex int) (p1, p2 [2]float64) {
	pts := outline.Vertices()
	n := len(pts)
	return pts[((edgeIndex%n)+n)%n], pts[((edgeIndex+1)%n+n)%n]
}

// edgeRotation computes the nearest 90-degree rotation for a
// component mounted on an edge: its "forward" direction should point
// outward through the wall. For clockwise winding, the outward normal
// is to the right of the edge direction.
func edgeRotation(p1, p2 [2]float64) int {
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	angle := math.Atan2(dy, dx) * 180 / math.Pi
	normalAngle := angle - 90
	snapped := math.Round(normalAngle/90) * 90
	rot := int(snapped) % 360
	if rot < 0 {
		rot += 360
	}
	return rot
}

// snapToEdge snaps a point to the nearest position on an outline edge,
// returning the snapped (x, y) and the edge-derived rotation.
func snapToEdge(xMM, yMM float64, outline design.Outline, edgeIndex int) (x, y float64, rotationDeg int) {
	p1, p2 := edgeDirection(outline, edgeIndex)
	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	lengthSq := dx*dx + dy*dy
	if lengthSq < 1e-12 {
		return p1[0], p1[1], 0
	}

	t := ((xMM-p1[0])*dx + (yMM-p1[1])*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	snapX := p1[0] + t*dx
	snapY := p1[1] + t*dy
	return snapX, snapY, edgeRotation(p1, p2)
}
