// Package geom holds the low-level geometry primitives shared by the
// placer and the design validator: footprint sizing, point/segment
// distance, polygon containment, and segment-crossing detection.
package geom

import "math"

// Point is a plain (x, y) coordinate pair in millimeters.
type Point = [2]float64

// FootprintHalfDims returns (half_width, half_height) of a rectangular
// body at the given rotation; width and length swap at 90 and 270
// degrees. Circular bodies are handled by FootprintHalfDimsCircle.
func FootprintHalfDims(widthMM, lengthMM float64, rotationDeg int) (hw, hh float64) {
	w, h := widthMM/2, lengthMM/2
	if rotationDeg == 90 || rotationDeg == 270 {
		return h, w
	}
	return w, h
}

// FootprintHalfDimsCircle returns equal half-dims for a circular body;
// rotation never changes a circle's footprint.
func FootprintHalfDimsCircle(diameterMM float64) (hw, hh float64) {
	r := diameterMM / 2
	return r, r
}

// FootprintArea returns a rectangular body's footprint area in mm².
func FootprintArea(widthMM, lengthMM float64) float64 {
	return widthMM * lengthMM
}

// FootprintAreaCircle returns a circular body's footprint area in mm².
func FootprintAreaCircle(diameterMM float64) float64 {
	r := diameterMM / 2
	return math.Pi * r * r
}

// FootprintEnvelopeHalfDims returns the half-dims of the axis-aligned
// bounding box that encloses a footprint after rotation by an arbitrary
// (non-axis-aligned) angle. The placer only ever rotates in 90-degree
// steps, so this degenerates to FootprintHalfDims there; no other
// package calls it.
func FootprintEnvelopeHalfDims(halfWidth, halfHeight float64, angleDeg float64) (hw, hh float64) {
	rad := angleDeg * math.Pi / 180
	cosA, sinA := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	return halfWidth*cosA + halfHeight*sinA, halfWidth*sinA + halfHeight*cosA
}

// PinWorldXY transforms a component-local pin position into world
// coordinates given the component's center and rotation.
func PinWorldXY(pinLocal Point, cx, cy float64, rotationDeg int) Point {
	rad := float64(rotationDeg) * math.Pi / 180
	cosR, sinR := math.Cos(rad), math.Sin(rad)
	px, py := pinLocal[0], pinLocal[1]
	return Point{
		cx + px*cosR - py*sinR,
		cy + px*sinR + py*cosR,
	}
}

// PointSegDist returns the distance from point (px, py) to the segment
// (x1,y1)-(x2,y2).
func PointSegDist(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	if dx == 0 && dy == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

// MinDistToBoundary returns the minimum distance from a point to a
// polygon's boundary (its edges, traversed as a closed loop).
func MinDistToBoundary(px, py float64, verts []Point) float64 {
	n := len(verts)
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		d := PointSegDist(px, py, a[0], a[1], b[0], b[1])
		if d < best {
			best = d
		}
	}
	return best
}

// NearestBoundaryPoint projects (px, py) onto the nearest point lying
// on a polygon's boundary, traversed as a closed loop of edges. Used
// to clamp routed trace waypoints that drift outside the outline back
// onto its edge.
func NearestBoundaryPoint(px, py float64, verts []Point) Point {
	n := len(verts)
	best := Point{px, py}
	bestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		dx, dy := b[0]-a[0], b[1]-a[1]
		var t float64
		if dx != 0 || dy != 0 {
			t = ((px-a[0])*dx + (py-a[1])*dy) / (dx*dx + dy*dy)
			t = math.Max(0, math.Min(1, t))
		}
		cx, cy := a[0]+t*dx, a[1]+t*dy
		d := math.Hypot(px-cx, py-cy)
		if d < bestDist {
			bestDist = d
			best = Point{cx, cy}
		}
	}
	return best
}

// RectPerimeterSamples returns dense samples of an axis-aligned
// rectangle's perimeter: corners plus evenly spaced points along each
// edge, enough that no two adjacent samples are more than spacing mm
// apart. Edge midpoints are included only when an edge gets an odd
// number of samples.
// This catches boundary concavities that a 4-corner check would miss.
func RectPerimeterSamples(cx, cy, hw, hh, spacing float64) []Point {
	if spacing <= 0 {
		spacing = 4.0
	}
	w, h := hw*2, hh*2
	nx := maxInt(2, int(math.Ceil(w/spacing))+1)
	ny := maxInt(2, int(math.Ceil(h/spacing))+1)

	var pts []Point
	for i := 0; i < nx; i++ {
		t := 0.5
		if nx > 1 {
			t = float64(i) / float64(nx-1)
		}
		x := cx - hw + w*t
		pts = append(pts, Point{x, cy - hh}, Point{x, cy + hh})
	}
	for j := 1; j < ny-1; j++ {
		t := float64(j) / float64(ny-1)
		y := cy - hh + h*t
		pts = append(pts, Point{cx - hw, y}, Point{cx + hw, y})
	}
	return pts
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RectEdgeClearance returns the minimum distance from a rectangle's
// perimeter samples to a polygon's boundary.
func RectEdgeClearance(cx, cy, hw, hh float64, verts []Point) float64 {
	best := math.Inf(1)
	for _, p := range RectPerimeterSamples(cx, cy, hw, hh, 4.0) {
		d := MinDistToBoundary(p[0], p[1], verts)
		if d < best {
			best = d
		}
	}
	return best
}

// RectInsidePolygon reports whether an axis-aligned rectangle lies
// fully inside a (possibly concave, non-self-intersecting) polygon.
// It checks that all four corners are inside and that none of the
// rectangle's edges cross the polygon boundary, which together are
// sufficient for a simple polygon.
func RectInsidePolygon(cx, cy, hw, hh float64, verts []Point) bool {
	corners := []Point{
		{cx - hw, cy - hh}, {cx + hw, cy - hh},
		{cx + hw, cy + hh}, {cx - hw, cy + hh},
	}
	for _, c := range corners {
		if !PolygonContains(verts, c[0], c[1]) {
			return false
		}
	}
	n := len(verts)
	for i := 0; i < 4; i++ {
		a, b := corners[i], corners[(i+1)%4]
		for j := 0; j < n; j++ {
			c, d := verts[j], verts[(j+1)%n]
			if SegmentsCross(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

// AABBGap returns the Chebyshev gap between two axis-aligned bounding
// boxes: the minimum separation between their edges. Negative values
// mean the boxes overlap. This is a conservative, cheap approximation
// of true Euclidean separation, adequate for placement scoring.
func AABBGap(cx1, cy1, hw1, hh1, cx2, cy2, hw2, hh2 float64) float64 {
	gapX := math.Abs(cx1-cx2) - hw1 - hw2
	gapY := math.Abs(cy1-cy2) - hh1 - hh2
	return math.Max(gapX, gapY)
}

func onSegment(p, q, r Point) bool {
	const eps = 1e-9
	return min(p[0], r[0])-eps <= q[0] && q[0] <= max(p[0], r[0])+eps &&
		min(p[1], r[1])-eps <= q[1] && q[1] <= max(p[1], r[1])+eps
}

func cross2D(o, a, b Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// SegmentsCross reports whether segments p1-p2 and p3-p4 properly
// intersect. Segments that only share an endpoint are not considered
// crossing — this is used during placement scoring to detect net
// crossings that would make single-layer routing impossible.
func SegmentsCross(p1, p2, p3, p4 Point) bool {
	const eps = 1e-9
	for _, a := range [2]Point{p1, p2} {
		for _, b := range [2]Point{p3, p4} {
			if math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps {
				return false
			}
		}
	}

	d1 := cross2D(p3, p4, p1)
	d2 := cross2D(p3, p4, p2)
	d3 := cross2D(p1, p2, p3)
	d4 := cross2D(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if math.Abs(d1) < eps && onSegment(p3, p1, p4) {
		return true
	}
	if math.Abs(d2) < eps && onSegment(p3, p2, p4) {
		return true
	}
	if math.Abs(d3) < eps && onSegment(p1, p3, p2) {
		return true
	}
	if math.Abs(d4) < eps && onSegment(p1, p4, p2) {
		return true
	}
	return false
}

// PolygonArea returns the signed shoelace area of a polygon; a simple
// polygon wound counter-clockwise has positive area.
func PolygonArea(verts []Point) float64 {
	n := len(verts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

// IsSimplePolygon reports whether a polygon's edges are free of
// non-adjacent self-intersections, the minimal shape validity check a
// design's outline must pass.
func IsSimplePolygon(verts []Point) bool {
	n := len(verts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := verts[i], verts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1, b2 := verts[j], verts[(j+1)%n]
			if SegmentsCross(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// PolygonContains reports whether point (x, y) lies inside a simple
// polygon, using a standard ray-casting parity test.
func PolygonContains(verts []Point, x, y float64) bool {
	n := len(verts)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := verts[i][0], verts[i][1]
		xj, yj := verts[j][0], verts[j][1]
		if (yi > y) != (yj > y) {
			xCross := (xj-xi)*(y-yi)/(yj-yi) + xi
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}
