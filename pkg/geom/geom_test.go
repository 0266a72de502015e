package geom

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestFootprintHalfDimsSwapsAtRightAngle(t *testing.T) {
	hw, hh := FootprintHalfDims(10, 20, 0)
	if hw != 5 || hh != 10 {
		t.Fatalf("rotation 0: got (%v, %v)", hw, hh)
	}
	hw, hh = FootprintHalfDims(10, 20, 90)
	if hw != 10 || hh != 5 {
		t.Fatalf("rotation 90: got (%v, %v)", hw, hh)
	}
}

func TestPinWorldXYIdentityAtZeroRotation(t *testing.T) {
	got := PinWorldXY(Point{3, 4}, 10, 10, 0)
	want := Point{13, 14}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPointSegDistDegenerateSegment(t *testing.T) {
	d := PointSegDist(3, 4, 0, 0, 0, 0)
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("expected 5, got %v", d)
	}
}

func TestRectInsidePolygonSquare(t *testing.T) {
	square := []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	if !RectInsidePolygon(50, 50, 10, 10, square) {
		t.Error("expected small centered rect to be inside")
	}
	if RectInsidePolygon(95, 95, 10, 10, square) {
		t.Error("expected rect poking outside the boundary to fail")
	}
}

func TestAABBGapOverlapIsNegative(t *testing.T) {
	gap := AABBGap(0, 0, 5, 5, 1, 1, 5, 5)
	if gap >= 0 {
		t.Fatalf("expected negative gap for overlapping boxes, got %v", gap)
	}
}

func TestSegmentsCrossSharedEndpointIsNotCrossing(t *testing.T) {
	if SegmentsCross(Point{0, 0}, Point{1, 1}, Point{1, 1}, Point{2, 0}) {
		t.Error("segments sharing an endpoint should not count as crossing")
	}
}

func TestSegmentsCrossProperIntersection(t *testing.T) {
	if !SegmentsCross(Point{0, 0}, Point{2, 2}, Point{0, 2}, Point{2, 0}) {
		t.Error("expected the diagonals of a square to cross")
	}
}

func TestPolygonAreaSquareIsPositiveCCW(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	area := PolygonArea(square)
	if math.Abs(area-100) > 1e-9 {
		t.Fatalf("expected area 100, got %v", area)
	}
}

func TestIsSimplePolygonRejectsBowtie(t *testing.T) {
	bowtie := []Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	if IsSimplePolygon(bowtie) {
		t.Error("expected a bowtie quad to be rejected as non-simple")
	}
}

func TestPolygonContainsCenterOfSquare(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !PolygonContains(square, 5, 5) {
		t.Error("expected center to be contained")
	}
	if PolygonContains(square, 50, 50) {
		t.Error("expected far point to be outside")
	}
}

// Footprint area must never be negative for any positive rectangle.
func TestFootprintAreaAlwaysPositive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.Float64Range(0.1, 500).Draw(rt, "w")
		l := rapid.Float64Range(0.1, 500).Draw(rt, "l")
		if FootprintArea(w, l) <= 0 {
			rt.Fatalf("area must be positive for positive dims, got %v", FootprintArea(w, l))
		}
	})
}
