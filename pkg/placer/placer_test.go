package placer

import (
	"math"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
)

func simpleCatalog() *catalog.CatalogResult {
	return &catalog.CatalogResult{
		Components: []catalog.Component{
			{
				ID:       "led",
				Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 5, LengthMM: 5, HeightMM: 3},
				Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
				Pins: []catalog.Pin{
					{ID: "anode", PositionMM: [2]float64{-2, 0}},
					{ID: "cathode", PositionMM: [2]float64{2, 0}},
				},
			},
		},
	}
}

func square(side float64) design.Outline {
	return design.Outline{Points: []design.OutlineVertex{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func TestGridSearchPlacesTwoComponentsWithoutOverlap(t *testing.T) {
	cat := simpleCatalog()
	spec := &design.DesignSpec{
		Components: []design.ComponentInstance{
			{CatalogID: "led", InstanceID: "d1"},
			{CatalogID: "led", InstanceID: "d2"},
		},
		Nets:    []design.Net{{ID: "n1", Pins: []string{"d1:anode", "d2:anode"}}},
		Outline: square(60),
	}

	p, err := Get("grid_search", DefaultConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	result, err := p.Place(spec, cat)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(result.Components) != 2 {
		t.Fatalf("expected 2 placed components, got %d", len(result.Components))
	}

	// Both bodies are 5x5mm, so they overlap when the centers are closer
	// than 5mm on both axes.
	a, b := result.Components[0], result.Components[1]
	if math.Abs(a.XMM-b.XMM) < 5 && math.Abs(a.YMM-b.YMM) < 5 {
		t.Errorf("expected the two 5x5mm bodies not to overlap, got %+v and %+v", a, b)
	}
}

func TestGridSearchRespectsUIPlacement(t *testing.T) {
	cat := simpleCatalog()
	spec := &design.DesignSpec{
		Components:   []design.ComponentInstance{{CatalogID: "led", InstanceID: "d1"}},
		Outline:      square(60),
		UIPlacements: []design.UIPlacement{{InstanceID: "d1", XMM: 30, YMM: 30}},
	}

	result, err := PlaceComponents(spec, cat)
	if err != nil {
		t.Fatalf("PlaceComponents: %v", err)
	}
	if result.Components[0].XMM != 30 || result.Components[0].YMM != 30 {
		t.Errorf("expected UI-fixed position (30, 30), got (%v, %v)", result.Components[0].XMM, result.Components[0].YMM)
	}
}

func TestGridSearchFailsOnTinyOutline(t *testing.T) {
	cat := simpleCatalog()
	spec := &design.DesignSpec{
		Components: []design.ComponentInstance{{CatalogID: "led", InstanceID: "d1"}},
		Outline:    square(1),
	}
	_, err := PlaceComponents(spec, cat)
	if err == nil {
		t.Fatal("expected a PlacementError when the component cannot fit")
	}
	if _, ok := err.(*PlacementError); !ok {
		t.Errorf("expected *PlacementError, got %T", err)
	}
}

func TestListIncludesGridSearch(t *testing.T) {
	found := false
	for _, name := range List() {
		if name == "grid_search" {
			found = true
		}
	}
	if !found {
		t.Error("expected grid_search to be registered")
	}
}
