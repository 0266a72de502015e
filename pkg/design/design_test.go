package design

import (
	"encoding/json"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
)

func testCatalog() *catalog.CatalogResult {
	return &catalog.CatalogResult{
		Components: []catalog.Component{
			{
				ID:       "mcu-8pin",
				Category: "mcu",
				Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 10, LengthMM: 10, HeightMM: 3},
				Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop, catalog.StyleSide}},
				Pins: []catalog.Pin{
					{ID: "vcc", Direction: catalog.DirIn},
					{ID: "gnd", Direction: catalog.DirIn},
				},
				PinGroups: []catalog.PinGroup{
					{ID: "gpio", PinIDs: []string{"vcc", "gnd"}, Allocatable: true},
				},
				ConfigurableFields: []string{"brightness"},
				UIPlacementFlag:    true,
			},
			{
				ID:       "button",
				Category: "switch",
				Body:     catalog.Body{Shape: catalog.ShapeCircle, DiameterMM: 6, HeightMM: 4},
				Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
				Pins: []catalog.Pin{
					{ID: "a", Direction: catalog.DirIn},
					{ID: "b", Direction: catalog.DirIn},
				},
			},
		},
	}
}

func square(side float64) Outline {
	return Outline{Points: []OutlineVertex{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func TestParseMirrorsEase(t *testing.T) {
	data := []byte(`{
		"components": [], "nets": [],
		"outline": [{"x":0,"y":0,"ease_in":2}],
		"ui_placements": []
	}`)
	spec, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v := spec.Outline.Points[0]
	if v.EaseIn != 2 || v.EaseOut != 2 {
		t.Errorf("expected ease_in to mirror into ease_out, got in=%v out=%v", v.EaseIn, v.EaseOut)
	}
}

func TestValidateCleanDesign(t *testing.T) {
	cat := testCatalog()
	spec := &DesignSpec{
		Components: []ComponentInstance{{CatalogID: "mcu-8pin", InstanceID: "u1"}},
		Nets:       []Net{{ID: "n1", Pins: []string{"u1:gpio", "u1:gpio"}}},
		Outline:    square(40),
		UIPlacements: []UIPlacement{
			{InstanceID: "u1", XMM: 20, YMM: 20},
		},
	}
	if errs := Validate(spec, cat); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateUnknownCatalogID(t *testing.T) {
	cat := testCatalog()
	spec := &DesignSpec{
		Components: []ComponentInstance{{CatalogID: "does-not-exist", InstanceID: "u1"}},
		Outline:    square(40),
	}
	errs := Validate(spec, cat)
	if len(errs) == 0 {
		t.Fatal("expected an error for unknown catalog_id")
	}
}

func TestValidateGroupPoolExhausted(t *testing.T) {
	cat := testCatalog()
	spec := &DesignSpec{
		Components: []ComponentInstance{{CatalogID: "mcu-8pin", InstanceID: "u1"}},
		Nets: []Net{
			{ID: "n1", Pins: []string{"u1:gpio", "u1:gpio"}},
			{ID: "n2", Pins: []string{"u1:gpio", "u1:gpio"}},
			{ID: "n3", Pins: []string{"u1:gpio", "u1:gpio"}},
		},
		Outline: square(40),
		UIPlacements: []UIPlacement{
			{InstanceID: "u1", XMM: 20, YMM: 20},
		},
	}
	errs := Validate(spec, cat)
	found := false
	for _, e := range errs {
		if containsSubstr(e, "only has") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected group pool exhaustion error, got %v", errs)
	}
}

func TestValidateUIPlacementOutsideOutline(t *testing.T) {
	cat := testCatalog()
	spec := &DesignSpec{
		Components:   []ComponentInstance{{CatalogID: "button", InstanceID: "b1"}},
		Outline:      square(10),
		UIPlacements: []UIPlacement{{InstanceID: "b1", XMM: 100, YMM: 100}},
	}
	errs := Validate(spec, cat)
	found := false
	for _, e := range errs {
		if containsSubstr(e, "outside the outline") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected outside-outline error, got %v", errs)
	}
}

func TestToJSONOmitsZeroEase(t *testing.T) {
	spec := &DesignSpec{
		Outline: Outline{Points: []OutlineVertex{{X: 1, Y: 2}}},
	}
	data, err := ToJSON(spec)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	outline := raw["outline"].([]any)
	vertex := outline[0].(map[string]any)
	if _, ok := vertex["ease_in"]; ok {
		t.Errorf("expected ease_in to be omitted when zero, got %v", vertex)
	}
}

func containsSubstr(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
