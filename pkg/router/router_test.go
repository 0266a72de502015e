package router

import (
	"context"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/rng"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

func twoPinCatalog() *catalog.CatalogResult {
	return &catalog.CatalogResult{
		Components: []catalog.Component{
			{
				ID:       "led",
				Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 4, LengthMM: 4, HeightMM: 3},
				Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
				Pins: []catalog.Pin{
					{ID: "anode", PositionMM: [2]float64{-1.5, 0}},
					{ID: "cathode", PositionMM: [2]float64{1.5, 0}},
				},
			},
		},
	}
}

func twoComponentPlacement() (*placer.FullPlacement, []design.Net) {
	nets := []design.Net{{ID: "n1", Pins: []string{"d1:anode", "d2:anode"}}}
	fp := &placer.FullPlacement{
		Components: []placer.PlacedComponent{
			{InstanceID: "d1", CatalogID: "led", XMM: 10, YMM: 10},
			{InstanceID: "d2", CatalogID: "led", XMM: 40, YMM: 10},
		},
		Outline: design.Outline{Points: []design.OutlineVertex{
			{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 30}, {X: 0, Y: 30},
		}},
		Nets: nets,
	}
	return fp, nets
}

func TestRipUpRouterRoutesSimpleNet(t *testing.T) {
	fp, _ := twoComponentPlacement()
	cat := twoPinCatalog()

	r, err := Get("manhattan_ripup", traceconfig.DefaultRouterConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	result, err := r.Route(context.Background(), fp, cat, rng.NewRNG(1, "router", []byte("test")))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(result.FailedNets) != 0 {
		t.Fatalf("expected net n1 to route, failed: %v", result.FailedNets)
	}
	if len(result.Traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(result.Traces))
	}
}

func TestRipUpRouterTracesAreManhattan(t *testing.T) {
	fp, _ := twoComponentPlacement()
	cat := twoPinCatalog()

	result, err := RouteNets(context.Background(), fp, cat, 1)
	if err != nil {
		t.Fatalf("RouteNets: %v", err)
	}
	for _, tr := range result.Traces {
		for i := 1; i < len(tr.Path); i++ {
			dx := tr.Path[i][0] != tr.Path[i-1][0]
			dy := tr.Path[i][1] != tr.Path[i-1][1]
			if dx == dy {
				t.Errorf("net %s: segment %d->%d is not axis-aligned: %v -> %v", tr.NetID, i-1, i, tr.Path[i-1], tr.Path[i])
			}
		}
	}
}

func TestRipUpRouterDeterministic(t *testing.T) {
	fp, _ := twoComponentPlacement()
	cat := twoPinCatalog()

	r1, err := RouteNets(context.Background(), fp, cat, 99)
	if err != nil {
		t.Fatalf("RouteNets 1: %v", err)
	}
	r2, err := RouteNets(context.Background(), fp, cat, 99)
	if err != nil {
		t.Fatalf("RouteNets 2: %v", err)
	}
	d1, err := ToJSON(r1)
	if err != nil {
		t.Fatalf("ToJSON 1: %v", err)
	}
	d2, err := ToJSON(r2)
	if err != nil {
		t.Fatalf("ToJSON 2: %v", err)
	}
	if string(d1) != string(d2) {
		t.Errorf("expected identical routing output for the same seed")
	}
}

func TestListIncludesManhattanRipup(t *testing.T) {
	found := false
	for _, name := range List() {
		if name == "manhattan_ripup" {
			found = true
		}
	}
	if !found {
		t.Error("expected manhattan_ripup to be registered")
	}
}
