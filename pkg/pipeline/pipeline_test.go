package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/pipeline"
)

// flashlightCatalog writes the four-component catalog used by the
// flashlight reference fixture (spec §8 scenario 1) to dir.
func flashlightCatalog(t *testing.T, dir string) {
	t.Helper()
	components := []catalog.Component{
		{
			ID:       "led_5mm",
			Category: "optics",
			Body:     catalog.Body{Shape: catalog.ShapeCircle, DiameterMM: 5, HeightMM: 8},
			Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
			Pins: []catalog.Pin{
				{ID: "anode", PositionMM: [2]float64{-1.5, 0}, Direction: catalog.DirIn},
				{ID: "cathode", PositionMM: [2]float64{1.5, 0}, Direction: catalog.DirOut},
			},
			UIPlacementFlag: true,
		},
		{
			ID:       "pushbutton",
			Category: "switch",
			Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 6, LengthMM: 6, HeightMM: 4},
			Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
			Pins: []catalog.Pin{
				{ID: "com", PositionMM: [2]float64{-2, 0}, Direction: catalog.DirIn},
				{ID: "no", PositionMM: [2]float64{2, 0}, Direction: catalog.DirOut},
			},
			UIPlacementFlag: true,
		},
		{
			ID:       "battery_holder_18650",
			Category: "power",
			Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 20, LengthMM: 70, HeightMM: 20},
			Mounting: catalog.Mounting{Style: catalog.StyleBottom, AllowedStyles: []catalog.MountingStyle{catalog.StyleBottom}, BlocksRouting: true, KeepoutMarginMM: 1},
			Pins: []catalog.Pin{
				{ID: "positive", PositionMM: [2]float64{0, -33}, Direction: catalog.DirOut},
				{ID: "negative", PositionMM: [2]float64{0, 33}, Direction: catalog.DirOut},
			},
		},
		{
			ID:       "driver_ic",
			Category: "power",
			Body:     catalog.Body{Shape: catalog.ShapeRect, WidthMM: 8, LengthMM: 8, HeightMM: 2},
			Mounting: catalog.Mounting{Style: catalog.StyleInternal, AllowedStyles: []catalog.MountingStyle{catalog.StyleInternal}},
			Pins: []catalog.Pin{
				{ID: "vin", PositionMM: [2]float64{-3, 0}, Direction: catalog.DirIn},
				{ID: "vout", PositionMM: [2]float64{3, 0}, Direction: catalog.DirOut},
				{ID: "en", PositionMM: [2]float64{0, 3}, Direction: catalog.DirIn},
				{ID: "gnd", PositionMM: [2]float64{0, -3}, Direction: catalog.DirIn},
			},
		},
	}
	data, err := json.Marshal(components)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "components.json"), data, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
}

// flashlightDesign writes the design spec for the 35x120 flashlight
// fixture to path: a bottom-mounted battery, an internal driver, and
// two UI-placed top components (button at (17.5, 70), LED at
// (17.5, 100)), wired by four two-pin nets.
func flashlightDesign(t *testing.T, path string) {
	t.Helper()
	doc := map[string]any{
		"components": []map[string]any{
			{"catalog_id": "battery_holder_18650", "instance_id": "bat_1"},
			{"catalog_id": "driver_ic", "instance_id": "drv_1"},
			{"catalog_id": "pushbutton", "instance_id": "btn_1"},
			{"catalog_id": "led_5mm", "instance_id": "led_1"},
		},
		"nets": []map[string]any{
			{"id": "vbat", "pins": []string{"bat_1:positive", "drv_1:vin"}},
			{"id": "gnd", "pins": []string{"bat_1:negative", "drv_1:gnd"}},
			{"id": "switch", "pins": []string{"drv_1:en", "btn_1:com"}},
			{"id": "led_drive", "pins": []string{"drv_1:vout", "led_1:anode"}},
		},
		"outline": []map[string]any{
			{"x": 0, "y": 0}, {"x": 35, "y": 0}, {"x": 35, "y": 120}, {"x": 0, "y": 120},
		},
		"ui_placements": []map[string]any{
			{"instance_id": "btn_1", "x": 17.5, "y": 70},
			{"instance_id": "led_1", "x": 17.5, "y": 100},
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal design: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}
}

func TestBuildFlashlightFixture(t *testing.T) {
	dir := t.TempDir()
	flashlightCatalog(t, dir)
	designPath := filepath.Join(dir, "design.json")
	flashlightDesign(t, designPath)

	cfg := pipeline.DefaultConfig()
	cfg.Seed = 1
	cfg.CatalogDir = dir
	cfg.DesignPath = designPath

	builder := pipeline.NewBuilder()
	artifact, err := builder.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(artifact.Placement.Components) != 4 {
		t.Fatalf("expected 4 placed components, got %d", len(artifact.Placement.Components))
	}

	type point struct{ X, Y float64 }
	var btn, led *point
	for _, pc := range artifact.Placement.Components {
		switch pc.InstanceID {
		case "btn_1":
			btn = &point{pc.XMM, pc.YMM}
		case "led_1":
			led = &point{pc.XMM, pc.YMM}
		}
	}
	if btn == nil || btn.X != 17.5 || btn.Y != 70 {
		t.Errorf("expected btn_1 at (17.5, 70), got %+v", btn)
	}
	if led == nil || led.X != 17.5 || led.Y != 100 {
		t.Errorf("expected led_1 at (17.5, 100), got %+v", led)
	}

	if len(artifact.Routing.FailedNets) != 0 {
		t.Errorf("expected all nets routed, failed: %v", artifact.Routing.FailedNets)
	}
	for _, tr := range artifact.Routing.Traces {
		for i := 1; i < len(tr.Path); i++ {
			dx := tr.Path[i][0] != tr.Path[i-1][0]
			dy := tr.Path[i][1] != tr.Path[i-1][1]
			if dx == dy {
				t.Errorf("net %s: waypoint %d is not axis-aligned: %+v -> %+v", tr.NetID, i, tr.Path[i-1], tr.Path[i])
			}
		}
	}

	if !artifact.Report.Passed {
		t.Errorf("expected validation report to pass, errors: %v", artifact.Report.Errors)
	}
}

func TestBuildFailsOnMissingCatalogDir(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.CatalogDir = "/nonexistent/path/does-not-exist"
	cfg.DesignPath = "/nonexistent/design.json"

	_, err := pipeline.NewBuilder().Build(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected an error for a missing catalog directory")
	}
}
