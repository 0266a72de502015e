package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/export"
	"github.com/dshills/boardlayout/pkg/pipeline"
)

// writeFlashlightFixture materializes the spec §8 scenario 1 reference
// board (a 35x120mm flashlight: battery, driver, button, LED) as a
// catalog directory and design spec under dir, and returns the design
// spec's path.
func writeFlashlightFixture(t *testing.T, dir string) string {
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
	catData, err := json.Marshal(components)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "components.json"), catData, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

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
	designData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal design: %v", err)
	}
	designPath := filepath.Join(dir, "design.json")
	if err := os.WriteFile(designPath, designData, 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}
	return designPath
}

// TestFullPipelineFlashlight runs the whole catalog-load -> design-parse
// -> place -> route -> validate -> export chain end to end against the
// flashlight reference fixture and checks every stage's contract holds.
func TestFullPipelineFlashlight(t *testing.T) {
	dir := t.TempDir()
	designPath := writeFlashlightFixture(t, dir)

	cfg := pipeline.DefaultConfig()
	cfg.Seed = 42
	cfg.CatalogDir = dir
	cfg.DesignPath = designPath

	artifact, err := pipeline.NewBuilder().Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(artifact.Placement.Components) != 4 {
		t.Fatalf("expected 4 placed components, got %d", len(artifact.Placement.Components))
	}
	if len(artifact.Routing.FailedNets) != 0 {
		t.Fatalf("expected all nets routed, failed: %v", artifact.Routing.FailedNets)
	}
	if !artifact.Report.Passed {
		t.Fatalf("expected validation to pass, errors: %v", artifact.Report.Errors)
	}
	if !artifact.OK() {
		t.Fatalf("expected artifact.OK() to be true")
	}

	outDir := t.TempDir()
	if err := export.SavePlacementJSON(artifact, outDir); err != nil {
		t.Fatalf("SavePlacementJSON: %v", err)
	}
	if err := export.SaveRoutingJSON(artifact, outDir); err != nil {
		t.Fatalf("SaveRoutingJSON: %v", err)
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	svgPath := filepath.Join(outDir, "board.svg")
	if err := export.SaveSVGToFile(artifact, cat, svgPath, export.DefaultSVGOptions()); err != nil {
		t.Fatalf("SaveSVGToFile: %v", err)
	}

	for _, name := range []string{"placement.json", "routing.json", "board.svg"} {
		if info, statErr := os.Stat(filepath.Join(outDir, name)); statErr != nil || info.Size() == 0 {
			t.Errorf("expected non-empty %s, stat error: %v", name, statErr)
		}
	}
}

// TestFullPipelineDeterministic verifies that two builds with the same
// seed and config produce byte-identical placement.json/routing.json,
// matching the spec's determinism guarantee.
func TestFullPipelineDeterministic(t *testing.T) {
	dir := t.TempDir()
	designPath := writeFlashlightFixture(t, dir)

	cfg := pipeline.DefaultConfig()
	cfg.Seed = 7
	cfg.CatalogDir = dir
	cfg.DesignPath = designPath

	a1, err := pipeline.NewBuilder().Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build 1: %v", err)
	}
	a2, err := pipeline.NewBuilder().Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build 2: %v", err)
	}

	p1, err := export.ExportPlacementJSON(a1)
	if err != nil {
		t.Fatalf("ExportPlacementJSON 1: %v", err)
	}
	p2, err := export.ExportPlacementJSON(a2)
	if err != nil {
		t.Fatalf("ExportPlacementJSON 2: %v", err)
	}
	if string(p1) != string(p2) {
		t.Errorf("expected identical placement.json across runs with the same seed")
	}

	r1, err := export.ExportRoutingJSON(a1)
	if err != nil {
		t.Fatalf("ExportRoutingJSON 1: %v", err)
	}
	r2, err := export.ExportRoutingJSON(a2)
	if err != nil {
		t.Fatalf("ExportRoutingJSON 2: %v", err)
	}
	if string(r1) != string(r2) {
		t.Errorf("expected identical routing.json across runs with the same seed")
	}
}
