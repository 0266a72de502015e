package export_test

import (
	"strings"
	"testing"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/export"
	"github.com/dshills/boardlayout/pkg/pipeline"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
	"github.com/dshills/boardlayout/pkg/validation"
)

func tinyCatalog() *catalog.CatalogResult {
	return &catalog.CatalogResult{
		Components: []catalog.Component{
			{
				ID:       "led",
				Body:     catalog.Body{Shape: catalog.ShapeCircle, DiameterMM: 5, HeightMM: 3},
				Mounting: catalog.Mounting{Style: catalog.StyleTop, AllowedStyles: []catalog.MountingStyle{catalog.StyleTop}},
				Pins: []catalog.Pin{
					{ID: "anode", PositionMM: [2]float64{-2, 0}},
					{ID: "cathode", PositionMM: [2]float64{2, 0}},
				},
			},
		},
	}
}

func tinyArtifact() *pipeline.Artifact {
	fp := &placer.FullPlacement{
		Components: []placer.PlacedComponent{
			{InstanceID: "d1", CatalogID: "led", XMM: 10, YMM: 10, RotationDeg: 0},
		},
		Outline: design.Outline{Points: []design.OutlineVertex{
			{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 40}, {X: 0, Y: 40},
		}},
		Nets: []design.Net{{ID: "n1", Pins: []string{"d1:anode", "d1:cathode"}}},
	}
	return &pipeline.Artifact{Placement: fp, Routing: nil, Report: validation.NewReport()}
}

func TestExportPlacementJSONRoundTrips(t *testing.T) {
	artifact := tinyArtifact()
	data, err := export.ExportPlacementJSON(artifact)
	if err != nil {
		t.Fatalf("ExportPlacementJSON: %v", err)
	}
	parsed, err := placer.ParsePlacement(data)
	if err != nil {
		t.Fatalf("ParsePlacement: %v", err)
	}
	if len(parsed.Components) != 1 || parsed.Components[0].InstanceID != "d1" {
		t.Errorf("unexpected round-tripped placement: %+v", parsed.Components)
	}
}

func TestExportRoutingJSON(t *testing.T) {
	artifact := tinyArtifact()
	artifact.Routing = &router.RoutingResult{
		Traces:         []router.Trace{{NetID: "n1", Path: [][2]float64{{0, 0}, {5, 0}}}},
		PinAssignments: map[string]string{"n1|d1:grp": "d1:p1"},
		FailedNets:     []string{},
	}
	data, err := export.ExportRoutingJSON(artifact)
	if err != nil {
		t.Fatalf("ExportRoutingJSON: %v", err)
	}
	if !strings.Contains(string(data), "\"net_id\": \"n1\"") {
		t.Errorf("expected net_id in output, got %s", data)
	}
}

func TestExportSVGContainsOutlineAndComponent(t *testing.T) {
	artifact := tinyArtifact()
	artifact.Routing = &router.RoutingResult{
		Traces: []router.Trace{{NetID: "n1", Path: [][2]float64{{8, 10}, {12, 10}}}},
	}
	data, err := export.ExportSVG(artifact, tinyCatalog(), export.DefaultSVGOptions())
	if err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	svg := string(data)
	if !strings.Contains(svg, "<svg") {
		t.Error("expected SVG output to contain an <svg> tag")
	}
	if !strings.Contains(svg, "d1") {
		t.Error("expected SVG output to label the placed component")
	}
}
