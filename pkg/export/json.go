package export

import (
	"encoding/json"
	"os"

	"github.com/dshills/boardlayout/pkg/pipeline"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
)

// ExportPlacementJSON serializes an artifact's placement to the
// canonical placement.json wire format.
func ExportPlacementJSON(artifact *pipeline.Artifact) ([]byte, error) {
	return placer.ToJSON(artifact.Placement)
}

// ExportRoutingJSON serializes an artifact's routing result to the
// canonical routing.json wire format.
func ExportRoutingJSON(artifact *pipeline.Artifact) ([]byte, error) {
	return router.ToJSON(artifact.Routing)
}

// ExportReportJSON serializes an artifact's validation report as
// indented JSON, for debugging alongside the two wire artifacts.
func ExportReportJSON(artifact *pipeline.Artifact) ([]byte, error) {
	return json.MarshalIndent(artifact.Report, "", "  ")
}

// SavePlacementJSON writes placement.json to dir.
func SavePlacementJSON(artifact *pipeline.Artifact, dir string) error {
	data, err := ExportPlacementJSON(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(dir+"/placement.json", data, 0644)
}

// SaveRoutingJSON writes routing.json to dir.
func SaveRoutingJSON(artifact *pipeline.Artifact, dir string) error {
	data, err := ExportRoutingJSON(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(dir+"/routing.json", data, 0644)
}
