package design

import "encoding/json"

// outlineVertexOut mirrors design_to_dict's per-vertex shape: ease_in and
// ease_out are only present when non-zero.
type outlineVertexOut struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	EaseIn  *float64 `json:"ease_in,omitempty"`
	EaseOut *float64 `json:"ease_out,omitempty"`
}

type componentInstanceOut struct {
	CatalogID     string         `json:"catalog_id"`
	InstanceID    string         `json:"instance_id"`
	Config        map[string]any `json:"config,omitempty"`
	MountingStyle string         `json:"mounting_style,omitempty"`
}

type uiPlacementOut struct {
	InstanceID string `json:"instance_id"`
	XMM        float64 `json:"x"`
	YMM        float64 `json:"y"`
	EdgeIndex  *int    `json:"edge_index,omitempty"`
}

// designDict is the JSON-serializable shape of a DesignSpec: outline is a
// flat vertex array, not a nested {points: [...]} object, matching the
// wire format the rest of the toolchain (and round-trip Parse) expects.
type designDict struct {
	Components   []componentInstanceOut `json:"components"`
	Nets         []Net                  `json:"nets"`
	Outline      []outlineVertexOut     `json:"outline"`
	UIPlacements []uiPlacementOut       `json:"ui_placements"`
}

// ToJSON serializes a DesignSpec into the canonical wire format.
func ToJSON(spec *DesignSpec) ([]byte, error) {
	return json.MarshalIndent(toDict(spec), "", "  ")
}

func toDict(spec *DesignSpec) designDict {
	d := designDict{
		Nets: spec.Nets,
	}
	if d.Nets == nil {
		d.Nets = []Net{}
	}

	d.Components = make([]componentInstanceOut, len(spec.Components))
	for i, ci := range spec.Components {
		d.Components[i] = componentInstanceOut{
			CatalogID:     ci.CatalogID,
			InstanceID:    ci.InstanceID,
			Config:        ci.Config,
			MountingStyle: ci.MountingStyle,
		}
	}

	d.Outline = make([]outlineVertexOut, len(spec.Outline.Points))
	for i, p := range spec.Outline.Points {
		out := outlineVertexOut{X: p.X, Y: p.Y}
		if p.EaseIn != 0 {
			v := p.EaseIn
			out.EaseIn = &v
		}
		if p.EaseOut != 0 {
			v := p.EaseOut
			out.EaseOut = &v
		}
		d.Outline[i] = out
	}

	d.UIPlacements = make([]uiPlacementOut, len(spec.UIPlacements))
	for i, p := range spec.UIPlacements {
		d.UIPlacements[i] = uiPlacementOut{
			InstanceID: p.InstanceID,
			XMM:        p.XMM,
			YMM:        p.YMM,
			EdgeIndex:  p.EdgeIndex,
		}
	}

	return d
}
