package placer

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/boardlayout/pkg/design"
)

type outlineVertexOut struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	EaseIn  *float64 `json:"ease_in,omitempty"`
	EaseOut *float64 `json:"ease_out,omitempty"`
}

type placementDict struct {
	Components []PlacedComponent  `json:"components"`
	Outline    []outlineVertexOut `json:"outline"`
	Nets       []design.Net       `json:"nets"`
}

// ToJSON serializes a FullPlacement into the canonical wire format.
func ToJSON(fp *FullPlacement) ([]byte, error) {
	d := placementDict{
		Components: fp.Components,
		Nets:       fp.Nets,
	}
	if d.Components == nil {
		d.Components = []PlacedComponent{}
	}
	if d.Nets == nil {
		d.Nets = []design.Net{}
	}
	d.Outline = make([]outlineVertexOut, len(fp.Outline.Points))
	for i, p := range fp.Outline.Points {
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
	return json.MarshalIndent(d, "", "  ")
}

// ParsePlacement parses a placement.json payload back into a
// FullPlacement.
func ParsePlacement(data []byte) (*FullPlacement, error) {
	var raw struct {
		Components []PlacedComponent     `json:"components"`
		Outline    []rawOutlineVertex    `json:"outline"`
		Nets       []design.Net          `json:"nets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("placer: parse placement: %w", err)
	}

	outline := design.Outline{Points: make([]design.OutlineVertex, len(raw.Outline))}
	for i, v := range raw.Outline {
		easeIn, easeOut := v.EaseIn, v.EaseOut
		if easeIn != nil && easeOut == nil {
			easeOut = easeIn
		} else if easeOut != nil && easeIn == nil {
			easeIn = easeOut
		}
		vertex := design.OutlineVertex{X: v.X, Y: v.Y}
		if easeIn != nil {
			vertex.EaseIn = *easeIn
		}
		if easeOut != nil {
			vertex.EaseOut = *easeOut
		}
		outline.Points[i] = vertex
	}

	return &FullPlacement{
		Components: raw.Components,
		Outline:    outline,
		Nets:       raw.Nets,
	}, nil
}

type rawOutlineVertex struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	EaseIn  *float64 `json:"ease_in"`
	EaseOut *float64 `json:"ease_out"`
}
