package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/pipeline"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
)

// SVGOptions configures board debug visualization export.
type SVGOptions struct {
	Width        int    // Canvas width in pixels
	Height       int    // Canvas height in pixels
	Margin       int    // Canvas margin in pixels (default: 60)
	ShowLabels   bool   // Show instance_id labels on components
	ShowPins     bool   // Show individual pin dots
	ShowLegend   bool   // Show legend explaining net colors
	Title        string // Optional title for the visualization
	ShowStats    bool   // Show component/trace/failed-net counts
}

// DefaultSVGOptions returns sensible default SVG export options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      1200,
		Height:     900,
		Margin:     60,
		ShowLabels: true,
		ShowPins:   true,
		ShowLegend: true,
		Title:      "Board Layout",
		ShowStats:  true,
	}
}

// ExportSVG renders an artifact's outline, component bodies, pins,
// and routed traces as an SVG debug visualization.
func ExportSVG(artifact *pipeline.Artifact, cat *catalog.CatalogResult, opts SVGOptions) ([]byte, error) {
	if artifact == nil || artifact.Placement == nil {
		return nil, fmt.Errorf("artifact must contain a placement")
	}
	if opts.Width <= 0 {
		opts.Width = 1200
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}
	if opts.Margin <= 0 {
		opts.Margin = 60
	}

	verts := artifact.Placement.Outline.Vertices()
	proj := newProjector(verts, opts)

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#1a1a2e")

	drawOutline(canvas, verts, proj)
	drawComponents(canvas, artifact.Placement.Components, cat, proj, opts)
	if artifact.Routing != nil {
		netColors := assignNetColors(artifact.Routing.Traces)
		drawTraces(canvas, artifact.Routing.Traces, proj, netColors)
		if opts.ShowLegend {
			drawLegend(canvas, netColors, opts)
		}
	}
	if opts.Title != "" || opts.ShowStats {
		drawHeader(canvas, artifact, opts)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveSVGToFile renders and writes the board visualization to path.
func SaveSVGToFile(artifact *pipeline.Artifact, cat *catalog.CatalogResult, path string, opts SVGOptions) error {
	data, err := ExportSVG(artifact, cat, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// projector maps world millimeters to canvas pixels, fitting the
// outline's bounding box inside the margin-inset canvas with a single
// uniform scale (no axis distortion).
type projector struct {
	scale               float64
	offsetX, offsetY    float64
	canvasH             int
}

func newProjector(verts []geom.Point, opts SVGOptions) projector {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range verts {
		minX, maxX = math.Min(minX, v[0]), math.Max(maxX, v[0])
		minY, maxY = math.Min(minY, v[1]), math.Max(maxY, v[1])
	}
	if len(verts) == 0 || minX > maxX {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	drawW := float64(opts.Width - 2*opts.Margin)
	drawH := float64(opts.Height - 2*opts.Margin - 60)
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := math.Min(drawW/spanX, drawH/spanY)

	return projector{
		scale:   scale,
		offsetX: float64(opts.Margin) - minX*scale,
		offsetY: float64(opts.Margin) + 60 - minY*scale,
		canvasH: opts.Height,
	}
}

// toCanvas converts a world point to canvas pixel coordinates. World Y
// grows upward; canvas Y grows downward, so the Y axis is flipped
// around the full canvas height.
func (p projector) toCanvas(x, y float64) (int, int) {
	px := p.offsetX + x*p.scale
	py := float64(p.canvasH) - (p.offsetY + y*p.scale)
	return int(px), int(py)
}

func (p projector) scaleLen(mm float64) int {
	v := int(mm * p.scale)
	if v < 1 {
		return 1
	}
	return v
}

func drawOutline(canvas *svg.SVG, verts []geom.Point, proj projector) {
	if len(verts) < 3 {
		return
	}
	xs := make([]int, len(verts))
	ys := make([]int, len(verts))
	for i, v := range verts {
		xs[i], ys[i] = proj.toCanvas(v[0], v[1])
	}
	canvas.Polygon(xs, ys, "fill:#0f1629;stroke:#4a5568;stroke-width:2")
}

func drawComponents(canvas *svg.SVG, components []placer.PlacedComponent, cat *catalog.CatalogResult, proj projector, opts SVGOptions) {
	catalogMap := cat.Map()
	sorted := append([]placer.PlacedComponent(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].InstanceID < sorted[j].InstanceID })

	for _, pc := range sorted {
		c, ok := catalogMap[pc.CatalogID]
		if !ok {
			continue
		}
		cx, cy := proj.toCanvas(pc.XMM, pc.YMM)
		hw, hh := bodyHalfDimsFor(c, pc.RotationDeg)
		color := componentColor(c.Mounting.Style)

		if c.Body.Shape == catalog.ShapeCircle {
			r := proj.scaleLen(hw)
			canvas.Circle(cx, cy, r, fmt.Sprintf("fill:%s;stroke:#e2e8f0;stroke-width:1;opacity:0.85", color))
		} else {
			w, h := proj.scaleLen(hw*2), proj.scaleLen(hh*2)
			canvas.Rect(cx-w/2, cy-h/2, w, h, fmt.Sprintf("fill:%s;stroke:#e2e8f0;stroke-width:1;opacity:0.85", color))
		}

		if opts.ShowPins {
			for _, pin := range c.Pins {
				wp := geom.PinWorldXY(pin.PositionMM, pc.XMM, pc.YMM, pc.RotationDeg)
				px, py := proj.toCanvas(wp[0], wp[1])
				canvas.Circle(px, py, 2, "fill:#fbbf24")
			}
		}

		if opts.ShowLabels {
			canvas.Text(cx, cy+proj.scaleLen(hh)+14, pc.InstanceID,
				"text-anchor:middle;font-size:10px;font-family:monospace;fill:#e2e8f0")
		}
	}
}

func bodyHalfDimsFor(c *catalog.Component, rotationDeg int) (hw, hh float64) {
	if c.Body.Shape == catalog.ShapeCircle {
		return geom.FootprintHalfDimsCircle(c.Body.DiameterMM)
	}
	return geom.FootprintHalfDims(c.Body.WidthMM, c.Body.LengthMM, rotationDeg)
}

func componentColor(style catalog.MountingStyle) string {
	switch style {
	case catalog.StyleTop:
		return "#4299e1"
	case catalog.StyleBottom:
		return "#f56565"
	case catalog.StyleSide:
		return "#48bb78"
	case catalog.StyleInternal:
		return "#9f7aea"
	default:
		return "#718096"
	}
}

var palette = []string{
	"#48bb78", "#4299e1", "#f56565", "#ed8936", "#9f7aea",
	"#ecc94b", "#38b2ac", "#ed64a6", "#667eea", "#fc8181",
}

func assignNetColors(traces []router.Trace) map[string]string {
	ids := make([]string, 0, len(traces))
	seen := make(map[string]bool, len(traces))
	for _, tr := range traces {
		if !seen[tr.NetID] {
			seen[tr.NetID] = true
			ids = append(ids, tr.NetID)
		}
	}
	sort.Strings(ids)
	colors := make(map[string]string, len(ids))
	for i, id := range ids {
		colors[id] = palette[i%len(palette)]
	}
	return colors
}

func drawTraces(canvas *svg.SVG, traces []router.Trace, proj projector, netColors map[string]string) {
	sorted := append([]router.Trace(nil), traces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NetID < sorted[j].NetID })

	for _, tr := range sorted {
		color := netColors[tr.NetID]
		for i := 1; i < len(tr.Path); i++ {
			x1, y1 := proj.toCanvas(tr.Path[i-1][0], tr.Path[i-1][1])
			x2, y2 := proj.toCanvas(tr.Path[i][0], tr.Path[i][1])
			canvas.Line(x1, y1, x2, y2, fmt.Sprintf("stroke:%s;stroke-width:2;opacity:0.9", color))
		}
	}
}

func drawLegend(canvas *svg.SVG, netColors map[string]string, opts SVGOptions) {
	if len(netColors) == 0 {
		return
	}
	ids := make([]string, 0, len(netColors))
	for id := range netColors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	legendX := opts.Width - opts.Margin - 160
	legendY := opts.Margin + 80
	canvas.Rect(legendX-10, legendY-15, 170, 20+18*len(ids),
		"fill:#2d3748;stroke:#4a5568;stroke-width:1;opacity:0.95;rx:5")
	canvas.Text(legendX, legendY, "Nets", "font-size:13px;font-weight:bold;fill:#e2e8f0")
	legendY += 20
	for _, id := range ids {
		canvas.Line(legendX, legendY, legendX+24, legendY, fmt.Sprintf("stroke:%s;stroke-width:3", netColors[id]))
		canvas.Text(legendX+32, legendY+4, id, "font-size:11px;fill:#cbd5e0")
		legendY += 18
	}
}

func drawHeader(canvas *svg.SVG, artifact *pipeline.Artifact, opts SVGOptions) {
	headerY := 25
	if opts.Title != "" {
		canvas.Text(opts.Width/2, headerY, opts.Title,
			"text-anchor:middle;font-size:20px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
		headerY += 30
	}
	if opts.ShowStats {
		nComponents := len(artifact.Placement.Components)
		nTraces, nFailed := 0, 0
		if artifact.Routing != nil {
			nTraces = len(artifact.Routing.Traces)
			nFailed = len(artifact.Routing.FailedNets)
		}
		stats := fmt.Sprintf("Components: %d | Traces: %d | Failed nets: %d", nComponents, nTraces, nFailed)
		canvas.Text(opts.Width/2, headerY, stats,
			"text-anchor:middle;font-size:12px;fill:#a0aec0;font-family:monospace")
	}
}
