package placer

import (
	"fmt"
	"math"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/netgraph"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// Placer assigns positions to every component in a design. Available
// implementations are registered by name; the only one built in here
// is the exhaustive grid-search placer, but the interface lets a
// future algorithm (e.g. simulated annealing) slot in unchanged.
type Placer interface {
	// Place positions every component in spec, returning a
	// PlacementError if one cannot be legally placed.
	Place(spec *design.DesignSpec, cat *catalog.CatalogResult) (*FullPlacement, error)

	// Name returns the identifier for this placement algorithm.
	Name() string
}

var registry = make(map[string]func(*Config) Placer)

// Register adds a placer factory to the registry.
func Register(name string, factory func(*Config) Placer) {
	if factory == nil {
		panic(fmt.Sprintf("placer: Register factory for %s is nil", name))
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("placer: Register called twice for %s", name))
	}
	registry[name] = factory
}

// Get retrieves a placer by name and initializes it with the given
// config (DefaultConfig() if nil).
func Get(name string, config *Config) (Placer, error) {
	factory, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("placer %q not registered", name)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return factory(config), nil
}

// List returns every registered placer name.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("grid_search", func(cfg *Config) Placer { return &GridSearchPlacer{cfg: cfg} })
}

// GridSearchPlacer places components via exhaustive position x
// rotation grid search, scoring each legal candidate and keeping the
// best.
type GridSearchPlacer struct {
	cfg *Config
}

func (p *GridSearchPlacer) Name() string { return "grid_search" }

// Place positions every component: UI-placed components keep their
// fixed (agent-specified) position, and every other component is
// auto-placed by grid search in connectivity-group order.
func (p *GridSearchPlacer) Place(spec *design.DesignSpec, cat *catalog.CatalogResult) (*FullPlacement, error) {
	cfg := p.cfg
	if cfg == nil {
		cfg = DefaultConfig()
	}

	catalogMap := cat.Map()
	outlineVerts := spec.Outline.Vertices()
	if len(outlineVerts) < 3 || !geom.IsSimplePolygon(outlineVerts) || math.Abs(geom.PolygonArea(outlineVerts)) == 0 {
		return nil, &PlacementError{"_outline", "_outline", "outline polygon is invalid or has zero area"}
	}

	xmin, ymin, xmax, ymax := boundsOf(outlineVerts)
	outlineArea := geom.PolygonArea(outlineVerts)
	if outlineArea < 0 {
		outlineArea = -outlineArea
	}

	graph := netgraph.Build(spec.Nets)

	effectiveStyle := make(map[string]string, len(spec.Components))
	for _, ci := range spec.Components {
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		if ci.MountingStyle != "" {
			effectiveStyle[ci.InstanceID] = ci.MountingStyle
		} else {
			effectiveStyle[ci.InstanceID] = string(c.Mounting.Style)
		}
	}

	var placed []Placed
	uiIDs := make(map[string]bool)

	for _, up := range spec.UIPlacements {
		ci, ok := spec.ComponentByInstance(up.InstanceID)
		if !ok {
			continue
		}
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		style := effectiveStyle[ci.InstanceID]

		var x, y float64
		var rot int
		if style == string(catalog.StyleSide) && up.EdgeIndex != nil {
			x, y, rot = snapToEdge(up.XMM, up.YMM, spec.Outline, *up.EdgeIndex)
		} else {
			x, y, rot = up.XMM, up.YMM, 0
		}

		hw, hh := bodyHalfDims(c, rot)
		ehw, ehh := envelopeHalfDims(c, rot, cfg.Rules)
		placed = append(placed, Placed{
			InstanceID: ci.InstanceID, CatalogID: ci.CatalogID,
			X: x, Y: y, Rotation: rot,
			HW: hw, HH: hh, EnvHW: ehw, EnvHH: ehh,
			Keepout: c.Mounting.KeepoutMarginMM,
		})
		uiIDs[ci.InstanceID] = true
	}

	var toPlaceIDs []string
	areaMap := make(map[string]float64)
	for _, ci := range spec.Components {
		if uiIDs[ci.InstanceID] {
			continue
		}
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		toPlaceIDs = append(toPlaceIDs, ci.InstanceID)
		areaMap[ci.InstanceID] = footprintArea(c)
	}

	groups := netgraph.BuildPlacementGroups(toPlaceIDs, graph, areaMap)

	groupMatesMap := make(map[string]map[string]bool)
	for _, group := range groups {
		groupSet := make(map[string]bool, len(group))
		for _, iid := range group {
			groupSet[iid] = true
		}
		for _, iid := range group {
			mates := make(map[string]bool, len(groupSet)-1)
			for m := range groupSet {
				if m != iid {
					mates[m] = true
				}
			}
			groupMatesMap[iid] = mates
		}
	}

	ciMap := make(map[string]*design.ComponentInstance, len(spec.Components))
	for i := range spec.Components {
		ciMap[spec.Components[i].InstanceID] = &spec.Components[i]
	}

	var toPlace []*design.ComponentInstance
	for _, group := range groups {
		for _, iid := range group {
			toPlace = append(toPlace, ciMap[iid])
		}
	}

	sharedNetsCache := make(map[[2]string]int)
	minPinSq := cfg.Rules.MinPinClearanceMM() * cfg.Rules.MinPinClearanceMM()

	for _, ci := range toPlace {
		c := catalogMap[ci.CatalogID]
		style := effectiveStyle[ci.InstanceID]
		keepout := c.Mounting.KeepoutMarginMM

		existingSegments := ComputePlacedSegments(placed, catalogMap, graph)

		placedPinPositions := make(map[string][]geom.Point, len(placed))
		for _, pp := range placed {
			ppCat, ok := catalogMap[pp.CatalogID]
			if !ok {
				continue
			}
			pts := make([]geom.Point, len(ppCat.Pins))
			for i, pin := range ppCat.Pins {
				pts[i] = geom.PinWorldXY(pin.PositionMM, pp.X, pp.Y, pp.Rotation)
			}
			placedPinPositions[pp.InstanceID] = pts
		}

		var bestPos *geom.Point
		bestRot := 0
		bestScore := math.Inf(-1)

		for _, rotation := range ValidRotations {
			hw, hh := bodyHalfDims(c, rotation)
			ehw, ehh := envelopeHalfDims(c, rotation, cfg.Rules)

			ihw := ehw + cfg.Rules.MinEdgeClearanceMM()
			ihh := ehh + cfg.Rules.MinEdgeClearanceMM()

			scanXMin, scanXMax := xmin+ihw, xmax-ihw
			scanYMin, scanYMax := ymin+ihh, ymax-ihh
			if scanXMin > scanXMax || scanYMin > scanYMax {
				continue
			}

			myPinOffsets := make([]geom.Point, len(c.Pins))
			for i, pin := range c.Pins {
				myPinOffsets[i] = geom.PinWorldXY(pin.PositionMM, 0, 0, rotation)
			}

			for cx := scanXMin; cx <= scanXMax+1e-6; cx += cfg.GridStep {
				for cy := scanYMin; cy <= scanYMax+1e-6; cy += cfg.GridStep {
					// H1: inflated footprint must lie fully inside the outline.
					if !geom.RectInsidePolygon(cx, cy, ihw, ihh, outlineVerts) {
						continue
					}

					// H2: no overlap, honoring keepout and the routing
					// channel width needed for however many nets are shared.
					overlap := false
					for _, pp := range placed {
						a, b := ci.InstanceID, pp.InstanceID
						if a > b {
							a, b = b, a
						}
						key := [2]string{a, b}
						nChannels, cached := sharedNetsCache[key]
						if !cached {
							nChannels = netgraph.CountSharedNets(ci.InstanceID, pp.InstanceID, graph)
							sharedNetsCache[key] = nChannels
						}
						channelGap := float64(nChannels) * cfg.Rules.RoutingChannelMM()
						requiredGap := maxF(keepout, pp.Keepout, channelGap)
						actualGap := geom.AABBGap(cx, cy, ehw, ehh, pp.X, pp.Y, pp.EnvHW, pp.EnvHH)
						if actualGap < requiredGap {
							overlap = true
							break
						}
					}
					if overlap {
						continue
					}

					// H3: minimum edge clearance, measured against the
					// pin envelope so pins never land outside the wall.
					if geom.RectEdgeClearance(cx, cy, ehw, ehh, outlineVerts) < cfg.Rules.MinEdgeClearanceMM() {
						continue
					}

					// H4: pin-to-pin clearance against every placed pin.
					pinClash := false
					myPinsWorld := make([]geom.Point, len(myPinOffsets))
					for i, o := range myPinOffsets {
						myPinsWorld[i] = geom.Point{cx + o[0], cy + o[1]}
					}
				pinLoop:
					for _, pp := range placed {
						for _, op := range placedPinPositions[pp.InstanceID] {
							for _, mp := range myPinsWorld {
								dx, dy := mp[0]-op[0], mp[1]-op[1]
								if dx*dx+dy*dy < minPinSq {
									pinClash = true
									break pinLoop
								}
							}
						}
					}
					if pinClash {
						continue
					}

					score := scoreCandidate(cx, cy, rotation, hw, hh, keepout, scoreContext{
						instanceID:       ci.InstanceID,
						cat:              c,
						placed:           placed,
						catalogMap:       catalogMap,
						graph:            graph,
						outlineVerts:     outlineVerts,
						outlineBounds:    [4]float64{xmin, ymin, xmax, ymax},
						outlineArea:      outlineArea,
						mountingStyle:    style,
						existingSegments: existingSegments,
						groupMates:       groupMatesMap[ci.InstanceID],
						envHW:            ehw,
						envHH:            ehh,
						weights:          cfg.Weights,
					})

					if score > bestScore {
						bestScore = score
						pos := geom.Point{cx, cy}
						bestPos = &pos
						bestRot = rotation
					}
				}
			}
		}

		if bestPos == nil {
			bodyW, bodyH := bodyDims(c)
			return nil, &PlacementError{
				InstanceID: ci.InstanceID,
				CatalogID:  ci.CatalogID,
				Reason: fmt.Sprintf(
					"no valid position found inside the %.0fx%.0fmm outline; body is %.1fx%.1fmm with %.1fmm keepout; "+
						"try widening the outline or repositioning other components",
					xmax-xmin, ymax-ymin, bodyW, bodyH, keepout),
			}
		}

		hwFinal, hhFinal := bodyHalfDims(c, bestRot)
		ehwFinal, ehhFinal := envelopeHalfDims(c, bestRot, cfg.Rules)
		placed = append(placed, Placed{
			InstanceID: ci.InstanceID, CatalogID: ci.CatalogID,
			X: bestPos[0], Y: bestPos[1], Rotation: bestRot,
			HW: hwFinal, HH: hhFinal, EnvHW: ehwFinal, EnvHH: ehhFinal,
			Keepout: keepout,
		})
	}

	resultComponents := make([]PlacedComponent, len(placed))
	for i, p := range placed {
		resultComponents[i] = PlacedComponent{
			InstanceID: p.InstanceID, CatalogID: p.CatalogID,
			XMM: round2(p.X), YMM: round2(p.Y), RotationDeg: p.Rotation,
		}
	}

	return &FullPlacement{
		Components: resultComponents,
		Outline:    spec.Outline,
		Nets:       spec.Nets,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxF(vals ...float64) float64 {
	best := vals[0]
	for _, v := range vals[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func boundsOf(verts []geom.Point) (xmin, ymin, xmax, ymax float64) {
	xmin, ymin = verts[0][0], verts[0][1]
	xmax, ymax = xmin, ymin
	for _, v := range verts[1:] {
		if v[0] < xmin {
			xmin = v[0]
		}
		if v[0] > xmax {
			xmax = v[0]
		}
		if v[1] < ymin {
			ymin = v[1]
		}
		if v[1] > ymax {
			ymax = v[1]
		}
	}
	return
}

func bodyHalfDims(c *catalog.Component, rotationDeg int) (hw, hh float64) {
	if c.Body.Shape == catalog.ShapeCircle {
		d := c.Body.DiameterMM
		if d == 0 {
			d = 5.0
		}
		return geom.FootprintHalfDimsCircle(d)
	}
	w, l := c.Body.WidthMM, c.Body.LengthMM
	if w == 0 {
		w = 1.0
	}
	if l == 0 {
		l = 1.0
	}
	return geom.FootprintHalfDims(w, l, rotationDeg)
}

func bodyDims(c *catalog.Component) (w, h float64) {
	if c.Body.Shape == catalog.ShapeCircle {
		return c.Body.DiameterMM, c.Body.DiameterMM
	}
	return c.Body.WidthMM, c.Body.LengthMM
}

func footprintArea(c *catalog.Component) float64 {
	if c.Body.Shape == catalog.ShapeCircle {
		d := c.Body.DiameterMM
		if d == 0 {
			d = 5.0
		}
		return geom.FootprintAreaCircle(d)
	}
	w, l := c.Body.WidthMM, c.Body.LengthMM
	if w == 0 {
		w = 1.0
	}
	if l == 0 {
		l = 1.0
	}
	return geom.FootprintArea(w, l)
}

// envelopeHalfDims returns the half-dims of the envelope that must
// clear the outline and neighboring components: the rotated body
// expanded to also cover every pin position inflated by a pad radius
// (half the trace clearance), since a pad's own routable disk is still
// a routing hazard even when the pin center sits inside the body.
func envelopeHalfDims(c *catalog.Component, rotationDeg int, rules traceconfig.TraceRules) (ehw, ehh float64) {
	hw, hh := bodyHalfDims(c, rotationDeg)
	ehw, ehh = hw, hh
	padRadius := rules.TraceClearanceMM / 2
	for _, pin := range c.Pins {
		wp := geom.PinWorldXY(pin.PositionMM, 0, 0, rotationDeg)
		if reach := absF(wp[0]) + padRadius; reach > ehw {
			ehw = reach
		}
		if reach := absF(wp[1]) + padRadius; reach > ehh {
			ehh = reach
		}
	}
	return
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// PlaceComponents places all components using the default grid-search
// placer and default config, a convenience wrapper around the
// registry for callers that don't need to pick an algorithm.
func PlaceComponents(spec *design.DesignSpec, cat *catalog.CatalogResult) (*FullPlacement, error) {
	p, err := Get("grid_search", DefaultConfig())
	if err != nil {
		return nil, err
	}
	return p.Place(spec, cat)
}
