// Package catalog holds the read-only component catalog model: the closed
// set of typed records (components, bodies, mountings, pins, pin groups)
// that the placer and router consume but never mutate.
package catalog

import "fmt"

// BodyShape is the closed set of physical body shapes a component may have.
type BodyShape string

const (
	ShapeRect   BodyShape = "rect"
	ShapeCircle BodyShape = "circle"
)

// MountingStyle is the closed set of mounting orientations.
type MountingStyle string

const (
	StyleTop      MountingStyle = "top"
	StyleBottom   MountingStyle = "bottom"
	StyleSide     MountingStyle = "side"
	StyleInternal MountingStyle = "internal"
)

// PinDirection is the closed set of electrical pin directions.
type PinDirection string

const (
	DirIn           PinDirection = "in"
	DirOut          PinDirection = "out"
	DirBidirectional PinDirection = "bidirectional"
)

// Cap describes a mounting cap's SCAD dimensions, carried through to
// downstream SCAD generation. Neither the placer nor the router inspects it.
type Cap struct {
	DiameterMM      float64 `json:"diameter_mm" yaml:"diameter_mm"`
	HeightMM        float64 `json:"height_mm" yaml:"height_mm"`
	HoleClearanceMM float64 `json:"hole_clearance_mm" yaml:"hole_clearance_mm"`
}

// Hatch describes an optional ventilation hatch's SCAD dimensions,
// likewise passed through untouched by the placement and routing stages.
type Hatch struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	ClearanceMM float64 `json:"clearance_mm" yaml:"clearance_mm"`
	ThicknessMM float64 `json:"thickness_mm" yaml:"thickness_mm"`
}

// Body is a component's physical envelope: rectangular or circular.
type Body struct {
	Shape      BodyShape `json:"shape" yaml:"shape"`
	WidthMM    float64   `json:"width_mm,omitempty" yaml:"width_mm,omitempty"`
	LengthMM   float64   `json:"length_mm,omitempty" yaml:"length_mm,omitempty"`
	DiameterMM float64   `json:"diameter_mm,omitempty" yaml:"diameter_mm,omitempty"`
	HeightMM   float64   `json:"height_mm" yaml:"height_mm"`
}

// Mounting describes how a component attaches to the outline.
type Mounting struct {
	Style           MountingStyle   `json:"style" yaml:"style"`
	AllowedStyles   []MountingStyle `json:"allowed_styles" yaml:"allowed_styles"`
	BlocksRouting   bool            `json:"blocks_routing" yaml:"blocks_routing"`
	KeepoutMarginMM float64         `json:"keepout_margin_mm" yaml:"keepout_margin_mm"`
	Cap             *Cap            `json:"cap,omitempty" yaml:"cap,omitempty"`
	Hatch           *Hatch          `json:"hatch,omitempty" yaml:"hatch,omitempty"`
}

// Allows reports whether style is one of the mounting's allowed styles.
func (m Mounting) Allows(style MountingStyle) bool {
	for _, s := range m.AllowedStyles {
		if s == style {
			return true
		}
	}
	return false
}

// Pin is a single physical connection point in the component's local frame.
type Pin struct {
	ID             string       `json:"id" yaml:"id"`
	PositionMM     [2]float64   `json:"position_mm" yaml:"position_mm"`
	Direction      PinDirection `json:"direction" yaml:"direction"`
	HoleDiameterMM float64      `json:"hole_diameter_mm,omitempty" yaml:"hole_diameter_mm,omitempty"`
	Capabilities   []string     `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// PinGroup names a pool of physical pins the router allocates from
// dynamically (e.g. MCU GPIO banks), at most one pin per usage.
type PinGroup struct {
	ID           string   `json:"id" yaml:"id"`
	PinIDs       []string `json:"pin_ids" yaml:"pin_ids"`
	Allocatable  bool     `json:"allocatable" yaml:"allocatable"`
	FixedNet     string   `json:"fixed_net,omitempty" yaml:"fixed_net,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// Component is one catalog entry: a reusable part definition.
type Component struct {
	ID                string         `json:"id" yaml:"id"`
	Category          string         `json:"category" yaml:"category"`
	Body              Body           `json:"body" yaml:"body"`
	Mounting          Mounting       `json:"mounting" yaml:"mounting"`
	Pins              []Pin          `json:"pins" yaml:"pins"`
	InternalNets      [][]string     `json:"internal_nets,omitempty" yaml:"internal_nets,omitempty"`
	PinGroups         []PinGroup     `json:"pin_groups,omitempty" yaml:"pin_groups,omitempty"`
	UIPlacementFlag   bool           `json:"ui_placement_flag" yaml:"ui_placement_flag"`
	ConfigurableFields []string      `json:"configurable_fields,omitempty" yaml:"configurable_fields,omitempty"`
}

// PinByID returns the pin with the given ID, or ok=false if absent.
func (c *Component) PinByID(id string) (Pin, bool) {
	for _, p := range c.Pins {
		if p.ID == id {
			return p, true
		}
	}
	return Pin{}, false
}

// PinGroupByID returns the pin group with the given ID, or ok=false if absent.
func (c *Component) PinGroupByID(id string) (PinGroup, bool) {
	for _, g := range c.PinGroups {
		if g.ID == id {
			return g, true
		}
	}
	return PinGroup{}, false
}

// ValidationError is a single structured catalog-loading problem.
type ValidationError struct {
	ComponentID string `json:"component_id"`
	Field       string `json:"field"`
	Message     string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.ComponentID, e.Field, e.Message)
}

// CatalogResult is the tolerant outcome of loading a catalog: every
// component that parsed, plus every validation problem encountered,
// component-by-component, rather than aborting the whole load.
type CatalogResult struct {
	Components []Component       `json:"components"`
	Errors     []ValidationError `json:"errors"`
}

// OK reports whether the catalog loaded with no validation errors at all.
func (r *CatalogResult) OK() bool {
	return len(r.Errors) == 0
}

// ByID returns the component with the given catalog ID, or ok=false.
func (r *CatalogResult) ByID(id string) (*Component, bool) {
	for i := range r.Components {
		if r.Components[i].ID == id {
			return &r.Components[i], true
		}
	}
	return nil, false
}

// Map returns a map from catalog ID to component for O(1) lookup.
func (r *CatalogResult) Map() map[string]*Component {
	m := make(map[string]*Component, len(r.Components))
	for i := range r.Components {
		m[r.Components[i].ID] = &r.Components[i]
	}
	return m
}
