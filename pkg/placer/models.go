// Package placer assigns world positions and rotations to every
// component in a design: fixed UI placements first, then an
// exhaustive grid search for every remaining component, optimizing
// net proximity, clearance uniformity, and a handful of secondary
// preferences while enforcing hard non-overlap and edge-clearance
// constraints.
package placer

import (
	"fmt"

	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// PlacedComponent is a component with a resolved world position and
// rotation, ready for the router.
type PlacedComponent struct {
	InstanceID  string  `json:"instance_id"`
	CatalogID   string  `json:"catalog_id"`
	XMM         float64 `json:"x_mm"`
	YMM         float64 `json:"y_mm"`
	RotationDeg int     `json:"rotation_deg"`
}

// FullPlacement is the complete placement of every component, ready
// for routing.
type FullPlacement struct {
	Components []PlacedComponent
	Outline    design.Outline
	Nets       []design.Net
}

// PlacementError reports that a component could not be legally placed
// inside the outline.
type PlacementError struct {
	InstanceID string
	CatalogID  string
	Reason     string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("cannot place %q (%s): %s", e.InstanceID, e.CatalogID, e.Reason)
}

// GridStepMM is the grid scan resolution, in millimeters.
const GridStepMM = 1.0

// ValidRotations lists the four rotations the placer considers.
var ValidRotations = [4]int{0, 90, 180, 270}

// Weights holds the soft-scoring coefficients for candidate positions.
// Higher absolute value means more influence over the final score.
type Weights struct {
	NetProximity    float64 // W_NET_PROXIMITY: main driver, connected components close
	EdgeClearance   float64 // W_EDGE_CLEARANCE: prefer safe distance from outline
	Compactness     float64 // W_COMPACTNESS: weakly prefer compact layouts
	ClearanceUniform float64 // W_CLEARANCE_UNIFORM: prefer uniform gaps between neighbors
	BottomPreference float64 // W_BOTTOM_PREFERENCE: bottom-mount components prefer low Y
	Crossing        float64 // W_CROSSING: heavy penalty per inter-net crossing
	PinCollocation  float64 // W_PIN_COLLOCATION: heavy penalty per near-colliding pin pair
	Spread          float64 // W_SPREAD: reward for spreading out when space allows
	LargeEdgePull   float64 // W_LARGE_EDGE_PULL: pulls large components toward outline edges
	PinSide         float64 // W_PIN_SIDE: penalty for approaching a neighbor from the wrong side
	GroupCohesion   float64 // W_GROUP_COHESION: reward for staying near group-mates
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		NetProximity:     5.0,
		EdgeClearance:    0.5,
		Compactness:      0.3,
		ClearanceUniform: 1.0,
		BottomPreference: 0.08,
		Crossing:         50.0,
		PinCollocation:   40.0,
		Spread:           0.6,
		LargeEdgePull:    0.3,
		PinSide:          2.0,
		GroupCohesion:    1.5,
	}
}

// Config bundles the placer's tuning knobs: the shared trace rules
// (clearances, routing channel width), grid step, and scoring weights.
type Config struct {
	Rules    traceconfig.TraceRules
	GridStep float64
	Weights  Weights
}

// DefaultConfig returns a Config built from the default trace rules.
func DefaultConfig() *Config {
	return &Config{
		Rules:    traceconfig.DefaultTraceRules(),
		GridStep: GridStepMM,
		Weights:  DefaultWeights(),
	}
}

// Validate checks that the config's numeric parameters are usable.
func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.GridStep <= 0 {
		return fmt.Errorf("gridStep must be > 0, got %f", c.GridStep)
	}
	return nil
}
