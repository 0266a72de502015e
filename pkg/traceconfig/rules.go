// Package traceconfig is the single source of truth for the physical
// trace design rules and router tuning knobs shared by the placer and
// the router. Changing a value here keeps both stages in sync.
package traceconfig

import (
	"crypto/sha256"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TraceRules holds the physical design rules for conductive-ink traces.
// All distances are in millimeters.
type TraceRules struct {
	// TraceWidthMM is the width of a single conductive-ink trace.
	TraceWidthMM float64 `yaml:"traceWidthMM" json:"traceWidthMM"`

	// TraceClearanceMM is the minimum edge-to-edge gap between two
	// traces, or a trace and another net's clearance zone.
	TraceClearanceMM float64 `yaml:"traceClearanceMM" json:"traceClearanceMM"`

	// PinClearanceMM is the minimum gap from a trace edge to a foreign
	// pin center. Roughly half the DIP-28 pin pitch, rounded up.
	PinClearanceMM float64 `yaml:"pinClearanceMM" json:"pinClearanceMM"`

	// EdgeClearanceMM is the minimum distance from a trace to the
	// outline edge.
	EdgeClearanceMM float64 `yaml:"edgeClearanceMM" json:"edgeClearanceMM"`

	// GridResolutionMM is the routing-grid cell size.
	GridResolutionMM float64 `yaml:"gridResolutionMM" json:"gridResolutionMM"`
}

// DefaultTraceRules returns the standard rule set used when no override
// is configured.
func DefaultTraceRules() TraceRules {
	return TraceRules{
		TraceWidthMM:      1.0,
		TraceClearanceMM:  2.0,
		PinClearanceMM:    2.0,
		EdgeClearanceMM:   1.5,
		GridResolutionMM:  0.5,
	}
}

// RoutingChannelMM is the width needed per trace channel between
// components: one channel is trace width plus trace clearance, since
// the router enforces half the clearance on each side.
func (r TraceRules) RoutingChannelMM() float64 {
	return r.TraceWidthMM + r.TraceClearanceMM
}

// MinPinClearanceMM is the minimum center-to-center distance between
// pin holes of different components: the largest common hole diameter
// (1.2mm) plus two pin clearances, so a trace and its clearance
// envelope can pass between two pins without violating either side.
func (r TraceRules) MinPinClearanceMM() float64 {
	return 1.2 + 2*r.PinClearanceMM
}

// MinEdgeClearanceMM is the hard minimum body-to-outline distance the
// placer enforces, matching the router's edge clearance so traces at
// the body perimeter can still reach the outline-inset boundary.
func (r TraceRules) MinEdgeClearanceMM() float64 {
	return r.EdgeClearanceMM
}

// Validate checks that every rule is a usable, positive distance.
func (r TraceRules) Validate() error {
	if r.TraceWidthMM <= 0 {
		return fmt.Errorf("traceWidthMM must be > 0, got %f", r.TraceWidthMM)
	}
	if r.TraceClearanceMM <= 0 {
		return fmt.Errorf("traceClearanceMM must be > 0, got %f", r.TraceClearanceMM)
	}
	if r.PinClearanceMM <= 0 {
		return fmt.Errorf("pinClearanceMM must be > 0, got %f", r.PinClearanceMM)
	}
	if r.EdgeClearanceMM <= 0 {
		return fmt.Errorf("edgeClearanceMM must be > 0, got %f", r.EdgeClearanceMM)
	}
	if r.GridResolutionMM <= 0 {
		return fmt.Errorf("gridResolutionMM must be > 0, got %f", r.GridResolutionMM)
	}
	return nil
}

// Hash returns a deterministic fingerprint of the rule set, used to
// derive per-stage RNG seeds alongside the master seed.
func (r TraceRules) Hash() []byte {
	data, err := yaml.Marshal(r)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", r))
	}
	h := sha256.New()
	h.Write(data)
	return h.Sum(nil)
}
