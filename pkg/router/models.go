// Package router connects every net's pins with Manhattan-routed
// conductive-ink traces on a single routing layer: it carves a grid
// from the placed outline, decomposes multi-pin nets into a
// minimum-spanning-tree of 2-pin segments, routes each via A*, and
// falls back to rip-up-and-reroute with randomized net orderings when
// a straightforward pass leaves nets unconnected.
package router

import (
	"context"
	"fmt"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/rng"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// Trace is one routed net segment: an ordered polyline of waypoints,
// in board millimeters, simplified to direction-change corners.
type Trace struct {
	NetID string      `json:"net_id"`
	Path  []geom.Point `json:"path"`
}

// RoutingResult is the outcome of routing every net in a placement.
type RoutingResult struct {
	Traces []Trace `json:"traces"`

	// PinAssignments records the physical pin chosen for every dynamic
	// group reference, keyed "net_id|raw_ref" and valued
	// "instance_id:pin_id", so a later attempt can reuse the same
	// choice instead of re-allocating from scratch.
	PinAssignments map[string]string `json:"pin_assignments"`

	// FailedNets lists the IDs of nets that could not be fully routed.
	FailedNets []string `json:"failed_nets"`
}

// OK reports whether every net was successfully routed.
func (r *RoutingResult) OK() bool {
	return len(r.FailedNets) == 0
}

// Router connects every net in a placement with routed traces.
// Available implementations are registered by name; the only one
// built in here is Manhattan A* with rip-up and reroute, but the
// interface lets a future algorithm (e.g. a two-layer router) slot in
// unchanged.
type Router interface {
	// Route connects every net in fp, returning the traces it found
	// and the IDs of any nets it could not complete. r supplies the
	// deterministic randomness for rip-up net-ordering shuffles; ctx
	// cancellation is checked between outer rip-up attempts.
	Route(ctx context.Context, fp *placer.FullPlacement, cat *catalog.CatalogResult, r *rng.RNG) (*RoutingResult, error)

	// Name returns the identifier for this routing algorithm.
	Name() string
}

var registry = make(map[string]func(traceconfig.RouterConfig) Router)

// Register adds a router factory to the registry.
func Register(name string, factory func(traceconfig.RouterConfig) Router) {
	if factory == nil {
		panic(fmt.Sprintf("router: Register factory for %s is nil", name))
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("router: Register called twice for %s", name))
	}
	registry[name] = factory
}

// Get retrieves a router by name and initializes it with the given
// config (traceconfig.DefaultRouterConfig() if the zero value).
func Get(name string, config traceconfig.RouterConfig) (Router, error) {
	factory, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("router %q not registered", name)
	}
	if (config == traceconfig.RouterConfig{}) {
		config = traceconfig.DefaultRouterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return factory(config), nil
}

// List returns every registered router name.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("manhattan_ripup", func(cfg traceconfig.RouterConfig) Router {
		return &RipUpRouter{cfg: cfg}
	})
}

// RouteNets connects every net using the default Manhattan rip-up
// router and default config, a convenience wrapper around the
// registry for callers that don't need to pick an algorithm.
func RouteNets(ctx context.Context, fp *placer.FullPlacement, cat *catalog.CatalogResult, seed uint64) (*RoutingResult, error) {
	cfg := traceconfig.DefaultRouterConfig()
	router, err := Get("manhattan_ripup", cfg)
	if err != nil {
		return nil, err
	}
	r := rng.NewRNG(seed, "routing", cfg.Rules.Hash())
	return router.Route(ctx, fp, cat, r)
}
