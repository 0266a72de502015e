package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/rng"
	"github.com/dshills/boardlayout/pkg/router"
	"github.com/dshills/boardlayout/pkg/validation"
)

// Builder is the main entry point for running the placement + routing
// pipeline. Implementations must be deterministic: the same Config,
// design spec, and catalog produce an identical Artifact.
type Builder interface {
	// Build loads the catalog from cfg.CatalogDir and the
	// design spec, validates the design, places every component,
	// routes every net, and validates the result.
	//
	// Context cancellation is checked between stages and propagated
	// into the router's own rip-up loop.
	Build(ctx context.Context, cfg *Config) (*Artifact, error)
}

// DefaultBuilder implements Builder. It orchestrates four stages:
//  1. Catalog load + design parse + design validation
//  2. Placement (grid-search placer)
//  3. Routing (Manhattan A* with rip-up/reroute)
//  4. Validation (invariant checks against both outputs)
type DefaultBuilder struct {
	PlacerName string // defaults to "grid_search"
	RouterName string // defaults to "manhattan_ripup"
	Validator  validation.Validator
}

// NewBuilder creates a builder with the default placer, router, and
// validator implementations.
func NewBuilder() Builder {
	return &DefaultBuilder{
		PlacerName: "grid_search",
		RouterName: "manhattan_ripup",
		Validator:  validation.NewValidator(),
	}
}

// Build runs the full pipeline.
func (b *DefaultBuilder) Build(ctx context.Context, cfg *Config) (*Artifact, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	configHash := cfg.Hash()
	seed := seedOrRandom(cfg.Seed, configHash)
	routerRNG := rng.NewRNG(seed, "router", configHash)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Stage 0: catalog + design.
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("catalog load: %w", err)
	}
	if len(cat.Errors) > 0 {
		return nil, fmt.Errorf("catalog: %d invalid components: %v", len(cat.Errors), cat.Errors)
	}

	designData, err := os.ReadFile(cfg.DesignPath)
	if err != nil {
		return nil, fmt.Errorf("design read: %w", err)
	}
	spec, err := design.Parse(designData)
	if err != nil {
		return nil, fmt.Errorf("design parse: %w", err)
	}
	if problems := design.Validate(spec, cat); len(problems) > 0 {
		return nil, fmt.Errorf("design validation: %v", problems)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Stage 1: placement.
	placerName := b.PlacerName
	if placerName == "" {
		placerName = "grid_search"
	}
	placerEngine, err := placer.Get(placerName, &cfg.Placer)
	if err != nil {
		return nil, fmt.Errorf("placer init: %w", err)
	}
	fp, err := placerEngine.Place(spec, cat)
	if err != nil {
		return nil, fmt.Errorf("placement failed: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Stage 2: routing.
	routerName := b.RouterName
	if routerName == "" {
		routerName = "manhattan_ripup"
	}
	routerEngine, err := router.Get(routerName, cfg.Router)
	if err != nil {
		return nil, fmt.Errorf("router init: %w", err)
	}
	routingResult, err := routerEngine.Route(ctx, fp, cat, routerRNG)
	if err != nil {
		return nil, fmt.Errorf("routing failed: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Stage 3: validation.
	validator := b.Validator
	if validator == nil {
		validator = validation.NewValidator()
	}
	report, err := validator.Validate(ctx, fp, routingResult, cat, cfg.Placer.Rules)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &Artifact{
		Design:    spec,
		Placement: fp,
		Routing:   routingResult,
		Report:    report,
	}, nil
}
