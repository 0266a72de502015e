package validation

import (
	"context"
	"fmt"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// Validator checks a placement and its routing result against the
// board's invariants.
type Validator interface {
	Validate(ctx context.Context, fp *placer.FullPlacement, result *router.RoutingResult, cat *catalog.CatalogResult, rules traceconfig.TraceRules) (*Report, error)
}

// DefaultValidator runs every P3-P9 constraint check.
type DefaultValidator struct{}

// NewValidator creates a validator with default settings.
func NewValidator() Validator {
	return &DefaultValidator{}
}

// Validate performs comprehensive validation of a placement and its
// routing result, returning a report of every constraint checked.
func (v *DefaultValidator) Validate(ctx context.Context, fp *placer.FullPlacement, result *router.RoutingResult, cat *catalog.CatalogResult, rules traceconfig.TraceRules) (*Report, error) {
	if fp == nil {
		return nil, fmt.Errorf("placement cannot be nil")
	}
	if result == nil {
		return nil, fmt.Errorf("routing result cannot be nil")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	report := NewReport()

	add := func(r ConstraintResult) {
		report.Results = append(report.Results, r)
		if !r.Satisfied {
			report.Passed = false
			report.Errors = append(report.Errors, r.Details)
		}
	}

	add(CheckEnvelopeContainment(fp, cat, rules.MinEdgeClearanceMM()))
	add(CheckNonOverlap(fp, cat))
	add(CheckPinSeparation(fp, cat, rules.MinPinClearanceMM()))
	add(CheckManhattanTraces(result))
	add(CheckNoNetCrossings(fp, result, rules))
	add(CheckTraceClamping(fp, result, rules.GridResolutionMM))
	add(CheckPinPoolSoundness(result))

	if len(result.FailedNets) > 0 {
		report.Passed = false
		report.Errors = append(report.Errors, fmt.Sprintf("%d nets failed to route: %v", len(result.FailedNets), result.FailedNets))
	}

	return report, nil
}
