package traceconfig

import "testing"

func TestDefaultTraceRulesValid(t *testing.T) {
	if err := DefaultTraceRules().Validate(); err != nil {
		t.Fatalf("default rules should validate, got %v", err)
	}
}

func TestRoutingChannelIsWidthPlusClearance(t *testing.T) {
	r := DefaultTraceRules()
	if got, want := r.RoutingChannelMM(), r.TraceWidthMM+r.TraceClearanceMM; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMinPinClearanceFormula(t *testing.T) {
	r := DefaultTraceRules()
	want := 1.2 + 2*r.PinClearanceMM
	if got := r.MinPinClearanceMM(); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTraceRulesRejectsNonPositive(t *testing.T) {
	r := DefaultTraceRules()
	r.TraceWidthMM = 0
	if err := r.Validate(); err == nil {
		t.Error("expected validation error for zero trace width")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := DefaultTraceRules().Hash()
	b := DefaultTraceRules().Hash()
	if string(a) != string(b) {
		t.Error("expected identical rule sets to hash identically")
	}
}

func TestDefaultRouterConfigValid(t *testing.T) {
	if err := DefaultRouterConfig().Validate(); err != nil {
		t.Fatalf("default router config should validate, got %v", err)
	}
}

func TestRouterConfigRejectsCrossingPenaltyBelowTurnPenalty(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.CrossingPenalty = cfg.TurnPenalty
	if err := cfg.Validate(); err == nil {
		t.Error("expected crossing penalty <= turn penalty to fail validation")
	}
}
