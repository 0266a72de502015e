package traceconfig

import (
	"fmt"
	"time"
)

// RouterConfig holds every tunable router parameter. Physical
// dimensions (trace width, clearances, grid resolution) are copied
// from a TraceRules value at construction time so the router always
// stays in sync with the placer's design rules.
type RouterConfig struct {
	Rules TraceRules `yaml:"rules" json:"rules"`

	// TurnPenalty is the A* cost penalty for changing direction.
	TurnPenalty int `yaml:"turnPenalty" json:"turnPenalty"`

	// CrossingPenalty is the A* cost for crossing an occupied cell,
	// used only during rip-up discovery passes.
	CrossingPenalty int `yaml:"crossingPenalty" json:"crossingPenalty"`

	// MaxRipUpAttempts bounds the outer random-ordering attempts; dead
	// prefixes are pruned rather than counted against this budget.
	MaxRipUpAttempts int `yaml:"maxRipUpAttempts" json:"maxRipUpAttempts"`

	// InnerRipUpLimit bounds inner rip-up iterations per outer attempt.
	InnerRipUpLimit int `yaml:"innerRipUpLimit" json:"innerRipUpLimit"`

	// TimeBudget is the maximum wall-clock time allotted to routing.
	TimeBudget time.Duration `yaml:"timeBudget" json:"timeBudget"`
}

// DefaultRouterConfig returns a RouterConfig built from the default
// trace rules and the standard router knobs.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Rules:            DefaultTraceRules(),
		TurnPenalty:      5,
		CrossingPenalty:  500,
		MaxRipUpAttempts: 200,
		InnerRipUpLimit:  100,
		TimeBudget:       60 * time.Second,
	}
}

// Validate checks all RouterConfig constraints.
func (c RouterConfig) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.TurnPenalty < 0 {
		return fmt.Errorf("turnPenalty must be >= 0, got %d", c.TurnPenalty)
	}
	if c.CrossingPenalty <= c.TurnPenalty {
		return fmt.Errorf("crossingPenalty (%d) must exceed turnPenalty (%d)", c.CrossingPenalty, c.TurnPenalty)
	}
	if c.MaxRipUpAttempts <= 0 {
		return fmt.Errorf("maxRipUpAttempts must be > 0, got %d", c.MaxRipUpAttempts)
	}
	if c.InnerRipUpLimit <= 0 {
		return fmt.Errorf("innerRipUpLimit must be > 0, got %d", c.InnerRipUpLimit)
	}
	if c.TimeBudget <= 0 {
		return fmt.Errorf("timeBudget must be > 0, got %s", c.TimeBudget)
	}
	return nil
}
