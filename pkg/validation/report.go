package validation

import (
	"fmt"
	"strings"
)

// Constraint names one invariant a board must satisfy.
type Constraint struct {
	Kind string
	Expr string
}

// ConstraintResult is the outcome of checking one Constraint against a
// placement and/or routing result. Every constraint in this package is
// hard (pass/fail); Score is 1.0 when satisfied, 0.0 otherwise, kept
// as a float for a uniform report shape.
type ConstraintResult struct {
	Constraint *Constraint
	Satisfied  bool
	Score      float64
	Details    string
}

// Report is the outcome of validating one board: every constraint
// result plus the derived errors list.
type Report struct {
	Passed  bool
	Results []ConstraintResult
	Errors  []string
}

// NewReport creates a new empty validation report.
func NewReport() *Report {
	return &Report{
		Passed:  true,
		Results: []ConstraintResult{},
		Errors:  []string{},
	}
}

// NewConstraintResult creates a result for a constraint check.
func NewConstraintResult(kind, expr string, satisfied bool, details string) ConstraintResult {
	score := 0.0
	if satisfied {
		score = 1.0
	}
	return ConstraintResult{
		Constraint: &Constraint{Kind: kind, Expr: expr},
		Satisfied:  satisfied,
		Score:      score,
		Details:    details,
	}
}

// Summary returns a human-readable report summary.
func Summary(report *Report) string {
	var b strings.Builder

	b.WriteString("=== Validation Report ===\n\n")
	if report.Passed {
		b.WriteString("Status: PASSED\n")
	} else {
		b.WriteString("Status: FAILED\n")
	}

	b.WriteString("\n=== Constraints ===\n")
	passed := 0
	for _, r := range report.Results {
		if r.Satisfied {
			passed++
		}
	}
	b.WriteString(fmt.Sprintf("Passed: %d/%d\n", passed, len(report.Results)))
	for i, r := range report.Results {
		status := "PASS"
		if !r.Satisfied {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, status, r.Constraint.Kind, r.Details))
	}

	if len(report.Errors) > 0 {
		b.WriteString("\n=== Errors ===\n")
		for i, err := range report.Errors {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err))
		}
	}

	return b.String()
}

// HasErrors reports whether the report contains any failed constraint.
func HasErrors(report *Report) bool {
	return len(report.Errors) > 0
}

// GetFailedConstraints returns every failed constraint result.
func GetFailedConstraints(report *Report) []ConstraintResult {
	failed := []ConstraintResult{}
	for _, r := range report.Results {
		if !r.Satisfied {
			failed = append(failed, r)
		}
	}
	return failed
}
