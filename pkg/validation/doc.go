// Package validation checks a finished placement and its routing result
// against the board's invariants.
//
// This package implements the final validation stage of the placement +
// routing pipeline. Every check is hard (pass/fail) and yields one
// ConstraintResult:
//
//   - EnvelopeContainment: every component envelope lies inside the outline inset by the edge clearance (P3)
//   - NonOverlap: every component pair clears the larger of its two keepout margins (P4)
//   - PinSeparation: pins of different components clear the minimum pin clearance (P5)
//   - ManhattanTraces: no trace segment is diagonal (P6)
//   - NoNetCrossings: no grid cell is shared by the traces of two nets (P7)
//   - TraceClamping: every trace waypoint lies on or inside the outline (P8)
//   - PinPoolSoundness: no physical pin is assigned to two group references (P9)
//
// A routing result with any FailedNets also fails the report.
//
// # Usage Example
//
//	validator := validation.NewValidator()
//	report, err := validator.Validate(ctx, placement, routing, cat, rules)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !report.Passed {
//	    log.Printf("Validation failed: %v", report.Errors)
//	}
//
//	log.Printf("Summary:\n%s", validation.Summary(report))
package validation
