package pipeline

import (
	"github.com/dshills/boardlayout/pkg/design"
	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/router"
	"github.com/dshills/boardlayout/pkg/validation"
)

// Artifact is the complete output of one pipeline run: the resolved
// placement, the routing result built on top of it, and the
// validation report checked against both.
type Artifact struct {
	Design   *design.DesignSpec
	Placement *placer.FullPlacement
	Routing  *router.RoutingResult
	Report   *validation.Report
}

// OK reports whether the run produced a fully routed, constraint-clean
// board: no failed nets and a passing validation report.
func (a *Artifact) OK() bool {
	if a.Routing != nil && len(a.Routing.FailedNets) > 0 {
		return false
	}
	return a.Report != nil && a.Report.Passed
}
