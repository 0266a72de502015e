package design

import (
	"fmt"
	"math"
	"strings"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/geom"
)

// Validate checks a DesignSpec against the catalog, returning every problem
// found as a human-readable message (an empty slice means the design is
// valid). Mirrors the canonical schema constraints from the external
// interface contract plus the supplemented checks original_source enforces:
// mounting-style-override membership in allowed_styles, config-key validity
// against configurable_fields, and UI-point-in-outline for non-side mounts.
func Validate(spec *DesignSpec, cat *catalog.CatalogResult) []string {
	var errors []string
	catalogMap := cat.Map()

	for _, ci := range spec.Components {
		if _, ok := catalogMap[ci.CatalogID]; !ok {
			errors = append(errors, fmt.Sprintf("component %q: unknown catalog_id %q", ci.InstanceID, ci.CatalogID))
		}
	}

	seenIDs := make(map[string]bool, len(spec.Components))
	for _, ci := range spec.Components {
		if seenIDs[ci.InstanceID] {
			errors = append(errors, fmt.Sprintf("duplicate instance_id %q", ci.InstanceID))
		}
		seenIDs[ci.InstanceID] = true
	}

	instanceToCatalog := make(map[string]*catalog.Component)
	for _, ci := range spec.Components {
		if c, ok := catalogMap[ci.CatalogID]; ok {
			instanceToCatalog[ci.InstanceID] = c
		}
	}

	for _, ci := range spec.Components {
		if ci.MountingStyle == "" {
			continue
		}
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		if !c.Mounting.Allows(catalog.MountingStyle(ci.MountingStyle)) {
			errors = append(errors, fmt.Sprintf(
				"component %q: mounting_style %q not in allowed_styles %v",
				ci.InstanceID, ci.MountingStyle, c.Mounting.AllowedStyles))
		}
	}

	for _, ci := range spec.Components {
		if len(ci.Config) == 0 {
			continue
		}
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		if len(c.ConfigurableFields) == 0 {
			errors = append(errors, fmt.Sprintf(
				"component %q: has config but %q has no configurable fields", ci.InstanceID, ci.CatalogID))
			continue
		}
		allowed := make(map[string]bool, len(c.ConfigurableFields))
		for _, f := range c.ConfigurableFields {
			allowed[f] = true
		}
		for key := range ci.Config {
			if !allowed[key] {
				errors = append(errors, fmt.Sprintf("component %q: unknown config key %q", ci.InstanceID, key))
			}
		}
	}

	allocatableGroups := make(map[[2]string][]string)
	for _, ci := range spec.Components {
		c, ok := instanceToCatalog[ci.InstanceID]
		if !ok {
			continue
		}
		for _, g := range c.PinGroups {
			if g.Allocatable {
				allocatableGroups[[2]string{ci.InstanceID, g.ID}] = g.PinIDs
			}
		}
	}

	pinToNet := make(map[string]string)
	groupAllocCount := make(map[[2]string][]string)

	for _, net := range spec.Nets {
		if len(net.Pins) < 2 {
			errors = append(errors, fmt.Sprintf("net %q: must have at least 2 pins", net.ID))
		}
		for _, ref := range net.Pins {
			iid, pid, ok := splitRef(ref)
			if !ok {
				errors = append(errors, fmt.Sprintf("net %q: invalid pin reference %q (expected instance_id:pin_id)", net.ID, ref))
				continue
			}
			if !seenIDs[iid] {
				errors = append(errors, fmt.Sprintf("net %q: unknown instance %q in %q", net.ID, iid, ref))
				continue
			}
			c, ok := instanceToCatalog[iid]
			if !ok {
				continue
			}
			_, isPin := c.PinByID(pid)
			_, isGroup := c.PinGroupByID(pid)
			if !isPin && !isGroup {
				errors = append(errors, fmt.Sprintf("net %q: unknown pin/group %q on %q (catalog: %s)", net.ID, pid, iid, c.ID))
				continue
			}

			key := [2]string{iid, pid}
			if _, isAllocatable := allocatableGroups[key]; isAllocatable {
				groupAllocCount[key] = append(groupAllocCount[key], net.ID)
				continue
			}
			if existing, taken := pinToNet[ref]; taken {
				errors = append(errors, fmt.Sprintf("pin %q in both net %q and net %q", ref, existing, net.ID))
			} else {
				pinToNet[ref] = net.ID
			}
		}
	}

	for key, netIDs := range groupAllocCount {
		pool := allocatableGroups[key]
		if len(netIDs) > len(pool) {
			errors = append(errors, fmt.Sprintf(
				"group %q:%q used in %d nets but only has %d pins available (nets: %s)",
				key[0], key[1], len(netIDs), len(pool), strings.Join(netIDs, ", ")))
		}
	}

	uiPlaced := make(map[string]bool, len(spec.UIPlacements))
	for _, up := range spec.UIPlacements {
		uiPlaced[up.InstanceID] = true
		c, ok := instanceToCatalog[up.InstanceID]
		if !ok {
			if !seenIDs[up.InstanceID] {
				errors = append(errors, fmt.Sprintf("UI placement: unknown instance %q", up.InstanceID))
			}
			continue
		}
		if !c.UIPlacementFlag {
			errors = append(errors, fmt.Sprintf("UI placement: %q (%s) has ui_placement_flag=false", up.InstanceID, c.ID))
		}

		effStyle := c.Mounting.Style
		if ci, ok := spec.ComponentByInstance(up.InstanceID); ok && ci.MountingStyle != "" {
			effStyle = catalog.MountingStyle(ci.MountingStyle)
		}

		if effStyle == catalog.StyleSide {
			if up.EdgeIndex == nil {
				errors = append(errors, fmt.Sprintf(
					"UI placement %q: side-mount components require edge_index (which outline edge to mount on)", up.InstanceID))
			} else if *up.EdgeIndex < 0 || *up.EdgeIndex >= len(spec.Outline.Points) {
				errors = append(errors, fmt.Sprintf(
					"UI placement %q: edge_index %d out of range (0-%d)", up.InstanceID, *up.EdgeIndex, len(spec.Outline.Points)-1))
			}
		} else if up.EdgeIndex != nil {
			errors = append(errors, fmt.Sprintf(
				"UI placement %q: edge_index is only for side-mount components (mounting style is %q)", up.InstanceID, effStyle))
		}
	}

	for _, ci := range spec.Components {
		c, ok := catalogMap[ci.CatalogID]
		if !ok {
			continue
		}
		if c.UIPlacementFlag && !uiPlaced[ci.InstanceID] {
			errors = append(errors, fmt.Sprintf(
				"component %q (%s) has ui_placement_flag=true but no UIPlacement defined", ci.InstanceID, c.ID))
		}
	}

	if len(spec.Outline.Points) < 3 {
		errors = append(errors, "outline must have at least 3 vertices")
	}
	for i, pt := range spec.Outline.Points {
		if pt.EaseIn < 0 {
			errors = append(errors, fmt.Sprintf("vertex %d: ease_in must be >= 0", i))
		}
		if pt.EaseOut < 0 {
			errors = append(errors, fmt.Sprintf("vertex %d: ease_out must be >= 0", i))
		}
	}

	if len(spec.Outline.Points) >= 3 {
		verts := spec.Outline.Vertices()
		if !geom.IsSimplePolygon(verts) {
			errors = append(errors, "outline polygon is self-intersecting or invalid")
		} else if math.Abs(geom.PolygonArea(verts)) == 0 {
			errors = append(errors, "outline polygon has zero area")
		} else {
			for _, up := range spec.UIPlacements {
				if up.EdgeIndex != nil {
					continue
				}
				if !geom.PolygonContains(verts, up.XMM, up.YMM) {
					errors = append(errors, fmt.Sprintf(
						"UI placement %q at (%.3f, %.3f) is outside the outline", up.InstanceID, up.XMM, up.YMM))
				}
			}
		}
	}

	return errors
}

// splitRef parses an "instance_id:pin_id" reference.
func splitRef(ref string) (instanceID, pinID string, ok bool) {
	idx := strings.IndexByte(ref, ':')
	if idx < 0 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}
