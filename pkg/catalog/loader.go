package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var validMountingStyles = map[MountingStyle]bool{
	StyleTop: true, StyleBottom: true, StyleSide: true, StyleInternal: true,
}

var validPinDirections = map[PinDirection]bool{
	DirIn: true, DirOut: true, DirBidirectional: true,
}

// Load reads every .json/.yaml/.yml file in dir as a single component (or a
// list of components) and accumulates the result, collecting per-component
// problems rather than aborting. A file that cannot be read or decoded, or
// has an unsupported extension, aborts the whole load with an error.
func Load(dir string) (*CatalogResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %s: %w", dir, err)
	}

	result := &CatalogResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fileResult, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: load %s: %w", path, err)
		}
		result.Components = append(result.Components, fileResult.Components...)
		result.Errors = append(result.Errors, fileResult.Errors...)
	}
	return result, nil
}

// LoadFile parses one catalog file, which may contain a single component
// object or a JSON/YAML array of components. Every component is validated
// independently; a malformed component contributes a ValidationError but
// does not prevent the rest of the file from loading.
func LoadFile(path string) (*CatalogResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []json.RawMessage
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		// Try array first, then single object.
		if err := json.Unmarshal(data, &raw); err != nil {
			raw = []json.RawMessage{data}
		}
	case ".yaml", ".yml":
		var list []yaml.Node
		if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
			for _, node := range list {
				b, err := yaml.Marshal(&node)
				if err != nil {
					return nil, fmt.Errorf("re-marshal yaml node: %w", err)
				}
				jb, err := yamlToJSON(b)
				if err != nil {
					return nil, err
				}
				raw = append(raw, jb)
			}
		} else {
			jb, err := yamlToJSON(data)
			if err != nil {
				return nil, err
			}
			raw = []json.RawMessage{jb}
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file extension %q", ext)
	}

	result := &CatalogResult{}
	for _, r := range raw {
		var comp Component
		if err := json.Unmarshal(r, &comp); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				ComponentID: "<unknown>",
				Field:       "<parse>",
				Message:     err.Error(),
			})
			continue
		}
		errs := validateComponent(&comp)
		result.Errors = append(result.Errors, errs...)
		result.Components = append(result.Components, comp)
	}
	return result, nil
}

// yamlToJSON re-encodes arbitrary YAML bytes as JSON so a single Component
// unmarshaler (json tags) can serve both source formats.
func yamlToJSON(data []byte) (json.RawMessage, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	v = normalizeYAMLMaps(v)
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode yaml as json: %w", err)
	}
	return b, nil
}

// normalizeYAMLMaps converts map[string]interface{} recursively since
// yaml.v3 decodes mappings into map[string]interface{} already, but nested
// values may still need normalizing for consistency.
func normalizeYAMLMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLMaps(val)
		}
		return out
	default:
		return v
	}
}

// validateComponent runs all structural checks on a single component,
// collecting every problem found instead of stopping at the first.
func validateComponent(c *Component) []ValidationError {
	var errs []ValidationError
	cid := c.ID
	if cid == "" {
		cid = "<unknown>"
	}

	switch c.Body.Shape {
	case ShapeRect:
		if c.Body.WidthMM <= 0 {
			errs = append(errs, ValidationError{cid, "body.width_mm", "must be > 0 for rect shape"})
		}
		if c.Body.LengthMM <= 0 {
			errs = append(errs, ValidationError{cid, "body.length_mm", "must be > 0 for rect shape"})
		}
	case ShapeCircle:
		if c.Body.DiameterMM <= 0 {
			errs = append(errs, ValidationError{cid, "body.diameter_mm", "must be > 0 for circle shape"})
		}
	default:
		errs = append(errs, ValidationError{cid, "body.shape", fmt.Sprintf("unknown shape %q, expected rect or circle", c.Body.Shape)})
	}
	if c.Body.HeightMM <= 0 {
		errs = append(errs, ValidationError{cid, "body.height_mm", "must be > 0"})
	}

	if !validMountingStyles[c.Mounting.Style] {
		errs = append(errs, ValidationError{cid, "mounting.style", fmt.Sprintf("unknown style %q", c.Mounting.Style)})
	}
	for _, s := range c.Mounting.AllowedStyles {
		if !validMountingStyles[s] {
			errs = append(errs, ValidationError{cid, "mounting.allowed_styles", fmt.Sprintf("unknown style %q", s)})
		}
	}
	if !c.Mounting.Allows(c.Mounting.Style) {
		errs = append(errs, ValidationError{cid, "mounting.style",
			fmt.Sprintf("default style %q not in allowed_styles %v", c.Mounting.Style, c.Mounting.AllowedStyles)})
	}

	pinIDs := make(map[string]bool, len(c.Pins))
	for _, p := range c.Pins {
		if pinIDs[p.ID] {
			errs = append(errs, ValidationError{cid, fmt.Sprintf("pins.%s", p.ID), "duplicate pin ID"})
		}
		pinIDs[p.ID] = true
		if !validPinDirections[p.Direction] {
			errs = append(errs, ValidationError{cid, fmt.Sprintf("pins.%s.direction", p.ID), fmt.Sprintf("unknown direction %q", p.Direction)})
		}
	}

	for i, group := range c.InternalNets {
		for _, pid := range group {
			if !pinIDs[pid] {
				errs = append(errs, ValidationError{cid, fmt.Sprintf("internal_nets[%d]", i), fmt.Sprintf("references unknown pin %q", pid)})
			}
		}
	}

	for _, g := range c.PinGroups {
		for _, pid := range g.PinIDs {
			if !pinIDs[pid] {
				errs = append(errs, ValidationError{cid, fmt.Sprintf("pin_groups.%s", g.ID), fmt.Sprintf("references unknown pin %q", pid)})
			}
		}
	}

	return errs
}
