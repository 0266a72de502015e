package router

import (
	"encoding/json"
	"fmt"
)

type routingDict struct {
	Traces         []Trace           `json:"traces"`
	PinAssignments map[string]string `json:"pin_assignments"`
	FailedNets     []string          `json:"failed_nets"`
}

// ToJSON serializes a RoutingResult into the canonical wire format.
func ToJSON(result *RoutingResult) ([]byte, error) {
	d := routingDict{
		Traces:         result.Traces,
		PinAssignments: result.PinAssignments,
		FailedNets:     result.FailedNets,
	}
	if d.Traces == nil {
		d.Traces = []Trace{}
	}
	if d.PinAssignments == nil {
		d.PinAssignments = map[string]string{}
	}
	if d.FailedNets == nil {
		d.FailedNets = []string{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// ParseRouting parses a routing.json payload back into a RoutingResult.
func ParseRouting(data []byte) (*RoutingResult, error) {
	var d routingDict
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("router: parse routing: %w", err)
	}
	return &RoutingResult{
		Traces:         d.Traces,
		PinAssignments: d.PinAssignments,
		FailedNets:     d.FailedNets,
	}, nil
}
