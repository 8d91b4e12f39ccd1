// Package model contains domain models passed between layers.
package model

import "time"

// Inbound is one decoded ingestion event. The set of implementations is
// closed: Telemetry, ToolIdentity and ToolAttribute.
type Inbound interface {
	// InstanceID returns the instance the event belongs to.
	InstanceID() string
	inbound()
}

// Telemetry is a single power-sensor sample.
type Telemetry struct {
	Instance  string
	SignalID  string    // e.g. "MaxxTurn45/Axes/Power/Active/X"
	Timestamp time.Time // absolute sample time
	Value     float64
}

// ToolIdentity reports that a new tool became active.
type ToolIdentity struct {
	Instance  string
	Timestamp time.Time
	Tool      string
}

// ToolAttribute carries one scalar attribute of the active tool.
type ToolAttribute struct {
	Instance  string
	Attribute Attribute
	Value     string
}

func (e Telemetry) InstanceID() string     { return e.Instance }
func (e ToolIdentity) InstanceID() string  { return e.Instance }
func (e ToolAttribute) InstanceID() string { return e.Instance }

func (Telemetry) inbound()     {}
func (ToolIdentity) inbound()  {}
func (ToolAttribute) inbound() {}

// Kind names the variant of an inbound event for logs and metrics.
func Kind(e Inbound) string {
	switch e.(type) {
	case Telemetry:
		return "telemetry"
	case ToolIdentity:
		return "tool_identity"
	case ToolAttribute:
		return "tool_attribute"
	default:
		return "unknown"
	}
}
