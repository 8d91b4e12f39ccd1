package model

// Outbound is one event delivered to subscribers. Implementations are
// Sample, ToolChange and AttributeUpdate; all marshal to the JSON shape
// the browser clients expect.
type Outbound interface {
	// Signal returns the wire id of the event.
	Signal() string
	outbound()
}

// Sample is a stored telemetry value at an instance-relative time.
type Sample struct {
	ID        string  `json:"id"`
	Timestamp float64 `json:"timestamp"` // seconds since the instance epoch
	Value     float64 `json:"value"`
}

// ToolChange is an active (State/actToolIdent) or finalized
// (State/actToolIdentPast) tool-change record.
type ToolChange struct {
	ID          string  `json:"id"`
	Tool        string  `json:"tool"`
	Timestamp   float64 `json:"timestamp"`
	TNumber     *string `json:"tNumber,omitempty"`
	ToolLength1 *string `json:"toolLength1,omitempty"`
	ToolRadius  *string `json:"toolRadius,omitempty"`
}

// AttributeUpdate is a standalone tool attribute value.
type AttributeUpdate struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

func (e Sample) Signal() string          { return e.ID }
func (e ToolChange) Signal() string      { return e.ID }
func (e AttributeUpdate) Signal() string { return e.ID }

func (Sample) outbound()          {}
func (ToolChange) outbound()      {}
func (AttributeUpdate) outbound() {}

// Past reports whether the tool change is a finalized history entry.
func (e ToolChange) Past() bool { return e.ID == SignalToolIdentPast }
