// Package toolchange assembles tool-change records out of separately
// arriving identity and attribute events.
package toolchange

import "github.com/okian/powerstream/internal/domain/model"

// Attributes holds optional scalar tool attributes. A nil field is unset.
type Attributes struct {
	TNumber     *string
	ToolLength1 *string
	ToolRadius  *string
}

// Get returns the value of a and whether it is set.
func (a Attributes) Get(attr model.Attribute) (string, bool) {
	var p *string
	switch attr {
	case model.AttrTNumber:
		p = a.TNumber
	case model.AttrToolLength1:
		p = a.ToolLength1
	case model.AttrToolRadius:
		p = a.ToolRadius
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// set stores a fresh copy of v so records never share mutable storage.
func (a *Attributes) set(attr model.Attribute, v string) {
	switch attr {
	case model.AttrTNumber:
		a.TNumber = &v
	case model.AttrToolLength1:
		a.ToolLength1 = &v
	case model.AttrToolRadius:
		a.ToolRadius = &v
	}
}

// Record is one tool change.
type Record struct {
	Tool      string
	Timestamp float64 // seconds since the instance epoch
	Attributes
}

// event renders r with the given wire id.
func (r Record) event(id string) model.ToolChange {
	return model.ToolChange{
		ID:          id,
		Tool:        r.Tool,
		Timestamp:   r.Timestamp,
		TNumber:     r.TNumber,
		ToolLength1: r.ToolLength1,
		ToolRadius:  r.ToolRadius,
	}
}

// Active renders r as the current tool change.
func (r Record) Active() model.ToolChange { return r.event(model.SignalToolIdent) }

// Past renders r as a finalized history entry.
func (r Record) Past() model.ToolChange { return r.event(model.SignalToolIdentPast) }
