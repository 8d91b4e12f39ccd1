package model

// Signal identifiers used on the wire for tool state.
const (
	SignalToolIdent     = "State/actToolIdent"
	SignalToolIdentPast = "State/actToolIdentPast"
	SignalTNumber       = "State/actTNumber"
	SignalToolLength1   = "State/actToolLength1"
	SignalToolRadius    = "State/actToolRadius"
)

// Attribute enumerates the scalar tool attributes that arrive separately
// from the tool identity.
type Attribute uint8

const (
	AttrTNumber Attribute = iota + 1
	AttrToolLength1
	AttrToolRadius
)

// Attributes lists every attribute in hydration order.
var Attributes = [...]Attribute{AttrTNumber, AttrToolLength1, AttrToolRadius}

// String returns the JSON field name of the attribute.
func (a Attribute) String() string {
	switch a {
	case AttrTNumber:
		return "tNumber"
	case AttrToolLength1:
		return "toolLength1"
	case AttrToolRadius:
		return "toolRadius"
	default:
		return "unknown"
	}
}

// SignalID returns the wire id used for standalone attribute events.
func (a Attribute) SignalID() string {
	switch a {
	case AttrTNumber:
		return SignalTNumber
	case AttrToolLength1:
		return SignalToolLength1
	case AttrToolRadius:
		return SignalToolRadius
	default:
		return ""
	}
}

// Valid reports whether a names a known attribute.
func (a Attribute) Valid() bool {
	return a >= AttrTNumber && a <= AttrToolRadius
}

// AttributeForSignal maps a wire id to its attribute.
func AttributeForSignal(id string) (Attribute, bool) {
	switch id {
	case SignalTNumber:
		return AttrTNumber, true
	case SignalToolLength1:
		return AttrToolLength1, true
	case SignalToolRadius:
		return AttrToolRadius, true
	default:
		return 0, false
	}
}
