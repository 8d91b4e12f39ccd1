// Package notification decodes ingest notifications into inbound events.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/metrics"
)

// DefaultSignalPrefix selects the power telemetry signals.
const DefaultSignalPrefix = "MaxxTurn45/Axes/Power/Active/"

const statePrefix = "State/"

// Reasons a point is dropped, as reported to metrics.
const (
	ReasonNoID         = "no_id"
	ReasonBadTimestamp = "bad_timestamp"
	ReasonBadValue     = "bad_value"
	ReasonUnknownState = "unknown_state"
	ReasonFiltered     = "filtered"
)

// Decoder turns notification documents into inbound events.
type Decoder struct {
	prefix string
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithSignalPrefix sets the id prefix that marks telemetry signals.
func WithSignalPrefix(prefix string) Option {
	return func(d *Decoder) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// NewDecoder returns a Decoder using DefaultSignalPrefix unless configured.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{prefix: DefaultSignalPrefix}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses data and returns its events in document order. Points
// that cannot be used are skipped and counted; only a document without
// JSON structure or without an instance is an error.
func (d *Decoder) Decode(data []byte) (string, []model.Inbound, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	inst, ok := scalar(n.Instance)
	if !ok || inst == "" {
		return "", nil, ErrNoInstance
	}

	events := make([]model.Inbound, 0, len(n.Datastream))
	for _, entry := range n.Datastream {
		if entry.Point == nil {
			continue
		}
		ev, reason := d.point(inst, entry.Point)
		if reason != "" {
			metrics.RecordPointIgnored(reason)
			continue
		}
		events = append(events, ev)
	}
	return inst, events, nil
}

func (d *Decoder) point(inst string, p *Point) (model.Inbound, string) {
	switch {
	case p.ID == "":
		return nil, ReasonNoID
	case strings.HasPrefix(p.ID, d.prefix):
		ts, err := parseTime(p.Timestamp)
		if err != nil {
			return nil, ReasonBadTimestamp
		}
		v, ok := number(p.Value)
		if !ok {
			return nil, ReasonBadValue
		}
		return model.Telemetry{Instance: inst, SignalID: p.ID, Timestamp: ts, Value: v}, ""
	case p.ID == model.SignalToolIdent:
		ts, err := parseTime(p.Timestamp)
		if err != nil {
			return nil, ReasonBadTimestamp
		}
		tool, ok := scalar(p.Value)
		if !ok {
			return nil, ReasonBadValue
		}
		return model.ToolIdentity{Instance: inst, Timestamp: ts, Tool: tool}, ""
	case strings.HasPrefix(p.ID, statePrefix):
		attr, ok := model.AttributeForSignal(p.ID)
		if !ok {
			return nil, ReasonUnknownState
		}
		v, ok := scalar(p.Value)
		if !ok {
			return nil, ReasonBadValue
		}
		return model.ToolAttribute{Instance: inst, Attribute: attr, Value: v}, ""
	default:
		return nil, ReasonFiltered
	}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// scalar renders a JSON string or number as text.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

// number accepts a JSON number or a string holding one.
func number(raw json.RawMessage) (float64, bool) {
	s, ok := scalar(raw)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
