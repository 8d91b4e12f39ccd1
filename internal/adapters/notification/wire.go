package notification

import (
	"encoding/json"
	"time"
)

// Notification is the JSON document carried in the "notification" form
// field of an ingest request.
type Notification struct {
	Instance   json.RawMessage `json:"instance"`
	Datastream []Entry         `json:"datastream"`
}

// Entry wraps one data point.
type Entry struct {
	Point *Point `json:"stream:point,omitempty"`
}

// Point is a single observation of one stream id.
type Point struct {
	ID        string          `json:"stream:id"`
	Value     json.RawMessage `json:"stream:value"`
	Timestamp string          `json:"stream:timestamp"`
}

// NewEntry builds an entry for id. value is marshaled as JSON; the
// timestamp is written as RFC 3339 with nanoseconds.
func NewEntry(id string, value any, ts time.Time) (Entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Point: &Point{
		ID:        id,
		Value:     raw,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
	}}, nil
}

// Encode renders a notification for instance.
func Encode(instance string, entries []Entry) ([]byte, error) {
	inst, err := json.Marshal(instance)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Notification{Instance: inst, Datastream: entries})
}
