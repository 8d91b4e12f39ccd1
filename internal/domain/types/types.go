// Package types contains common types used across the application
package types

import "time"

// InstanceSummary describes the state held for one instance
type InstanceSummary struct {
	Instance      string         `json:"instance"`
	Epoch         *time.Time     `json:"epoch,omitempty"`
	Samples       map[string]int `json:"samples"`
	CurrentTool   string         `json:"current_tool,omitempty"`
	Correlator    string         `json:"correlator"`
	HistoryLength int            `json:"history_length"`
	Subscribers   int            `json:"subscribers"`
}
