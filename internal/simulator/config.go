// Package simulator drives a running powerstream server with synthetic
// machine sessions and checks what the server replays back.
package simulator

import (
	"time"

	"github.com/okian/powerstream/internal/adapters/notification"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Instances int           // Number of machine instances to simulate
	Samples   int           // Sampling steps per instance
	ToolEvery int           // Steps between tool changes
	Workers   int           // Concurrent posting workers
	Timeout   time.Duration // HTTP request and verification timeout
	Seed      uint64        // Seed for generated values
	Verbose   bool          // Log every notification
	Prefix    string        // Telemetry signal prefix
	Axes      []string      // Signal suffixes sampled each step
	Cadence   time.Duration // Time between sampling steps
}

// DefaultAxes are the power signals sampled by default.
var DefaultAxes = []string{"X", "Y", "Z", "S1"}

// DefaultConfig returns a Config matching the server defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:6333",
		Instances: 4,
		Samples:   200,
		ToolEvery: 50,
		Workers:   4,
		Timeout:   30 * time.Second,
		Seed:      1,
		Prefix:    notification.DefaultSignalPrefix,
		Axes:      DefaultAxes,
		Cadence:   100 * time.Millisecond,
	}
}

// Stats holds run statistics.
type Stats struct {
	Notifications    int
	NotificationsOK  int
	NotificationsBad int
	EventsAccepted   int
	Verified         int
	Incomplete       int
	StartTime        time.Time
	Duration         time.Duration
}
