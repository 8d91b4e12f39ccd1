// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live on the struct as `default` tags and are applied by New.
// - Constraints live on the struct as `validate` tags and are checked by Load.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"

	"github.com/creasty/defaults"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" default:"info" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format" default:"text" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":6333".
	Addr string `koanf:"addr" default:":6333" validate:"required"`

	// QueueSize bounds the pending events of each ingest shard.
	QueueSize int `koanf:"queue_size" default:"10000" validate:"gte=1"`

	// WorkerCount sets the number of ingest shards. Zero means one per CPU.
	WorkerCount int `koanf:"worker_count" default:"0" validate:"gte=0"`

	// SignalPrefix selects the datastream points that carry power signals.
	SignalPrefix string `koanf:"signal_prefix" default:"MaxxTurn45/Axes/Power/Active/" validate:"required"`

	// MaxUploadBytes caps the size of a single notification request body.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" default:"10485760" validate:"gte=1024"`

	// SubscriberBuffer caps undelivered live events per subscriber. Zero is unbounded.
	SubscriberBuffer int `koanf:"subscriber_buffer" default:"0" validate:"gte=0"`

	// HeartbeatIntervalMS sets the idle keep-alive period of stream connections.
	HeartbeatIntervalMS int `koanf:"heartbeat_interval_ms" default:"15000" validate:"gte=100"`

	// CORSOrigin is sent as Access-Control-Allow-Origin on stream responses.
	CORSOrigin string `koanf:"cors_origin" default:"*" validate:"required"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	c := &Config{}
	defaults.MustSet(c)
	return c
}

// Heartbeat returns HeartbeatIntervalMS as a duration.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}
