// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/powerstream/internal/adapters/notification"
	"github.com/okian/powerstream/internal/broadcast"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/internal/domain/types"
	"github.com/okian/powerstream/pkg/logger"
)

// Default handler settings.
const (
	defaultMaxUploadBytes = 10 << 20
	defaultHeartbeat      = 15 * time.Second
	defaultCORSOrigin     = "*"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue pushes an event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, ev model.Inbound) bool

	// Subscribe replays an instance and attaches the subscription for live events.
	Subscribe(ctx context.Context, instance string) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)

	// SessionID identifies the running process to stream clients.
	SessionID() string

	// Instances summarizes every known instance.
	Instances(ctx context.Context) []types.InstanceSummary
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the ingest and delivery API.
type Server struct {
	deps    Dependencies
	decoder *notification.Decoder

	maxUploadBytes int64
	heartbeat      time.Duration
	corsOrigin     string
	logger         logger.Logger

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	instancesHandler *InstancesHandler
	eventsHandler    *EventsHandler
	streamHandler    *StreamHandler
	socketHandler    *SocketHandler
}

// Option configures a Server.
type Option func(*Server)

// WithDecoder sets the notification decoder.
func WithDecoder(d *notification.Decoder) Option {
	return func(s *Server) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithMaxUploadBytes bounds the size of an ingest request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithHeartbeat sets the keep-alive interval of streaming connections.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin of stream responses.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		decoder:        notification.NewDecoder(),
		maxUploadBytes: defaultMaxUploadBytes,
		heartbeat:      defaultHeartbeat,
		corsOrigin:     defaultCORSOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler(deps.SessionID())
	s.statsHandler = NewStatsHandler(statsProvider)
	s.instancesHandler = NewInstancesHandler(deps)
	s.eventsHandler = NewEventsHandler(deps, s.decoder, s.maxUploadBytes, s.logger)
	s.streamHandler = NewStreamHandler(deps, s.heartbeat, s.corsOrigin, s.logger)
	s.socketHandler = NewSocketHandler(deps, s.heartbeat, s.corsOrigin, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/instances", MetricsMiddleware(s.instancesHandler.HandleInstances, "instances"))
	mux.HandleFunc("/notifications", MetricsMiddleware(s.eventsHandler.HandlePostNotification, "notifications"))
	mux.HandleFunc("/sse", MetricsMiddleware(s.streamHandler.HandleSSE, "sse"))
	mux.HandleFunc("/ws", MetricsMiddleware(s.socketHandler.HandleWebSocket, "ws"))
	// The root path is the ingest endpoint of the original device gateway.
	mux.HandleFunc("/", MetricsMiddleware(s.handleRoot, "root"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.eventsHandler.HandlePostNotification(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
