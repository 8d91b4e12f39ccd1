package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/logger"
)

const writeWait = 10 * time.Second

// SocketHandler serves the event stream over WebSocket.
type SocketHandler struct {
	deps      StreamDependencies
	heartbeat time.Duration
	upgrader  websocket.Upgrader
	logger    logger.Logger
}

// NewSocketHandler creates a new WebSocket handler. corsOrigin "*" accepts
// any origin; otherwise the Origin header must match it.
func NewSocketHandler(deps StreamDependencies, heartbeat time.Duration, corsOrigin string, l logger.Logger) *SocketHandler {
	return &SocketHandler{
		deps:      deps,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return corsOrigin == "*" || origin == "" || origin == corsOrigin
			},
		},
		logger: l,
	}
}

// HandleWebSocket handles GET /ws?instance=ID. Messages are the same JSON
// documents as the SSE data frames.
func (h *SocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	const op = "api.ws"
	instance := r.URL.Query().Get("instance")
	if instance == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing instance")))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The reader detects peer close and keeps the read deadline fresh.
	pongWait := 2 * h.heartbeat
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}
	if err := send(hello{SessionID: h.deps.SessionID(), Instance: instance}); err != nil {
		return
	}

	l := h.logger.With(logger.String("transport", "ws"), logger.String("instance", instance))
	sub, err := h.deps.Subscribe(ctx, instance)
	if err != nil {
		l.Error(ctx, "subscribe failed", logger.Error(err))
		return
	}
	defer h.deps.Unsubscribe(sub)
	started := time.Now()

	err = pump(ctx, sub, h.heartbeat,
		func(batch []model.Outbound) error {
			for _, e := range batch {
				if err := send(e); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		},
	)
	logStreamEnd(ctx, l, sub, started, err)

	if err != nil && !errors.Is(err, context.Canceled) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
			time.Now().Add(writeWait))
	}
}
