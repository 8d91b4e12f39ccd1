package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/powerstream/internal/broadcast"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/logger"
)

// StreamDependencies is what the streaming handlers need.
type StreamDependencies interface {
	Subscribe(ctx context.Context, instance string) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
	SessionID() string
}

// hello is the first frame of every stream.
type hello struct {
	SessionID string `json:"sessionId"`
	Instance  string `json:"instance"`
}

// StreamHandler serves server-sent events.
type StreamHandler struct {
	deps       StreamDependencies
	heartbeat  time.Duration
	corsOrigin string
	logger     logger.Logger
}

// NewStreamHandler creates a new SSE handler.
func NewStreamHandler(deps StreamDependencies, heartbeat time.Duration, corsOrigin string, l logger.Logger) *StreamHandler {
	return &StreamHandler{deps: deps, heartbeat: heartbeat, corsOrigin: corsOrigin, logger: l}
}

// HandleSSE handles GET /sse?instance=ID. The stream starts with a hello
// frame, then the replay, then live events until the client leaves.
func (h *StreamHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	const op = "api.sse"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	instance := r.URL.Query().Get("instance")
	if instance == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing instance")))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", NewKind(op, ErrStreaming))
		return
	}
	// Streams outlive the server read and write timeouts. An expired read
	// deadline would cancel the request context.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", h.corsOrigin)
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	if err := writeFrame(w, hello{SessionID: h.deps.SessionID(), Instance: instance}); err != nil {
		return
	}
	flusher.Flush()

	l := h.logger.With(logger.String("transport", "sse"), logger.String("instance", instance))
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
				if err := writeFrame(w, e); err != nil {
					return err
				}
			}
			flusher.Flush()
			return nil
		},
		func() error {
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		},
	)
	logStreamEnd(ctx, l, sub, started, err)
}

func logStreamEnd(ctx context.Context, l logger.Logger, sub *broadcast.Subscription, started time.Time, err error) {
	l = l.With(
		logger.String("subscription", sub.ID()),
		logger.Duration("connected", time.Since(started)),
	)
	switch {
	case errors.Is(err, broadcast.ErrSlowSubscriber):
		l.Warn(ctx, "slow subscriber disconnected")
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, broadcast.ErrClosed):
		l.Debug(ctx, "stream closed", logger.Bool("shutdown", errors.Is(err, broadcast.ErrClosed)))
	default:
		l.Info(ctx, "stream ended", logger.Error(err))
	}
}

func writeFrame(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// pump forwards subscription batches to send and calls beat whenever the
// subscription stays quiet for one heartbeat interval. It returns when ctx
// ends, the subscription closes or a callback fails.
func pump(ctx context.Context, sub *broadcast.Subscription, heartbeat time.Duration,
	send func([]model.Outbound) error, beat func() error,
) error {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, heartbeat)
		batch, err := sub.Next(waitCtx)
		cancel()

		switch {
		case err == nil:
			if err := send(batch); err != nil {
				return err
			}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			if err := beat(); err != nil {
				return err
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}
}
