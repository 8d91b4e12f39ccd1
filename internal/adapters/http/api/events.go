package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/powerstream/internal/adapters/notification"
	"github.com/okian/powerstream/internal/domain/model"
	"github.com/okian/powerstream/pkg/logger"
	"github.com/okian/powerstream/pkg/metrics"
)

const notificationField = "notification"

// EventDependencies defines the interface for event ingestion.
type EventDependencies interface {
	Enqueue(ctx context.Context, ev model.Inbound) bool
}

// EventsHandler accepts device notifications.
type EventsHandler struct {
	deps     EventDependencies
	decoder  *notification.Decoder
	maxBytes int64
	logger   logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, decoder *notification.Decoder, maxBytes int64, l logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, decoder: decoder, maxBytes: maxBytes, logger: l}
}

type ackResponse struct {
	Status   string `json:"status"`
	Instance string `json:"instance,omitempty"`
	Events   int    `json:"events"`
}

// HandlePostNotification handles POST / and POST /notifications. The body
// is a form with a "notification" field, or the notification JSON itself.
func (h *EventsHandler) HandlePostNotification(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_notification"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	payload, err := h.readPayload(r)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(payload) == 0 {
		metrics.RecordPointIgnored("no_notification")
		writeJSON(w, http.StatusOK, ackResponse{Status: "ignored"})
		return
	}

	instance, events, err := h.decoder.Decode(payload)
	if err != nil {
		metrics.RecordPointIgnored("undecodable")
		h.logger.Debug(r.Context(), "ignoring notification", logger.Error(err))
		writeJSON(w, http.StatusOK, ackResponse{Status: "ignored"})
		return
	}

	for i, ev := range events {
		if !h.deps.Enqueue(r.Context(), ev) {
			h.logger.Warn(r.Context(), "ingest queue full",
				logger.String("instance", instance),
				logger.Int("queued", i),
				logger.Int("dropped", len(events)-i),
			)
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
			return
		}
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", Instance: instance, Events: len(events)})
}

func (h *EventsHandler) readPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		return io.ReadAll(r.Body)
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			return nil, err
		}
		if v := r.FormValue(notificationField); v != "" {
			return []byte(v), nil
		}
		// Some gateways upload the document as a file part.
		files := r.MultipartForm.File[notificationField]
		if len(files) == 0 {
			return nil, nil
		}
		f, err := files[0].Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return []byte(r.PostFormValue(notificationField)), nil
	}
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// multipart wraps the limit error as text in some paths.
	return strings.Contains(err.Error(), "request body too large")
}
