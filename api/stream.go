package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/c360studio/applyflow/notify"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// streamBuffer bounds queued events per connection; a client that
// falls this far behind is dropped.
const streamBuffer = 64

// chanConn is a notify.Conn backed by a buffered channel drained by
// the SSE loop.
type chanConn struct {
	ch chan notify.Event
}

func (c *chanConn) Send(_ context.Context, event notify.Event) error {
	select {
	case c.ch <- event:
		return nil
	default:
		return fmt.Errorf("event buffer full")
	}
}

// handleEvents handles GET /events/{user} as an SSE stream of run
// events for that user.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user ID required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	conn := &chanConn{ch: make(chan notify.Event, streamBuffer)}
	remove := h.events.Add(userID, conn)
	defer remove()

	if err := h.sendSSEEvent(w, flusher, 0, "connected", map[string]string{"status": "connected"}); err != nil {
		h.logger.Debug("client disconnected during connect", "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	var eventID uint64
	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			eventID++
			if err := h.sendSSEEvent(w, flusher, eventID, "heartbeat", map[string]any{}); err != nil {
				h.logger.Debug("client disconnected during heartbeat", "error", err)
				return
			}

		case event := <-conn.ch:
			eventID++
			if err := h.sendSSEEvent(w, flusher, eventID, string(event.Kind), event); err != nil {
				h.logger.Debug("client disconnected during event", "error", err)
				return
			}
		}
	}
}

// sendSSEEvent writes one SSE event, with an ID when id > 0. Returns
// an error if the write fails (e.g., client disconnected).
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, id uint64, eventType string, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		h.logger.Warn("failed to marshal SSE data", "error", err)
		return nil // Don't return marshal errors as connection issues
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return fmt.Errorf("write event type: %w", err)
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return fmt.Errorf("write event id: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", dataBytes); err != nil {
		return fmt.Errorf("write event data: %w", err)
	}

	flusher.Flush()
	return nil
}
