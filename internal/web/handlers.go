package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mbarrette/sentrypi/internal/state"
)

// stateKeys are the cache entries exposed on GET /state.
var stateKeys = []string{
	state.KeySentryMode,
	state.KeyPan,
	state.KeyTilt,
	state.KeyMotionCount,
	state.KeyLastMotionAt,
	state.KeyLastMotionDuration,
	state.KeyCapturePID,
	state.KeyLastCapture,
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *EventBroadcaster
	Store       state.Store
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *EventBroadcaster, store state.Store) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Store:       store,
	}
}

// HandleHealthz reports liveness of the watch daemon.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleState returns the well-known cache entries as JSON. Values are
// reported in their encoded text form; absent keys are omitted.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "state store not configured", http.StatusServiceUnavailable)
		return
	}

	out := make(map[string]string, len(stateKeys))
	for _, key := range stateKeys {
		v, ok, err := h.Store.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "state cache unavailable: "+err.Error(), http.StatusBadGateway)
			return
		}
		if ok {
			out[key] = v.Encode()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// HandleEventStream handles GET /events/stream for SSE.
func (h *Handlers) HandleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
