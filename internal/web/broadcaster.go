package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event kinds carried on the SSE stream.
const (
	EventMotionStarted = "motion_started"
	EventMotionEnded   = "motion_ended"
	EventWarning       = "warning"
	EventLog           = "log"
)

// WatchEvent is one watch-loop event for SSE delivery. Motion events
// carry the pulse number (and, once finished, the pulse duration); log
// tees carry only the message text.
type WatchEvent struct {
	Time      string  `json:"t"`
	Kind      string  `json:"kind"`
	Pulse     int     `json:"pulse,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`
	Msg       string  `json:"msg,omitempty"`
}

// EventBroadcaster distributes watch events to multiple SSE clients.
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

// NewEventBroadcaster creates a new broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast messages and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *EventBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// Broadcast stamps and sends an event to all subscribed clients.
// Slow clients may miss events (non-blocking, buffered).
func (b *EventBroadcaster) Broadcast(evt WatchEvent) {
	if evt.Time == "" {
		evt.Time = time.Now().Format(time.RFC3339)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// BroadcastMotion sends a motion edge with its pulse number. The
// duration is only meaningful for EventMotionEnded; pass 0 otherwise.
func (b *EventBroadcaster) BroadcastMotion(kind string, pulse int, durationS float64) {
	b.Broadcast(WatchEvent{Kind: kind, Pulse: pulse, DurationS: durationS})
}

// BroadcastLog sends a plain log line (the debug tee).
func (b *EventBroadcaster) BroadcastLog(msg string) {
	b.Broadcast(WatchEvent{Kind: EventLog, Msg: msg})
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to SSE clients.
func BroadcastWriter(b *EventBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

// broadcastWriter wraps EventBroadcaster as io.Writer for use with debug.SetOutput.
type broadcastWriter struct {
	b *EventBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.BroadcastLog(msg)
	}
	return len(p), nil
}
