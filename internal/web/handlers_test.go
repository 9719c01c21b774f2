package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbarrette/sentrypi/internal/state"
)

func TestHandleHealthz(t *testing.T) {
	srv := NewServer(":0", NewEventBroadcaster(), state.NewMemStore())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want \"ok\"", body["status"])
	}
}

func TestHandleState_ReturnsEncodedValues(t *testing.T) {
	store := state.NewMemStore()
	ctx := context.Background()
	if err := store.Set(ctx, state.KeySentryMode, state.Bool(true)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, state.KeyPan, state.Int(45)); err != nil {
		t.Fatalf("set: %v", err)
	}

	srv := NewServer(":0", NewEventBroadcaster(), store)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body[state.KeySentryMode] != "True" {
		t.Errorf("sentry_mode = %q, want \"True\"", body[state.KeySentryMode])
	}
	if body[state.KeyPan] != "45" {
		t.Errorf("pan = %q, want \"45\"", body[state.KeyPan])
	}
	if _, present := body[state.KeyTilt]; present {
		t.Error("unset keys should be omitted")
	}
}

func TestHandleState_NoStore(t *testing.T) {
	srv := NewServer(":0", NewEventBroadcaster(), nil)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
