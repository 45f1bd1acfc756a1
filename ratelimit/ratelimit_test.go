package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst denied", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("request past burst allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, 1)
	if !l.Allow("10.0.0.1") {
		t.Fatal("first key denied")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("second key throttled by first key's usage")
	}
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(New(1, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", second.Code)
	}
}

func TestReset(t *testing.T) {
	l := New(1, 1)
	l.Allow("10.0.0.1")
	l.Reset()
	if !l.Allow("10.0.0.1") {
		t.Fatal("request denied after reset")
	}
}
