package api

import (
	"net/http/httptest"
	"testing"
)

func TestWsCheckOrigin_SameHostFallback(t *testing.T) {
	h := NewWsHandler(nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "http://app.example/v1/ws", nil)
	req.Header.Set("Origin", "http://app.example")
	if !h.upgrader.CheckOrigin(req) {
		t.Fatal("same-host origin rejected")
	}

	req.Header.Set("Origin", "http://evil.example")
	if h.upgrader.CheckOrigin(req) {
		t.Fatal("cross-host origin accepted without allow list")
	}

	req.Header.Del("Origin")
	if !h.upgrader.CheckOrigin(req) {
		t.Fatal("missing origin should be accepted")
	}
}

func TestWsCheckOrigin_AllowList(t *testing.T) {
	h := NewWsHandler(nil, nil, nil, []string{"https://app.example"})

	req := httptest.NewRequest("GET", "http://api.internal/v1/ws", nil)
	req.Header.Set("Origin", "https://app.example")
	if !h.upgrader.CheckOrigin(req) {
		t.Fatal("listed origin rejected")
	}

	req.Header.Set("Origin", "http://api.internal")
	if h.upgrader.CheckOrigin(req) {
		t.Fatal("same-host origin must not bypass a configured allow list")
	}
}
