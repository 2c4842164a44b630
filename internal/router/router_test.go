// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the routes, the middleware chain and the
// webhook protection.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"checklater/internal/handlers"
	"checklater/internal/middleware"
	"checklater/internal/telegram"
)

type countingDispatcher struct{ calls int }

func (d *countingDispatcher) Handle(context.Context, telegram.Update) error {
	d.calls++
	return nil
}

func newTestRouter(t *testing.T, opts Options) (http.Handler, *countingDispatcher) {
	t.Helper()
	d := &countingDispatcher{}
	return New(handlers.NewHealth(nil), handlers.NewWebhook(d, nil), opts), d
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestWebhookRoute(t *testing.T) {
	tests := []struct {
		name   string
		method string
		secret string
		header string
		want   int
		calls  int
	}{
		{"accepted without secret", http.MethodPost, "", "", http.StatusOK, 1},
		{"accepted with secret", http.MethodPost, "tok", "tok", http.StatusOK, 1},
		{"wrong secret", http.MethodPost, "tok", "nope", http.StatusUnauthorized, 0},
		{"GET not allowed", http.MethodGet, "", "", http.StatusMethodNotAllowed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d := newTestRouter(t, Options{WebhookSecret: tt.secret})

			req := httptest.NewRequest(tt.method, "/webhook", strings.NewReader(`{"update_id":1}`))
			if tt.header != "" {
				req.Header.Set(middleware.TelegramSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
			if d.calls != tt.calls {
				t.Errorf("dispatcher calls: got %d, want %d", d.calls, tt.calls)
			}
		})
	}
}

func TestWebhookRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute, false)
	defer limiter.Stop()
	r, d := newTestRouter(t, Options{Limiter: limiter})

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id":1}`)))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes: got %v, want [200 429]", codes)
	}
	if d.calls != 1 {
		t.Errorf("dispatcher calls: got %d, want 1", d.calls)
	}

	// The health probe is never limited.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d, want 200", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}
