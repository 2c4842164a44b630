// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP endpoints of the bot server.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"checklater/internal/middleware"
	"checklater/internal/telegram"
)

// maxUpdateSize bounds the webhook request body. Text updates are far
// smaller; anything larger is not a Telegram update.
const maxUpdateSize = 1 << 20

// UpdateHandler processes one decoded update. *bot.Dispatcher satisfies it.
type UpdateHandler interface {
	Handle(ctx context.Context, u telegram.Update) error
}

// UpdateGuard detects redelivered updates. *cache.UpdateGuard satisfies it.
type UpdateGuard interface {
	Seen(ctx context.Context, updateID int64) bool
}

// Webhook receives Telegram updates.
type Webhook struct {
	dispatcher UpdateHandler
	guard      UpdateGuard
}

// NewWebhook creates the webhook handler. guard may be nil.
func NewWebhook(dispatcher UpdateHandler, guard UpdateGuard) *Webhook {
	return &Webhook{dispatcher: dispatcher, guard: guard}
}

// Receive decodes an update and hands it to the dispatcher. Once the body
// decodes the reply is always 200: Telegram retries anything else, and a
// retried update would be saved twice. Failures are logged and reported to
// the user by the dispatcher.
func (h *Webhook) Receive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var update telegram.Update
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateSize))
	if err := dec.Decode(&update); err != nil {
		slog.Warn("invalid webhook body", "request_id", reqID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid update"})
		return
	}

	if h.guard != nil && h.guard.Seen(r.Context(), update.UpdateID) {
		slog.Info("duplicate update skipped", "request_id", reqID, "update_id", update.UpdateID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if err := h.dispatcher.Handle(r.Context(), update); err != nil {
		slog.Error("update handling failed",
			"request_id", reqID,
			"update_id", update.UpdateID,
			"error", err,
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
