// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package bot turns Telegram updates into classifier and store calls and
// renders the replies. Commands, category names typed from the menu keyboard,
// free text to save, and inline button callbacks are handled here.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"checklater/internal/models"
	"checklater/internal/store"
	"checklater/internal/suggest"
	"checklater/internal/telegram"
)

// Messenger sends replies. *telegram.Client satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Classifier assigns a category to submitted content.
type Classifier interface {
	Classify(content string) string
}

// EntryStore is the part of the entry store the bot mutates.
type EntryStore interface {
	AddEntry(ctx context.Context, ownerID *int64, content, category string) (int64, error)
	UpdateCategory(ctx context.Context, id int64, newCategory string) (bool, error)
	Retire(ctx context.Context, id int64) (bool, error)
}

// CategoryLister lists the known categories, sorted by name.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Suggester picks entries to resurface for a category.
type Suggester interface {
	Suggest(ctx context.Context, category string) (*suggest.Suggestion, error)
}

// Dispatcher routes updates. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	messenger  Messenger
	classifier Classifier
	entries    EntryStore
	categories CategoryLister
	suggester  Suggester
}

// New creates a Dispatcher.
func New(messenger Messenger, classifier Classifier, entries EntryStore, categories CategoryLister, suggester Suggester) *Dispatcher {
	return &Dispatcher{
		messenger:  messenger,
		classifier: classifier,
		entries:    entries,
		categories: categories,
		suggester:  suggester,
	}
}

// Handle processes one update. Failures of core operations are reported to
// the user and logged; the returned error only covers failed deliveries to
// Telegram.
func (d *Dispatcher) Handle(ctx context.Context, u telegram.Update) error {
	switch {
	case u.Message != nil:
		return d.handleMessage(ctx, u.Message)
	case u.CallbackQuery != nil:
		return d.handleCallback(ctx, u.CallbackQuery)
	default:
		slog.Debug("ignoring unsupported update", "update_id", u.UpdateID)
		return nil
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, m *telegram.Message) error {
	text := strings.TrimSpace(m.Text)
	if m.Text == "" {
		slog.Debug("ignoring message without text", "chat_id", m.Chat.ID)
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return d.handleCommand(ctx, m.Chat.ID, text)
	}

	categories, err := d.categories.ListCategories(ctx)
	if err != nil {
		return d.reportError(ctx, m.Chat.ID, "list categories", err)
	}

	lowered := strings.ToLower(text)
	for _, c := range categories {
		if c.Name == lowered {
			return d.sendSuggestions(ctx, m.Chat.ID, c.Name)
		}
	}

	var owner *int64
	if m.From != nil {
		id := m.From.ID
		owner = &id
	}
	return d.save(ctx, m.Chat.ID, owner, m.Text, categories)
}

// handleCommand accepts "/cmd" and "/cmd@botname".
func (d *Dispatcher) handleCommand(ctx context.Context, chatID int64, text string) error {
	cmd, _, _ := strings.Cut(strings.Fields(strings.ToLower(text))[0], "@")

	switch cmd {
	case "/start", "/menu":
		return d.sendMenu(ctx, chatID)
	case "/help":
		return d.send(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: msgHelp, ParseMode: telegram.ParseModeHTML})
	default:
		return d.send(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: msgUnknownCommand})
	}
}

func (d *Dispatcher) sendMenu(ctx context.Context, chatID int64) error {
	categories, err := d.categories.ListCategories(ctx)
	if err != nil {
		return d.reportError(ctx, chatID, "list categories", err)
	}
	return d.send(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        msgWelcome,
		ReplyMarkup: menuKeyboard(categories),
	})
}

// save classifies and stores content, then confirms with remap buttons.
func (d *Dispatcher) save(ctx context.Context, chatID int64, owner *int64, content string, categories []models.Category) error {
	category := d.classifier.Classify(content)

	id, err := d.entries.AddEntry(ctx, owner, content, category)
	if err != nil {
		return d.reportError(ctx, chatID, "add entry", err)
	}

	slog.Info("entry saved", "entry_id", id, "category", category, "chat_id", chatID)

	return d.send(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        confirmationText(content, category),
		ParseMode:   telegram.ParseModeHTML,
		ReplyMarkup: remapKeyboard(id, category, categories),
	})
}

// sendSuggestions sends each suggested entry as its own message so every
// one carries its own obsolete button.
func (d *Dispatcher) sendSuggestions(ctx context.Context, chatID int64, category string) error {
	s, err := d.suggester.Suggest(ctx, category)
	if err != nil {
		return d.reportError(ctx, chatID, "suggest", err)
	}

	if s.Empty() {
		return d.send(ctx, telegram.SendMessageRequest{
			ChatID:    chatID,
			Text:      emptySuggestionText(category),
			ParseMode: telegram.ParseModeHTML,
		})
	}

	var errs []error
	for _, e := range s.Entries {
		err := d.send(ctx, telegram.SendMessageRequest{
			ChatID:      chatID,
			Text:        suggestionText(e),
			ParseMode:   telegram.ParseModeHTML,
			ReplyMarkup: obsoleteKeyboard(e.ID),
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleCallback performs the button action and always answers the query so
// the client stops showing a spinner.
func (d *Dispatcher) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	toast, sendErr := d.runCallback(ctx, chatID, q.Data)

	if err := d.messenger.AnswerCallbackQuery(ctx, q.ID, toast); err != nil {
		slog.Error("failed to answer callback query", "callback_id", q.ID, "error", err)
		return errors.Join(sendErr, fmt.Errorf("answer callback: %w", err))
	}
	return sendErr
}

// runCallback returns the toast to show and any delivery error.
func (d *Dispatcher) runCallback(ctx context.Context, chatID int64, data string) (string, error) {
	cb, ok := parseCallback(data)
	if !ok {
		slog.Warn("unrecognized callback data", "chat_id", chatID, "data", data)
		return toastUnknownInput, nil
	}

	switch cb.action {
	case "remap":
		moved, err := d.entries.UpdateCategory(ctx, cb.entryID, cb.category)
		if err != nil {
			return toastError, d.reportError(ctx, chatID, "remap entry", err)
		}
		if !moved {
			return toastNotFound, nil
		}
		slog.Info("entry remapped", "entry_id", cb.entryID, "category", cb.category)
		return toastDone, d.send(ctx, telegram.SendMessageRequest{
			ChatID:    chatID,
			Text:      remappedText(cb.category),
			ParseMode: telegram.ParseModeHTML,
		})

	default: // obsolete
		retired, err := d.entries.Retire(ctx, cb.entryID)
		if err != nil {
			return toastError, d.reportError(ctx, chatID, "retire entry", err)
		}
		if !retired {
			return toastAlreadyGone, nil
		}
		slog.Info("entry retired", "entry_id", cb.entryID)
		return toastDone, d.send(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: msgRetired})
	}
}

// reportError logs err and tells the user in generic terms what happened.
func (d *Dispatcher) reportError(ctx context.Context, chatID int64, op string, err error) error {
	text := msgGenericError

	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		slog.Warn("rejected input", "op", op, "chat_id", chatID, "error", err)
		text = msgUnknownTarget
		if ve.Field == "content" {
			text = msgNothingToSave
		}
	case store.IsStorage(err):
		slog.Error("storage failure", "op", op, "chat_id", chatID, "error", err)
		text = msgStorageError
	default:
		slog.Error("operation failed", "op", op, "chat_id", chatID, "error", err)
	}

	return d.send(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: text})
}

func (d *Dispatcher) send(ctx context.Context, req telegram.SendMessageRequest) error {
	if err := d.messenger.SendMessage(ctx, req); err != nil {
		slog.Error("failed to send message", "chat_id", req.ChatID, "error", err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
