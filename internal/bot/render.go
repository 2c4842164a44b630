package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"checklater/internal/models"
	"checklater/internal/telegram"
)

// User-facing texts. Internal error details never appear in them.
const (
	msgWelcome = "Welcome to Check Later Bot!\n\n" +
		"Send me any link or text, and I'll save it for you.\n" +
		"Select a category to get random suggestions:"

	msgHelp = "🤖 <b>Check Later Bot Help</b>\n\n" +
		"This bot helps you save content to check later.\n\n" +
		"<b>Commands:</b>\n" +
		"/start - Show main menu\n" +
		"/help - Show this help message\n\n" +
		"<b>How to use:</b>\n" +
		"1. Send any link or text to save it\n" +
		"2. The bot will automatically classify it\n" +
		"3. You can remap to a different category if needed\n" +
		"4. Use the main menu to get random suggestions\n" +
		"5. Mark entries as obsolete when you're done with them"

	msgUnknownCommand = "Unknown command. Use /help to see available commands."
	msgRetired        = "✅ Entry marked as obsolete and won't be suggested again."
	msgStorageError   = "❌ Database error occurred. Please try again later."
	msgGenericError   = "❌ An error occurred. Please try again."
	msgNothingToSave  = "❌ Nothing to save. Send me a link or some text."
	msgUnknownTarget  = "❌ That category does not exist."

	toastDone         = "Done"
	toastNotFound     = "Entry not found"
	toastAlreadyGone  = "Entry already retired or not found"
	toastUnknownInput = "Unknown action"
	toastError        = "Something went wrong"
)

// Callback data prefixes for inline buttons.
const (
	remapPrefix    = "remap_"
	obsoletePrefix = "obsolete_"
)

// previewLimit is the longest content shown verbatim in a confirmation.
const previewLimit = 50

// displayName turns a category tag into its label, e.g. "youtube" -> "Youtube".
// A Caser keeps state, so each call gets its own.
func displayName(category string) string {
	return cases.Title(language.English).String(category)
}

// truncate shortens s to previewLimit runes, ending in "..." when cut.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit-3]) + "..."
}

func confirmationText(content, category string) string {
	return fmt.Sprintf("✅ Saved to category: <b>%s</b>\n\nContent: <code>%s</code>\n\nYou can remap to a different category if needed:",
		html.EscapeString(displayName(category)),
		html.EscapeString(truncate(content)),
	)
}

func remappedText(category string) string {
	return "✅ Entry remapped to <b>" + html.EscapeString(displayName(category)) + "</b>"
}

func emptySuggestionText(category string) string {
	return "No entries found in category <b>" + html.EscapeString(displayName(category)) + "</b>.\n" +
		"Send me some content to save it!"
}

func suggestionText(e models.Entry) string {
	return fmt.Sprintf("<b>Suggestion from %s</b>:\n\n%s\n\nAdded: %s",
		html.EscapeString(displayName(e.Category)),
		html.EscapeString(e.Content),
		e.CreatedAt.UTC().Format(time.DateOnly),
	)
}

// remapKeyboard offers every category except current, two buttons per row.
func remapKeyboard(entryID int64, current string, categories []models.Category) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, c := range categories {
		if c.Name == current {
			continue
		}
		row = append(row, telegram.InlineKeyboardButton{
			Text:         displayName(c.Name),
			CallbackData: remapPrefix + strconv.FormatInt(entryID, 10) + "_" + c.Name,
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func obsoleteKeyboard(entryID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: "Mark as obsolete", CallbackData: obsoletePrefix + strconv.FormatInt(entryID, 10)},
	}}}
}

// menuKeyboard shows one category per row; pressing a key sends its label.
func menuKeyboard(categories []models.Category) *telegram.ReplyKeyboardMarkup {
	kb := &telegram.ReplyKeyboardMarkup{ResizeKeyboard: true}
	for _, c := range categories {
		kb.Keyboard = append(kb.Keyboard, []telegram.KeyboardButton{{Text: displayName(c.Name)}})
	}
	return kb
}

// callback is a parsed inline button payload.
type callback struct {
	action   string // "remap" or "obsolete"
	entryID  int64
	category string
}

// parseCallback decodes "remap_<id>_<category>" and "obsolete_<id>".
func parseCallback(data string) (callback, bool) {
	switch {
	case strings.HasPrefix(data, remapPrefix):
		idPart, category, ok := strings.Cut(strings.TrimPrefix(data, remapPrefix), "_")
		if !ok || category == "" {
			return callback{}, false
		}
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || id <= 0 {
			return callback{}, false
		}
		return callback{action: "remap", entryID: id, category: category}, true

	case strings.HasPrefix(data, obsoletePrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, obsoletePrefix), 10, 64)
		if err != nil || id <= 0 {
			return callback{}, false
		}
		return callback{action: "obsolete", entryID: id}, true
	}
	return callback{}, false
}
