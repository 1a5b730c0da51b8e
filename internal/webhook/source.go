package webhook

import (
	"strings"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// SessionID is the dispatcher user id for an event source. Group members
// get one session per group so conversations in different chats do not mix.
func SessionID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return "line:" + s.UserId
	case webhook.GroupSource:
		return "line:" + s.GroupId + ":" + s.UserId
	case webhook.RoomSource:
		return "line:" + s.RoomId + ":" + s.UserId
	default:
		return ""
	}
}

// ChatID returns the chat that can show a loading animation. LINE supports
// it in one-on-one chats only.
func ChatID(source webhook.SourceInterface) string {
	if s, ok := source.(webhook.UserSource); ok {
		return s.UserId
	}
	return ""
}

// splitText cuts text into at most maxParts messages of at most maxRunes,
// preferring line breaks. The last part is truncated when text does not fit.
func splitText(text string, maxRunes, maxParts int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var parts []string
	for text != "" && len(parts) < maxParts {
		if utf8.RuneCountInString(text) <= maxRunes {
			parts = append(parts, text)
			break
		}
		runes := []rune(text)
		cut := maxRunes
		if nl := strings.LastIndex(string(runes[:maxRunes]), "\n"); nl > 0 {
			cut = utf8.RuneCountInString(string(runes[:maxRunes])[:nl])
		}
		if len(parts) == maxParts-1 {
			cut = maxRunes
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		text = strings.TrimSpace(string(runes[cut:]))
	}
	return parts
}
