// Package lineutil builds LINE messages: text replies with an optional
// sender and quick reply buttons.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem is one quick reply button.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// NewMessageAction creates an action that sends text as the user when
// tapped. Labels longer than the LINE limit are truncated.
func NewMessageAction(label, text string) messaging_api.ActionInterface {
	return &messaging_api.MessageAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Text:  text,
	}
}

// QuickReplyText is a quick reply button sending text.
func QuickReplyText(label, text string) QuickReplyItem {
	return QuickReplyItem{Action: NewMessageAction(label, text)}
}

// NewQuickReply creates a quick reply, keeping at most 13 items.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}
	qr := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qr[i] = messaging_api.QuickReplyItem{Action: item.Action, ImageUrl: item.ImageURL}
	}
	return &messaging_api.QuickReply{Items: qr}
}

// NewSender returns a sender shown in place of the bot profile, or nil
// when name is empty.
func NewSender(name, iconURL string) *messaging_api.Sender {
	if name == "" {
		return nil
	}
	return &messaging_api.Sender{Name: TruncateRunes(name, MaxSenderName), IconUrl: iconURL}
}

// NewTextMessage creates a text message, truncated to the LINE limit.
func NewTextMessage(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text:   TruncateRunes(text, MaxTextMessageLength),
		Sender: sender,
	}
}

// TextMessages builds one reply from texts. Every message shares sender and
// the quick reply goes on the last one, where LINE displays it.
func TextMessages(texts []string, sender *messaging_api.Sender, items ...QuickReplyItem) []messaging_api.MessageInterface {
	if len(texts) > MaxMessagesPerReply {
		texts = texts[:MaxMessagesPerReply]
	}
	msgs := make([]messaging_api.MessageInterface, 0, len(texts))
	var last *messaging_api.TextMessage
	for _, t := range texts {
		last = NewTextMessage(t, sender)
		msgs = append(msgs, last)
	}
	if last != nil && len(items) > 0 {
		last.QuickReply = NewQuickReply(items)
	}
	return msgs
}

// TruncateRunes shortens text to maxRunes, ending with "..." when cut.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
