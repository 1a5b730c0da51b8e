package webhook

import (
	"slices"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// isBotMentioned reports whether the bot itself is among the mentionees.
func isBotMentioned(msg webhook.TextMessageContent) bool {
	return len(selfMentions(msg.Mention)) > 0
}

type span struct {
	index, length int
}

func selfMentions(mention *webhook.Mention) []span {
	if mention == nil {
		return nil
	}
	var spans []span
	for _, m := range mention.Mentionees {
		if u, ok := m.(webhook.UserMentionee); ok && u.IsSelf {
			spans = append(spans, span{index: int(u.Index), length: int(u.Length)})
		}
	}
	return spans
}

// removeBotMentions cuts the bot's mentions out of text. LINE indexes
// mentions in runes. Whitespace is collapsed afterwards.
func removeBotMentions(text string, mention *webhook.Mention) string {
	spans := selfMentions(mention)
	if len(spans) == 0 {
		return text
	}
	// Back to front so earlier indexes stay valid.
	slices.SortFunc(spans, func(a, b span) int { return b.index - a.index })

	runes := []rune(text)
	for _, s := range spans {
		start := max(s.index, 0)
		end := min(s.index+s.length, len(runes))
		if start >= end {
			continue
		}
		runes = append(runes[:start], runes[end:]...)
	}
	return strings.Join(strings.Fields(string(runes)), " ")
}
