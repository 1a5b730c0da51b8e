package lineutil

// LINE Messaging API limits, in runes.
// References: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength   = 5000 // text message content
	MaxMessagesPerReply    = 5    // messages in one reply
	MaxQuickReplyItemCount = 13   // items in a quick reply
	MaxQuickReplyLabel     = 20   // quick reply button label
	MaxSenderName          = 20   // sender display name
)
