// Package filters decides which chats the bot talks in.
// Banking conversations carry account state, so the bot only works in
// private chats; anything said in a group is refused.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter allows private chats only.
type ChatFilter struct {
	bot *tgbotapi.BotAPI
}

// NewChatFilter creates the private-only chat filter.
func NewChatFilter(bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{bot: bot}
}

// CheckAccess reports whether the message may be handled. Group messages
// get a one-line redirect to DM.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	if message.Chat.IsPrivate() {
		return true
	}

	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	}).Debug("deny: not a private chat")

	if f.bot != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Please message me directly to use your Deeper Mock Bank account.")
		if _, err := f.bot.Send(msg); err != nil {
			log.WithError(err).Warn("failed to send deny message")
		}
	}
	return false
}
