package telegram

import (
	"fmt"
	"strings"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeHTML escapes user-supplied text before it is embedded in an
// HTML-formatted reply.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// displayName returns the best human-readable name for a Telegram user.
func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "Unknown"
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.UserName != "" {
		return user.UserName
	}
	return fmt.Sprintf("User %d", user.ID)
}

// sendReply sends an HTML response as a reply to the incoming message.
// Replying keeps the response inside the originating forum topic. On a parse
// failure the text is resent without formatting.
func (b *Bot) sendReply(in *Incoming, text string) {
	b.sendReplyAndGetMessageID(in, text)
}

// sendReplyAndGetMessageID sends an HTML reply and returns the sent message
// ID, or 0 on failure.
func (b *Bot) sendReplyAndGetMessageID(in *Incoming, text string) int {
	chatID := in.Message.Chat.ID

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = consts.ParseModeHTML
	msg.ReplyToMessageID = in.Message.MessageID

	response, err := b.rateLimitedSend(chatID, msg)
	if err != nil {
		logger.Warn("HTML send failed, retrying as plain text", map[string]interface{}{
			"error":   err.Error(),
			"chat_id": chatID,
		})
		plain := tgbotapi.NewMessage(chatID, text)
		plain.ReplyToMessageID = in.Message.MessageID
		response, err = b.rateLimitedSend(chatID, plain)
		if err != nil {
			logger.Error("Failed to send message", map[string]interface{}{
				"error":   err.Error(),
				"chat_id": chatID,
			})
			return 0
		}
	}

	return response.MessageID
}

// editMessage replaces a previously sent message with new HTML content,
// falling back to plain text when formatting fails.
func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if messageID == 0 {
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = consts.ParseModeHTML
	if _, err := b.rateLimitedSend(chatID, edit); err != nil {
		logger.Warn("HTML edit failed, retrying as plain text", map[string]interface{}{
			"error":      err.Error(),
			"chat_id":    chatID,
			"message_id": messageID,
		})
		plain := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := b.rateLimitedSend(chatID, plain); err != nil {
			logger.Error("Failed to edit message", map[string]interface{}{
				"error":      err.Error(),
				"chat_id":    chatID,
				"message_id": messageID,
			})
		}
	}
}

func (b *Bot) sendErrorResponse(chatID int64, err error) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Error: %v", err))
	if _, sendErr := b.rateLimitedSend(chatID, msg); sendErr != nil {
		logger.Error("Failed to send error response", map[string]interface{}{
			"error":   sendErr.Error(),
			"chat_id": chatID,
		})
	}
}
