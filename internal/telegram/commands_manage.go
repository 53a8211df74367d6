package telegram

import (
	"fmt"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

// Storage management commands: /cleanup, /reset, /init.

// handleCleanupCommand removes expired messages right away instead of
// waiting for the next scheduled sweep. Inside a forum topic only that
// topic's log is swept; in a plain chat the whole chat is.
func (b *Bot) handleCleanupCommand(in *Incoming) error {
	message := in.Message
	cutoff := time.Now().Add(-b.config.RetentionWindow())

	var removed int
	var err error
	if in.IsTopicMessage {
		removed, err = b.store.CleanupChat(message.Chat.ID, in.TopicID, cutoff)
	} else {
		removed, err = b.store.CleanupChatAll(message.Chat.ID, cutoff)
	}
	if err != nil {
		logger.Error("Manual cleanup failed", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrCleanupFailed)
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordCleanup(removed, 0)
	}

	b.sendReply(in, fmt.Sprintf(`🧹 <b>Cleanup complete</b>

Removed %d messages older than %d days.`, removed, b.config.RetentionDays))
	return nil
}

// handleResetCommand permanently deletes stored messages. Inside a forum
// topic only that topic's log is wiped; in a plain chat everything goes:
// every message, every topic log, topic metadata, and usage statistics.
func (b *Bot) handleResetCommand(in *Incoming) error {
	message := in.Message

	if in.IsTopicMessage {
		removed, err := b.store.ResetTopic(message.Chat.ID, in.TopicID)
		if err != nil {
			logger.Error("Topic reset failed", map[string]interface{}{
				"error":    err.Error(),
				"chat_id":  message.Chat.ID,
				"topic_id": in.TopicID,
			})
			b.sendReply(in, consts.ErrResetFailed)
			return nil
		}

		b.sendReply(in, fmt.Sprintf(`♻️ <b>Topic reset complete</b>

Deleted %d stored messages from this topic. The archive starts fresh from now.`, removed))
		return nil
	}

	removed, err := b.store.ResetChat(message.Chat.ID)
	if err != nil {
		logger.Error("Reset failed", map[string]interface{}{
			"error":   err.Error(),
			"chat_id": message.Chat.ID,
		})
		b.sendReply(in, consts.ErrResetFailed)
		return nil
	}

	if dbErr := b.db.DeleteInsight(message.Chat.ID); dbErr != nil {
		logger.Warn("Failed to delete usage insights during reset", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	b.sendReply(in, fmt.Sprintf(`♻️ <b>Reset complete</b>

Deleted %d stored messages and all topic records for this chat. The archive starts fresh from now.`, removed))
	return nil
}

// handleInitCommand prepares the archive for the current chat or topic.
// Topics created before the bot joined have no metadata yet; /init registers
// them so /stats can report on them.
func (b *Bot) handleInitCommand(in *Incoming) error {
	message := in.Message

	if !in.IsTopicMessage {
		b.sendReply(in, "✅ Archive ready. Messages in this chat are being recorded.")
		return nil
	}

	topic, err := b.store.GetTopic(message.Chat.ID, in.TopicID)
	if err != nil {
		logger.Error("Failed to look up topic during init", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrInitFailed)
		return nil
	}

	if topic == nil {
		topic = &store.Topic{
			ChatID:    message.Chat.ID,
			TopicID:   in.TopicID,
			Name:      fmt.Sprintf("Topic %d", in.TopicID),
			Status:    store.TopicStatusOpen,
			CreatedAt: time.Now(),
		}
		if err := b.store.SaveTopic(*topic); err != nil {
			logger.Error("Failed to register topic during init", map[string]interface{}{
				"error":    err.Error(),
				"chat_id":  message.Chat.ID,
				"topic_id": in.TopicID,
			})
			b.sendReply(in, consts.ErrInitFailed)
			return nil
		}
	}

	b.sendReply(in, fmt.Sprintf("✅ Archive ready for <b>%s</b>. Messages in this topic are being recorded.", escapeHTML(topic.Name)))
	return nil
}
