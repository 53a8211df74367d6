package telegram

import (
	"fmt"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

// archiveMessage stores a regular text message (or media caption) in the
// chat's archive. Messages with no text are skipped.
func (b *Bot) archiveMessage(in *Incoming) error {
	message := in.Message

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if text == "" {
		return nil
	}

	msg := store.Message{
		ChatID:    message.Chat.ID,
		TopicID:   in.TopicID,
		MessageID: message.MessageID,
		Text:      text,
		Timestamp: message.Time(),
	}
	if message.From != nil {
		msg.UserID = message.From.ID
		msg.Username = displayName(message.From)
	}

	if err := b.store.Append(msg); err != nil {
		logger.Error("Failed to archive message", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		return err
	}

	if b.metrics != nil {
		b.metrics.RecordMessageStored()
	}
	return nil
}

// handleTopicCreated registers a fresh forum topic in the store.
func (b *Bot) handleTopicCreated(in *Incoming) error {
	topic := store.Topic{
		ChatID:    in.Message.Chat.ID,
		TopicID:   in.TopicID,
		Name:      in.TopicCreatedName,
		Status:    store.TopicStatusOpen,
		CreatedAt: in.Message.Time(),
	}

	if err := b.store.SaveTopic(topic); err != nil {
		logger.Error("Failed to register topic", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  topic.ChatID,
			"topic_id": topic.TopicID,
		})
		return err
	}

	logger.Info("Topic registered", map[string]interface{}{
		"chat_id":  topic.ChatID,
		"topic_id": topic.TopicID,
	})
	return nil
}

// handleTopicClosed marks the topic archive as closed. Its messages stay
// available to the analysis commands until retention purges them.
func (b *Bot) handleTopicClosed(in *Incoming) error {
	chatID := in.Message.Chat.ID

	// Telegram doesn't announce topics created before the bot joined
	if topic, err := b.store.GetTopic(chatID, in.TopicID); err == nil && topic == nil {
		b.registerUnknownTopic(chatID, in.TopicID)
	}

	if err := b.store.CloseTopic(chatID, in.TopicID); err != nil {
		logger.Error("Failed to close topic", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  chatID,
			"topic_id": in.TopicID,
		})
		return err
	}

	logger.Info("Topic closed", map[string]interface{}{
		"chat_id":  chatID,
		"topic_id": in.TopicID,
	})
	return nil
}

// handleTopicReopened marks a closed topic archive as open again.
func (b *Bot) handleTopicReopened(in *Incoming) error {
	chatID := in.Message.Chat.ID

	if topic, err := b.store.GetTopic(chatID, in.TopicID); err == nil && topic == nil {
		b.registerUnknownTopic(chatID, in.TopicID)
	}

	if err := b.store.ReopenTopic(chatID, in.TopicID); err != nil {
		logger.Error("Failed to reopen topic", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  chatID,
			"topic_id": in.TopicID,
		})
		return err
	}

	logger.Info("Topic reopened", map[string]interface{}{
		"chat_id":  chatID,
		"topic_id": in.TopicID,
	})
	return nil
}

func (b *Bot) registerUnknownTopic(chatID, topicID int64) {
	topic := store.Topic{
		ChatID:    chatID,
		TopicID:   topicID,
		Name:      fmt.Sprintf("Topic %d", topicID),
		Status:    store.TopicStatusOpen,
		CreatedAt: time.Now(),
	}
	if err := b.store.SaveTopic(topic); err != nil {
		logger.Warn("Failed to register unknown topic", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  chatID,
			"topic_id": topicID,
		})
	}
}
