package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

// statsCacheTTL bounds how often /stats hits the store for the same scope.
const statsCacheTTL = 30 * time.Second

// handleStatsCommand reports storage statistics. Inside a forum topic the
// numbers cover that topic's log; in a plain chat they cover everything
// stored for the chat.
func (b *Bot) handleStatsCommand(in *Incoming) error {
	message := in.Message

	cacheKey := fmt.Sprintf("stats_%d_%d", message.Chat.ID, in.TopicID)
	if cached, found := b.cache.Get(cacheKey); found {
		if text, ok := cached.(string); ok {
			b.sendReply(in, text)
			return nil
		}
	}

	var text string
	var err error
	if in.IsTopicMessage {
		text, err = b.renderTopicStats(message.Chat.ID, in.TopicID)
	} else {
		text, err = b.renderChatStats(message.Chat.ID)
	}
	if err != nil {
		logger.Error("Failed to gather stats", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrStatsFailed)
		return nil
	}

	b.cache.SetWithExpiry(cacheKey, text, statsCacheTTL)
	b.sendReply(in, text)
	return nil
}

func (b *Bot) renderTopicStats(chatID, topicID int64) (string, error) {
	stats, err := b.store.TopicStats(chatID, topicID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Topic Statistics</b>\n\n")

	topic, err := b.store.GetTopic(chatID, topicID)
	if err == nil && topic != nil {
		status := "🟢 open"
		if topic.Status == store.TopicStatusClosed {
			status = "🔴 closed"
		}
		fmt.Fprintf(&sb, "• Topic: <b>%s</b> (%s)\n", escapeHTML(topic.Name), status)
	}

	fmt.Fprintf(&sb, "• Messages stored: <b>%d</b>\n", stats.MessageCount)
	fmt.Fprintf(&sb, "• Storage used: <b>%s</b>\n", formatBytes(stats.StoredBytes))
	fmt.Fprintf(&sb, "• Retention: <b>%d days</b>", b.config.RetentionDays)

	return sb.String(), nil
}

func (b *Bot) renderChatStats(chatID int64) (string, error) {
	stats, err := b.store.ChatStats(chatID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Chat Statistics</b>\n\n")
	fmt.Fprintf(&sb, "• Messages stored: <b>%d</b>\n", stats.MessageCount)
	fmt.Fprintf(&sb, "• Topics tracked: <b>%d</b>\n", stats.TopicCount)
	fmt.Fprintf(&sb, "• Storage used: <b>%s</b>\n", formatBytes(stats.StoredBytes))
	fmt.Fprintf(&sb, "• Retention: <b>%d days</b>", b.config.RetentionDays)

	if topics, err := b.store.ListTopics(chatID); err == nil && len(topics) > 0 {
		sb.WriteString("\n\n🗂️ <b>Topics</b>\n")
		for _, topic := range topics {
			status := "🟢"
			if topic.Status == store.TopicStatusClosed {
				status = "🔴"
			}
			fmt.Fprintf(&sb, "\n%s <b>%s</b> (%d messages)", status, escapeHTML(topic.Name), topic.MessageCount)
		}
	}

	if insight, err := b.db.GetInsight(chatID); err == nil && insight != nil {
		sb.WriteString("\n\n📈 <b>Usage</b>\n\n")
		fmt.Fprintf(&sb, "• Summaries: <b>%d</b>\n", insight.SummaryCnt)
		fmt.Fprintf(&sb, "• Missed checks: <b>%d</b>\n", insight.MissedCnt)
		fmt.Fprintf(&sb, "• Questions: <b>%d</b>\n", insight.AskCnt)
		fmt.Fprintf(&sb, "• Transcriptions: <b>%d</b>\n", insight.TranscribeCnt)
		fmt.Fprintf(&sb, "• Tokens: <b>%d in / %d out</b>", insight.TokenInput, insight.TokenOutput)
	}

	return sb.String(), nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
