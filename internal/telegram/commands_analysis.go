package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/llm"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

// Commands that send a transcript slice to the LLM: /summary, /missed, /ask.
// All three are anchored at the replied-to message and never look further
// back than the retention window.

const llmRequestTimeout = 2 * time.Minute

// transcriptFrom loads the slice starting at the replied-to message. The
// second return is false when the slice is empty.
func (b *Bot) transcriptFrom(in *Incoming) ([]store.Message, bool, error) {
	message := in.Message
	cutoff := time.Now().Add(-b.config.RetentionWindow())

	messages, err := b.store.Slice(message.Chat.ID, in.TopicID, message.ReplyToMessage.MessageID, cutoff)
	if err != nil {
		return nil, false, err
	}
	return messages, len(messages) > 0, nil
}

func (b *Bot) recordLLMUsage(chatID int64, operation, status string, elapsed time.Duration, usage *llm.Usage) {
	promptTokens, completionTokens := 0, 0
	if usage != nil {
		promptTokens = usage.PromptTokens
		completionTokens = usage.CompletionTokens
	}

	if b.metrics != nil {
		b.metrics.RecordLLMRequest(operation, status, elapsed, promptTokens, completionTokens)
	}
	if usage != nil {
		if err := b.db.AddTokenUsage(chatID, promptTokens, completionTokens); err != nil {
			logger.Warn("Failed to record token usage", map[string]interface{}{
				"error":   err.Error(),
				"chat_id": chatID,
			})
		}
	}
}

func (b *Bot) handleSummaryCommand(in *Incoming) error {
	message := in.Message
	if message.ReplyToMessage == nil {
		b.sendReply(in, consts.ReplyRequiredSummary)
		return nil
	}

	messages, ok, err := b.transcriptFrom(in)
	if err != nil {
		logger.Error("Failed to load transcript for summary", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrSummaryFailed)
		return nil
	}
	if !ok {
		b.sendReply(in, consts.NoMessagesToAnalyze)
		return nil
	}

	statusID := b.sendReplyAndGetMessageID(in, "🔄 Generating summary...")

	ctx, cancel := context.WithTimeout(b.ctx, llmRequestTimeout)
	defer cancel()

	startTime := time.Now()
	summary, usage, err := b.llmClient.Summarize(ctx, llm.RenderTranscript(messages))
	elapsed := time.Since(startTime)

	if err != nil {
		b.recordLLMUsage(message.Chat.ID, "summary", "error", elapsed, usage)
		logger.Error("Summary generation failed", map[string]interface{}{
			"error":         err.Error(),
			"chat_id":       message.Chat.ID,
			"topic_id":      in.TopicID,
			"message_count": len(messages),
		})
		b.editMessage(message.Chat.ID, statusID, consts.ErrSummaryFailed)
		return nil
	}

	b.recordLLMUsage(message.Chat.ID, "summary", "success", elapsed, usage)
	if dbErr := b.db.IncrementCommand(message.Chat.ID, "summary"); dbErr != nil {
		logger.Warn("Failed to increment summary count", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	reply := fmt.Sprintf("📋 <b>Summary</b> (%d messages)\n\n%s", len(messages), escapeHTML(summary))
	b.editMessage(message.Chat.ID, statusID, reply)
	return nil
}

func (b *Bot) handleMissedCommand(in *Incoming) error {
	message := in.Message
	if message.ReplyToMessage == nil {
		b.sendReply(in, consts.ReplyRequiredMissed)
		return nil
	}

	messages, ok, err := b.transcriptFrom(in)
	if err != nil {
		logger.Error("Failed to load transcript for missed items", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrMissedFailed)
		return nil
	}
	if !ok {
		b.sendReply(in, consts.NoMessagesToAnalyze)
		return nil
	}

	userName := displayName(message.From)
	statusID := b.sendReplyAndGetMessageID(in, "🔄 Looking for your action items...")

	ctx, cancel := context.WithTimeout(b.ctx, llmRequestTimeout)
	defer cancel()

	startTime := time.Now()
	items, usage, err := b.llmClient.ExtractActionItems(ctx, llm.RenderTranscript(messages), userName)
	elapsed := time.Since(startTime)

	if err != nil {
		b.recordLLMUsage(message.Chat.ID, "missed", "error", elapsed, usage)
		logger.Error("Action item extraction failed", map[string]interface{}{
			"error":         err.Error(),
			"chat_id":       message.Chat.ID,
			"topic_id":      in.TopicID,
			"message_count": len(messages),
		})
		b.editMessage(message.Chat.ID, statusID, consts.ErrMissedFailed)
		return nil
	}

	b.recordLLMUsage(message.Chat.ID, "missed", "success", elapsed, usage)
	if dbErr := b.db.IncrementCommand(message.Chat.ID, "missed"); dbErr != nil {
		logger.Warn("Failed to increment missed count", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	reply := fmt.Sprintf("📌 <b>Action items for %s</b>\n\n%s", escapeHTML(userName), escapeHTML(items))
	b.editMessage(message.Chat.ID, statusID, reply)
	return nil
}

func (b *Bot) handleAskCommand(in *Incoming) error {
	message := in.Message
	if message.ReplyToMessage == nil {
		b.sendReply(in, consts.ReplyRequiredAsk)
		return nil
	}

	question := strings.TrimSpace(message.CommandArguments())
	if question == "" {
		b.sendReply(in, consts.QuestionRequiredAsk)
		return nil
	}

	messages, ok, err := b.transcriptFrom(in)
	if err != nil {
		logger.Error("Failed to load transcript for question", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		b.sendReply(in, consts.ErrAskFailed)
		return nil
	}
	if !ok {
		b.sendReply(in, consts.NoMessagesToAnalyze)
		return nil
	}

	userName := displayName(message.From)
	statusID := b.sendReplyAndGetMessageID(in, "🔄 Thinking...")

	ctx, cancel := context.WithTimeout(b.ctx, llmRequestTimeout)
	defer cancel()

	startTime := time.Now()
	answer, usage, err := b.llmClient.AnswerQuestion(ctx, question, llm.RenderTranscript(messages), userName)
	elapsed := time.Since(startTime)

	if err != nil {
		b.recordLLMUsage(message.Chat.ID, "ask", "error", elapsed, usage)
		logger.Error("Question answering failed", map[string]interface{}{
			"error":         err.Error(),
			"chat_id":       message.Chat.ID,
			"topic_id":      in.TopicID,
			"message_count": len(messages),
		})
		b.editMessage(message.Chat.ID, statusID, consts.ErrAskFailed)
		return nil
	}

	b.recordLLMUsage(message.Chat.ID, "ask", "success", elapsed, usage)
	if dbErr := b.db.IncrementCommand(message.Chat.ID, "ask"); dbErr != nil {
		logger.Warn("Failed to increment ask count", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	reply := fmt.Sprintf("💬 <b>Answer</b>\n\n%s", escapeHTML(answer))
	b.editMessage(message.Chat.ID, statusID, reply)
	return nil
}
