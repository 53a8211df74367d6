package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Voice notes are transcribed automatically when they arrive and the
// transcription is archived in the sender's name, so /summary and friends see
// spoken content like any other message. /text re-runs transcription on
// demand for a replied-to voice note.

// transcriptionCacheTTL keeps finished transcriptions around so /text on an
// already-processed voice note costs nothing.
const transcriptionCacheTTL = 24 * time.Hour

// handleVoiceMessage is the automatic flow for incoming voice notes.
func (b *Bot) handleVoiceMessage(in *Incoming) error {
	message := in.Message
	if message == nil || message.Voice == nil {
		return nil
	}

	if !b.llmClient.SupportsTranscription() {
		logger.WarnMsg("Voice note received but transcription is not configured")
		return nil
	}

	statusID := b.sendReplyAndGetMessageID(in, consts.ProcessingVoice)

	text, err := b.transcribeVoice(message.Chat.ID, message.Voice)
	if err != nil {
		logger.Error("Voice transcription failed", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
			"duration": message.Voice.Duration,
		})
		if b.metrics != nil {
			b.metrics.RecordVoiceNote("error")
		}
		b.editMessage(message.Chat.ID, statusID, consts.ErrTranscribeFailed)
		return nil
	}

	msg := store.Message{
		ChatID:    message.Chat.ID,
		TopicID:   in.TopicID,
		MessageID: message.MessageID,
		Text:      consts.VoiceMessagePrefix + text,
		Timestamp: message.Time(),
	}
	if message.From != nil {
		msg.UserID = message.From.ID
		msg.Username = displayName(message.From)
	}

	if err := b.store.Append(msg); err != nil {
		logger.Error("Failed to archive transcription", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
	} else if b.metrics != nil {
		b.metrics.RecordMessageStored()
	}

	if b.metrics != nil {
		b.metrics.RecordVoiceNote("success")
	}
	if dbErr := b.db.IncrementCommand(message.Chat.ID, "transcribe"); dbErr != nil {
		logger.Warn("Failed to increment transcription count", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	reply := fmt.Sprintf("🎙️ <b>%s said:</b>\n\n%s", escapeHTML(displayName(message.From)), escapeHTML(text))
	b.editMessage(message.Chat.ID, statusID, reply)
	return nil
}

// handleTextCommand transcribes the voice note the user replied to.
func (b *Bot) handleTextCommand(in *Incoming) error {
	message := in.Message
	if message.ReplyToMessage == nil {
		b.sendReply(in, consts.ReplyRequiredText)
		return nil
	}
	if message.ReplyToMessage.Voice == nil {
		b.sendReply(in, consts.NotAVoiceMessage)
		return nil
	}
	if !b.llmClient.SupportsTranscription() {
		b.sendReply(in, consts.ErrTranscribeFailed)
		return nil
	}

	statusID := b.sendReplyAndGetMessageID(in, consts.ProcessingVoice)

	text, err := b.transcribeVoice(message.Chat.ID, message.ReplyToMessage.Voice)
	if err != nil {
		logger.Error("Voice transcription failed", map[string]interface{}{
			"error":    err.Error(),
			"chat_id":  message.Chat.ID,
			"topic_id": in.TopicID,
		})
		if b.metrics != nil {
			b.metrics.RecordVoiceNote("error")
		}
		b.editMessage(message.Chat.ID, statusID, consts.ErrTranscribeFailed)
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordVoiceNote("success")
	}
	if dbErr := b.db.IncrementCommand(message.Chat.ID, "transcribe"); dbErr != nil {
		logger.Warn("Failed to increment transcription count", map[string]interface{}{
			"error":   dbErr.Error(),
			"chat_id": message.Chat.ID,
		})
	}

	reply := fmt.Sprintf("🎙️ <b>Transcription:</b>\n\n%s", escapeHTML(text))
	b.editMessage(message.Chat.ID, statusID, reply)
	return nil
}

// transcribeVoice downloads a voice note and runs it through the LLM,
// consulting the file-ID cache first.
func (b *Bot) transcribeVoice(chatID int64, voice *tgbotapi.Voice) (string, error) {
	cacheKey := "transcription_" + voice.FileID
	if cached, found := b.cache.Get(cacheKey); found {
		if text, ok := cached.(string); ok {
			logger.Debug("Transcription served from cache", map[string]interface{}{
				"chat_id": chatID,
			})
			return text, nil
		}
	}

	audio, err := b.downloadVoice(voice.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to download voice note: %w", err)
	}

	mimeType := voice.MimeType
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	ctx, cancel := context.WithTimeout(b.ctx, llmRequestTimeout)
	defer cancel()

	startTime := time.Now()
	text, usage, err := b.llmClient.Transcribe(ctx, audio, mimeType)
	elapsed := time.Since(startTime)

	status := "success"
	if err != nil {
		status = "error"
	}
	b.recordLLMUsage(chatID, "transcribe", status, elapsed, usage)
	if err != nil {
		return "", err
	}

	b.cache.SetWithExpiry(cacheKey, text, transcriptionCacheTTL)
	return text, nil
}

// downloadVoice fetches the audio payload for a Telegram file ID.
func (b *Bot) downloadVoice(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	fileURL := file.Link(b.api.Token)
	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}

	logger.Debug("Voice note downloaded", map[string]interface{}{
		"bytes": len(data),
	})
	return data, nil
}
