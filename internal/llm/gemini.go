package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"google.golang.org/genai"
)

// GeminiSDKClient wraps the official Google Gemini Go SDK
type GeminiSDKClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiSDKClient creates a new Gemini client using the official Google SDK
func NewGeminiSDKClient(cfg *config.Config) (*GeminiSDKClient, error) {
	if cfg == nil || cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSDKClient{
		client:    client,
		modelName: cfg.GeminiModel,
	}, nil
}

// generate sends content to Gemini with thinking disabled and extracts the
// text plus token usage from the first candidate.
func (gc *GeminiSDKClient) generate(ctx context.Context, contents []*genai.Content, maxOutputTokens int32) (string, *Usage, error) {
	if gc.client == nil {
		return "", nil, fmt.Errorf("gemini SDK client not initialized")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.2)),
		TopK:            genai.Ptr(float32(40)),
		TopP:            genai.Ptr(float32(0.9)),
		MaxOutputTokens: maxOutputTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget:  genai.Ptr(int32(0)), // Disable thinking mode
			IncludeThoughts: false,
		},
	}

	resp, err := gc.client.Models.GenerateContent(ctx, gc.modelName, contents, genConfig)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate content: %w", err)
	}

	logger.Debug("Gemini SDK Response", map[string]interface{}{
		"candidates_count": len(resp.Candidates),
		"usage_metadata":   resp.UsageMetadata,
	})

	if len(resp.Candidates) == 0 {
		return "", nil, fmt.Errorf("no candidates in Gemini response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", nil, fmt.Errorf("no content parts in Gemini response")
	}

	var content string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			content += part.Text
		}
	}
	content = strings.TrimSpace(content)

	var usage *Usage
	if resp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return content, usage, nil
}

// Summarize produces an organized summary of a conversation transcript.
func (gc *GeminiSDKClient) Summarize(ctx context.Context, transcript string) (string, *Usage, error) {
	prompt := summaryPrompt(transcript)
	return gc.generate(ctx, genai.Text(prompt), 2048)
}

// ExtractActionItems pulls out only the tasks directed at the named user.
func (gc *GeminiSDKClient) ExtractActionItems(ctx context.Context, transcript, userName string) (string, *Usage, error) {
	prompt := actionItemsPrompt(transcript, userName)
	return gc.generate(ctx, genai.Text(prompt), 2048)
}

// AnswerQuestion answers a question grounded in the conversation transcript.
func (gc *GeminiSDKClient) AnswerQuestion(ctx context.Context, question, transcript, userName string) (string, *Usage, error) {
	prompt := questionPrompt(question, transcript, userName)
	return gc.generate(ctx, genai.Text(prompt), 2048)
}

// Transcribe converts a voice note to text using Gemini's multimodal input.
func (gc *GeminiSDKClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, *Usage, error) {
	if gc.client == nil {
		return "", nil, fmt.Errorf("gemini SDK client not initialized")
	}
	if len(audio) == 0 {
		return "", nil, fmt.Errorf("empty audio payload")
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	prompt := "Please transcribe the speech from this audio file. The audio is a voice message from a messaging app.\n\n" +
		"Return only the transcribed text without any additional commentary. " +
		"If you cannot understand the audio clearly, please respond with \"Audio unclear, could not transcribe.\""

	multimodalContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}

	logger.Debug("Transcribing voice message", map[string]interface{}{
		"audio_bytes": len(audio),
		"mime_type":   mimeType,
	})

	return gc.generate(ctx, []*genai.Content{multimodalContent}, 1024)
}

// Close cleans up the Gemini SDK client resources
func (gc *GeminiSDKClient) Close() error {
	// The SDK client doesn't require explicit cleanup
	return nil
}
