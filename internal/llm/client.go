package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

// Usage tracks token consumption for a single request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client routes analysis requests to Gemini when an API key is configured,
// falling back to any OpenAI-compatible endpoint for text-only operations.
// Voice transcription is multimodal and always requires Gemini.
type Client struct {
	cfg           *config.Config
	geminiClient  *GeminiSDKClient
	fallback      *openai.Client
	fallbackModel string
}

// NewClient creates a client from the configured providers.
func NewClient(cfg *config.Config) *Client {
	client := &Client{cfg: cfg}
	if cfg == nil {
		return client
	}

	if cfg.GeminiAPIKey != "" {
		geminiClient, err := NewGeminiSDKClient(cfg)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			client.geminiClient = geminiClient
		}
	}

	if cfg.HasFallbackLLMConfig() {
		openaiConfig := openai.DefaultConfig(cfg.LLMToken)
		openaiConfig.BaseURL = cfg.LLMEndpoint
		client.fallback = openai.NewClientWithConfig(openaiConfig)
		client.fallbackModel = cfg.LLMModel
	}

	return client
}

// Available reports whether any text-capable provider is configured.
func (c *Client) Available() bool {
	return c.geminiClient != nil || c.fallback != nil
}

// SupportsTranscription reports whether voice transcription can be served.
func (c *Client) SupportsTranscription() bool {
	return c.geminiClient != nil
}

// Summarize produces a summary of the transcript.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, *Usage, error) {
	if c.geminiClient != nil {
		return c.geminiClient.Summarize(ctx, transcript)
	}
	return c.chatCompletion(ctx, summaryPrompt(transcript))
}

// ExtractActionItems extracts the named user's personal action items.
func (c *Client) ExtractActionItems(ctx context.Context, transcript, userName string) (string, *Usage, error) {
	if c.geminiClient != nil {
		return c.geminiClient.ExtractActionItems(ctx, transcript, userName)
	}
	return c.chatCompletion(ctx, actionItemsPrompt(transcript, userName))
}

// AnswerQuestion answers a question using the transcript as context.
func (c *Client) AnswerQuestion(ctx context.Context, question, transcript, userName string) (string, *Usage, error) {
	if c.geminiClient != nil {
		return c.geminiClient.AnswerQuestion(ctx, question, transcript, userName)
	}
	return c.chatCompletion(ctx, questionPrompt(question, transcript, userName))
}

// Transcribe converts voice audio to text. Only Gemini handles audio input.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, *Usage, error) {
	if c.geminiClient == nil {
		return "", nil, fmt.Errorf("voice transcription requires a Gemini API key")
	}
	return c.geminiClient.Transcribe(ctx, audio, mimeType)
}

// chatCompletion sends a single-turn prompt to the OpenAI-compatible fallback.
func (c *Client) chatCompletion(ctx context.Context, prompt string) (string, *Usage, error) {
	if c.fallback == nil {
		return "", nil, fmt.Errorf("no LLM provider configured")
	}

	resp, err := c.fallback.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.fallbackModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("no choices in LLM response")
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

// Close cleans up client resources.
func (c *Client) Close() error {
	if c.geminiClient != nil {
		return c.geminiClient.Close()
	}
	return nil
}
