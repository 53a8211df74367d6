package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
)

func TestNewClientWithoutProviders(t *testing.T) {
	client := NewClient(&config.Config{})

	if client.Available() {
		t.Error("expected client without providers to be unavailable")
	}
	if client.SupportsTranscription() {
		t.Error("expected transcription to be unsupported without Gemini")
	}

	_, _, err := client.Summarize(context.Background(), "transcript")
	if err == nil {
		t.Error("expected error when no provider is configured")
	}
}

func TestNewClientNilConfig(t *testing.T) {
	client := NewClient(nil)
	if client.Available() {
		t.Error("expected nil config to produce unavailable client")
	}
}

func TestTranscribeRequiresGemini(t *testing.T) {
	client := NewClient(&config.Config{
		LLMProvider: "deepseek",
		LLMEndpoint: "https://api.deepseek.com/v1",
		LLMToken:    "test-token",
		LLMModel:    "deepseek-chat",
	})

	if !client.Available() {
		t.Error("expected fallback provider to make client available")
	}
	if client.SupportsTranscription() {
		t.Error("expected transcription to be unsupported without Gemini")
	}

	_, _, err := client.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/ogg")
	if err == nil {
		t.Error("expected transcription error without Gemini")
	}
	if !strings.Contains(err.Error(), "Gemini") {
		t.Errorf("expected error to mention Gemini, got %v", err)
	}
}

func TestNewGeminiSDKClientRequiresKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{name: "nil config", cfg: nil},
		{name: "empty key", cfg: &config.Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGeminiSDKClient(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPrompts(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		contains []string
	}{
		{
			name:     "summary",
			prompt:   summaryPrompt("Alice (10:00): hi"),
			contains: []string{"Key decisions made", "Alice (10:00): hi", "organized summary"},
		},
		{
			name:     "action items",
			prompt:   actionItemsPrompt("Bob (11:00): Alice please review", "Alice"),
			contains: []string{`specifically for "Alice"`, "@Alice", "DO NOT include", "No personal action items found"},
		},
		{
			name:     "question",
			prompt:   questionPrompt("when is the deadline?", "Bob (11:00): Friday", "Alice"),
			contains: []string{"question from Alice", "Question: when is the deadline?", "Bob (11:00): Friday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				if !strings.Contains(tt.prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
		})
	}
}

func TestRenderTranscript(t *testing.T) {
	ts := time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		messages []store.Message
		want     string
	}{
		{
			name:     "empty",
			messages: nil,
			want:     "",
		},
		{
			name: "single message",
			messages: []store.Message{
				{Username: "alice", Text: "hello", Timestamp: ts},
			},
			want: "alice (14:30): hello",
		},
		{
			name: "multiple messages",
			messages: []store.Message{
				{Username: "alice", Text: "hello", Timestamp: ts},
				{Username: "bob", Text: "hi there", Timestamp: ts.Add(time.Minute)},
			},
			want: "alice (14:30): hello\nbob (14:31): hi there",
		},
		{
			name: "anonymous user falls back to ID",
			messages: []store.Message{
				{UserID: 42, Text: "hello", Timestamp: ts},
			},
			want: "User 42 (14:30): hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderTranscript(tt.messages)
			if got != tt.want {
				t.Errorf("RenderTranscript() = %q, want %q", got, tt.want)
			}
		})
	}
}
