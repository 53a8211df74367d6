package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "angle brackets",
			input:    "<script>alert(1)</script>",
			expected: "&lt;script&gt;alert(1)&lt;/script&gt;",
		},
		{
			name:     "ampersand",
			input:    "fish & chips",
			expected: "fish &amp; chips",
		},
		{
			name:     "already escaped stays escaped",
			input:    "&lt;b&gt;",
			expected: "&amp;lt;b&amp;gt;",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeHTML(tt.input)
			if result != tt.expected {
				t.Errorf("escapeHTML(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *tgbotapi.User
		expected string
	}{
		{
			name:     "first name preferred",
			user:     &tgbotapi.User{ID: 1, FirstName: "Alice", UserName: "alice99"},
			expected: "Alice",
		},
		{
			name:     "username fallback",
			user:     &tgbotapi.User{ID: 2, UserName: "bob_the_builder"},
			expected: "bob_the_builder",
		},
		{
			name:     "ID fallback",
			user:     &tgbotapi.User{ID: 314},
			expected: "User 314",
		},
		{
			name:     "nil user",
			user:     nil,
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := displayName(tt.user)
			if result != tt.expected {
				t.Errorf("displayName() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "bytes", input: 512, expected: "512 B"},
		{name: "zero", input: 0, expected: "0 B"},
		{name: "kilobytes", input: 2048, expected: "2.0 KB"},
		{name: "megabytes", input: 3 << 20, expected: "3.0 MB"},
		{name: "fractional kilobytes", input: 1536, expected: "1.5 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatBytes(tt.input)
			if result != tt.expected {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
