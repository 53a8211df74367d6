package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/consts"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// sentRecorder captures outgoing Telegram calls instead of hitting the API.
type sentRecorder struct {
	sent []tgbotapi.Chattable
}

func (r *sentRecorder) send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, msg)
	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

// lastText returns the text of the most recent outgoing message.
func (r *sentRecorder) lastText(t *testing.T) string {
	t.Helper()
	if len(r.sent) == 0 {
		t.Fatal("Expected a reply to have been sent")
	}
	msg, ok := r.sent[len(r.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("Expected a MessageConfig, got %T", r.sent[len(r.sent)-1])
	}
	return msg.Text
}

// newCommandTestBot wires a bot whose sends are recorded and whose LLM client
// is absent, so any path that reaches the LLM panics the test.
func newCommandTestBot(t *testing.T) (*Bot, *sentRecorder) {
	t.Helper()

	msgStore, err := store.Open(filepath.Join(t.TempDir(), "messages"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { msgStore.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	recorder := &sentRecorder{}
	return &Bot{
		config:        &config.Config{TelegramBotToken: "test_token", RetentionDays: 30},
		store:         msgStore,
		send:          recorder.send,
		globalLimiter: rate.NewLimiter(rate.Limit(100), 100),
		chatLimiters:  make(map[int64]*rate.Limiter),
		ctx:           ctx,
		cancel:        cancel,
	}, recorder
}

// commandMessage builds a group message whose text is a bot command.
func commandMessage(text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 42, FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: -100123},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func TestSummaryCommandRequiresReply(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	in := &Incoming{Message: commandMessage("/summary")}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.ReplyRequiredSummary {
		t.Errorf("Expected summary usage reply, got %q", got)
	}
	if len(recorder.sent) != 1 {
		t.Errorf("Expected exactly one reply, got %d", len(recorder.sent))
	}
}

func TestMissedCommandRequiresReply(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	in := &Incoming{Message: commandMessage("/missed")}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.ReplyRequiredMissed {
		t.Errorf("Expected missed usage reply, got %q", got)
	}
}

func TestAskCommandRequiresReply(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	in := &Incoming{Message: commandMessage("/ask what happened?")}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.ReplyRequiredAsk {
		t.Errorf("Expected ask usage reply, got %q", got)
	}
}

func TestAskCommandRequiresQuestion(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	message := commandMessage("/ask")
	message.ReplyToMessage = &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: -100123}}

	in := &Incoming{Message: message}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.QuestionRequiredAsk {
		t.Errorf("Expected question usage reply, got %q", got)
	}
}

func TestTextCommandRequiresReply(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	in := &Incoming{Message: commandMessage("/text")}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.ReplyRequiredText {
		t.Errorf("Expected text usage reply, got %q", got)
	}
}

func TestTextCommandRequiresVoiceReply(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	message := commandMessage("/text")
	message.ReplyToMessage = &tgbotapi.Message{
		MessageID: 5,
		Chat:      &tgbotapi.Chat{ID: -100123},
		Text:      "just text",
	}

	in := &Incoming{Message: message}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.NotAVoiceMessage {
		t.Errorf("Expected non-voice usage reply, got %q", got)
	}
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	in := &Incoming{Message: commandMessage("/somebodyelses")}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if len(recorder.sent) != 0 {
		t.Errorf("Expected no reply to an unknown command, got %d", len(recorder.sent))
	}
}

func TestSummaryCommandUnknownAnchor(t *testing.T) {
	bot, recorder := newCommandTestBot(t)

	message := commandMessage("/summary")
	message.ReplyToMessage = &tgbotapi.Message{MessageID: 999, Chat: &tgbotapi.Chat{ID: -100123}}

	in := &Incoming{Message: message}
	if err := bot.handleCommand(in); err != nil {
		t.Fatalf("handleCommand returned error: %v", err)
	}

	if got := recorder.lastText(t); got != consts.NoMessagesToAnalyze {
		t.Errorf("Expected empty-slice reply, got %q", got)
	}
}
