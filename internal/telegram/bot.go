package telegram

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/cache"
	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/database"
	"github.com/Mhsaeedi07/BriefBot/internal/llm"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/metrics"
	"github.com/Mhsaeedi07/BriefBot/internal/retention"
	"github.com/Mhsaeedi07/BriefBot/internal/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const updatePollTimeout = 60 // seconds

type Bot struct {
	api       *tgbotapi.BotAPI
	config    *config.Config
	store     *store.Store
	llmClient *llm.Client
	db        *database.DB
	cache     *cache.Cache
	metrics   *metrics.Collector
	retention *retention.Scheduler

	// send performs the actual Telegram API call; tests swap it out.
	send func(tgbotapi.Chattable) (tgbotapi.Message, error)

	// Rate limiting for outgoing API calls
	globalLimiter  *rate.Limiter
	chatLimiters   map[int64]*rate.Limiter
	chatLimitersMu sync.RWMutex
	cleanupStarted bool

	// Worker pool for concurrent processing
	workerPool *WorkerPool

	opsServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func NewBot(cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	msgStore, err := store.Open(filepath.Join(cfg.DataDir, "messages"))
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}

	// Usage insights database is optional
	var db *database.DB
	if cfg.HasDatabaseConfig() {
		db, err = database.NewDB(cfg.PostgreDSN)
		if err != nil {
			logger.Warn("Failed to initialize database", map[string]interface{}{
				"error": err.Error(),
			})
			logger.InfoMsg("Continuing without usage insights...")
			db = nil
		}
	} else {
		logger.InfoMsg("No database configured, usage insights disabled")
	}

	collector := metrics.NewCollector()

	sweeper, err := retention.New(msgStore, cfg.CleanupCron, cfg.RetentionWindow())
	if err != nil {
		msgStore.Close()
		return nil, fmt.Errorf("failed to create retention scheduler: %w", err)
	}
	sweeper.OnSweep = collector.RecordCleanup

	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		api:       api,
		config:    cfg,
		store:     msgStore,
		llmClient: llm.NewClient(cfg),
		db:        db,
		cache:     cache.NewWithConfig(500, 24*time.Hour, 10*time.Minute),
		metrics:   collector,
		retention: sweeper,
		send:      api.Send,

		// Telegram allows roughly 30 messages per second overall and one
		// message per second per chat.
		globalLimiter: rate.NewLimiter(rate.Limit(30), 30),
		chatLimiters:  make(map[int64]*rate.Limiter),

		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (b *Bot) Start() error {
	logger.Info("Bot authorized and starting", map[string]interface{}{
		"username":       b.api.Self.UserName,
		"retention_days": b.config.RetentionDays,
		"cleanup_cron":   b.config.CleanupCron,
	})

	b.workerPool = NewWorkerPool(b, DefaultWorkerPoolConfig())
	if err := b.workerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	b.StartOpsServer()
	b.retention.Start(b.ctx)

	offset := 0
	for {
		select {
		case <-b.ctx.Done():
			return nil
		default:
		}

		incoming, next, err := b.fetchUpdates(offset)
		if err != nil {
			logger.Error("Failed to fetch updates", map[string]interface{}{
				"error": err.Error(),
			})
			time.Sleep(3 * time.Second)
			continue
		}
		offset = next

		for _, in := range incoming {
			if in.Message == nil {
				continue
			}

			logger.Debug("Received message", map[string]interface{}{
				"chat_id":    in.Message.Chat.ID,
				"topic_id":   in.TopicID,
				"message_id": in.Message.MessageID,
				"has_voice":  in.Message.Voice != nil,
			})

			// Voice notes go to the slower transcription queue
			var submitErr error
			if in.Message.Voice != nil && !in.Message.IsCommand() {
				submitErr = b.workerPool.SubmitVoice(in)
			} else {
				submitErr = b.workerPool.SubmitMessage(in)
			}
			if submitErr != nil {
				logger.Error("Failed to submit update to worker pool", map[string]interface{}{
					"error":   submitErr.Error(),
					"chat_id": in.Message.Chat.ID,
				})
			}
		}
	}
}

// Stop gracefully shuts down the bot and releases its resources.
func (b *Bot) Stop() error {
	logger.InfoMsg("Stopping bot...")

	b.cancel()

	if b.workerPool != nil {
		if err := b.workerPool.Stop(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	b.StopOpsServer()

	if b.cache != nil {
		b.cache.Close()
	}
	if b.llmClient != nil {
		b.llmClient.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			logger.Error("Error closing message store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	logger.InfoMsg("Bot stopped successfully")
	return nil
}

// handleIncoming routes one update: topic lifecycle events, commands, and
// plain messages to archive.
func (b *Bot) handleIncoming(in *Incoming) error {
	message := in.Message
	if message == nil {
		return nil
	}

	if in.TopicCreatedName != "" {
		return b.handleTopicCreated(in)
	}
	if in.TopicClosed {
		return b.handleTopicClosed(in)
	}
	if in.TopicReopened {
		return b.handleTopicReopened(in)
	}

	if message.IsCommand() {
		return b.handleCommand(in)
	}

	return b.archiveMessage(in)
}

// Rate limiting methods

// getChatRateLimiter gets or creates a rate limiter for a specific chat
func (b *Bot) getChatRateLimiter(chatID int64) *rate.Limiter {
	b.chatLimitersMu.RLock()
	limiter, exists := b.chatLimiters[chatID]
	b.chatLimitersMu.RUnlock()

	if !exists {
		b.chatLimitersMu.Lock()
		// Double-check in case another goroutine created it
		if limiter, exists = b.chatLimiters[chatID]; !exists {
			limiter = rate.NewLimiter(rate.Limit(1), 3)
			b.chatLimiters[chatID] = limiter

			if !b.cleanupStarted {
				b.cleanupStarted = true
				go b.cleanupChatLimiters()
			}
		}
		b.chatLimitersMu.Unlock()
	}

	return limiter
}

// cleanupChatLimiters bounds the limiter map so idle chats don't accumulate.
func (b *Bot) cleanupChatLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.chatLimitersMu.Lock()
			if len(b.chatLimiters) > 1000 {
				logger.Debug("Cleaning up chat rate limiters", map[string]interface{}{
					"limiter_count": len(b.chatLimiters),
				})
				b.chatLimiters = make(map[int64]*rate.Limiter)
			}
			b.chatLimitersMu.Unlock()
		}
	}
}

// rateLimitedSend sends a message with rate limiting
func (b *Bot) rateLimitedSend(chatID int64, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.globalLimiter.Wait(b.ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("global rate limiter error: %w", err)
	}

	chatLimiter := b.getChatRateLimiter(chatID)
	if err := chatLimiter.Wait(b.ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("chat rate limiter error: %w", err)
	}

	return b.send(msg)
}
