package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mhsaeedi07/BriefBot/internal/config"
	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/Mhsaeedi07/BriefBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("BriefBot is starting", map[string]interface{}{
		"log_level":      cfg.LogLevel,
		"retention_days": cfg.RetentionDays,
		"has_database":   cfg.HasDatabaseConfig(),
		"has_fallback":   cfg.HasFallbackLLMConfig(),
	})

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		logger.Error("Failed to create Telegram bot", map[string]interface{}{
			"error": err.Error(),
		})
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	logger.InfoMsg("🗂️ Ready to archive and summarize your group chats!")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Start()
	}()

	select {
	case <-ctx.Done():
		logger.InfoMsg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Bot error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if err := bot.Stop(); err != nil {
		logger.Error("Error during shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
