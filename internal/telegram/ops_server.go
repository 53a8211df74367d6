package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const opsShutdownTimeout = 5 * time.Second

// StartOpsServer exposes health and metrics endpoints for operators. It never
// serves chat content.
func (b *Bot) StartOpsServer() {
	router := mux.NewRouter()
	router.HandleFunc("/health", b.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	b.opsServer = &http.Server{
		Addr:         ":" + b.config.OpsPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Ops server listening", map[string]interface{}{
			"addr": b.opsServer.Addr,
		})
		if err := b.opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ops server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

// StopOpsServer shuts the ops server down, waiting briefly for in-flight
// scrapes to finish.
func (b *Bot) StopOpsServer() {
	if b.opsServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
	defer cancel()

	if err := b.opsServer.Shutdown(ctx); err != nil {
		logger.Warn("Ops server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	b.opsServer = nil
}

func (b *Bot) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":        "ok",
		"store_open":    b.store != nil,
		"llm_available": b.llmClient != nil && b.llmClient.Available(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Warn("Failed to write health response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
