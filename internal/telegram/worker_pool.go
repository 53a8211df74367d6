package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
)

// WorkerPool manages concurrent processing of incoming updates. Voice notes
// get their own queue and workers because transcription is slow and must not
// starve ordinary message archiving.
type WorkerPool struct {
	bot            *Bot
	messageQueue   chan *Incoming
	voiceQueue     chan *Incoming
	messageWorkers int
	voiceWorkers   int

	// Concurrency control for LLM calls
	maxConcurrentOps int
	opSemaphore      chan struct{}

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	MessageWorkers   int // Number of workers processing messages and commands
	VoiceWorkers     int // Number of workers processing voice notes
	MessageQueueSize int // Size of message queue buffer
	VoiceQueueSize   int // Size of voice queue buffer
	MaxConcurrentOps int // Maximum concurrent LLM operations
}

// DefaultWorkerPoolConfig returns a sensible default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MessageWorkers:   8,
		VoiceWorkers:     4,
		MessageQueueSize: 200,
		VoiceQueueSize:   50,
		MaxConcurrentOps: 10,
	}
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(bot *Bot, config WorkerPoolConfig) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		bot:              bot,
		messageQueue:     make(chan *Incoming, config.MessageQueueSize),
		voiceQueue:       make(chan *Incoming, config.VoiceQueueSize),
		messageWorkers:   config.MessageWorkers,
		voiceWorkers:     config.VoiceWorkers,
		maxConcurrentOps: config.MaxConcurrentOps,
		opSemaphore:      make(chan struct{}, config.MaxConcurrentOps),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return fmt.Errorf("worker pool already started")
	}

	logger.Info("Starting worker pool", map[string]interface{}{
		"message_workers":    wp.messageWorkers,
		"voice_workers":      wp.voiceWorkers,
		"max_concurrent_ops": wp.maxConcurrentOps,
		"message_queue_size": cap(wp.messageQueue),
		"voice_queue_size":   cap(wp.voiceQueue),
	})

	for i := 0; i < wp.messageWorkers; i++ {
		wp.wg.Add(1)
		go wp.messageWorker(i)
	}

	for i := 0; i < wp.voiceWorkers; i++ {
		wp.wg.Add(1)
		go wp.voiceWorker(i)
	}

	wp.started = true
	logger.InfoMsg("Worker pool started successfully")
	return nil
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.started {
		return fmt.Errorf("worker pool not started")
	}

	logger.InfoMsg("Stopping worker pool...")

	close(wp.messageQueue)
	close(wp.voiceQueue)
	wp.cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoMsg("Worker pool stopped gracefully")
	case <-time.After(30 * time.Second):
		logger.Warn("Worker pool shutdown timed out", nil)
		return fmt.Errorf("worker pool shutdown timed out")
	}

	wp.started = false
	return nil
}

// SubmitMessage adds an update to the message processing queue
func (wp *WorkerPool) SubmitMessage(in *Incoming) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.started {
		return fmt.Errorf("worker pool not started")
	}

	select {
	case wp.messageQueue <- in:
		wp.reportQueueDepth()
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
		logger.Warn("Message queue full, dropping update", map[string]interface{}{
			"chat_id": in.Message.Chat.ID,
		})
		return fmt.Errorf("message queue full")
	}
}

// SubmitVoice adds a voice note to the transcription queue
func (wp *WorkerPool) SubmitVoice(in *Incoming) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.started {
		return fmt.Errorf("worker pool not started")
	}

	select {
	case wp.voiceQueue <- in:
		wp.reportQueueDepth()
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
		logger.Warn("Voice queue full, dropping update", map[string]interface{}{
			"chat_id": in.Message.Chat.ID,
		})
		return fmt.Errorf("voice queue full")
	}
}

func (wp *WorkerPool) reportQueueDepth() {
	if wp.bot != nil && wp.bot.metrics != nil {
		wp.bot.metrics.UpdateQueueDepth("messages", len(wp.messageQueue))
		wp.bot.metrics.UpdateQueueDepth("voice", len(wp.voiceQueue))
	}
}

// messageWorker processes updates from the message queue
func (wp *WorkerPool) messageWorker(workerID int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Message worker panic recovered", map[string]interface{}{
				"worker_id": workerID,
				"panic":     r,
			})
		}
		wp.wg.Done()
	}()

	for {
		select {
		case in, ok := <-wp.messageQueue:
			if !ok {
				return
			}
			wp.processWithConcurrencyControl(in, workerID, wp.bot.handleIncoming)
		case <-wp.ctx.Done():
			return
		}
	}
}

// voiceWorker processes voice notes from the voice queue
func (wp *WorkerPool) voiceWorker(workerID int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Voice worker panic recovered", map[string]interface{}{
				"worker_id": workerID,
				"panic":     r,
			})
		}
		wp.wg.Done()
	}()

	for {
		select {
		case in, ok := <-wp.voiceQueue:
			if !ok {
				return
			}
			wp.processWithConcurrencyControl(in, workerID, wp.bot.handleVoiceMessage)
		case <-wp.ctx.Done():
			return
		}
	}
}

// processWithConcurrencyControl runs one handler under the LLM concurrency cap.
func (wp *WorkerPool) processWithConcurrencyControl(in *Incoming, workerID int, handler func(*Incoming) error) {
	select {
	case wp.opSemaphore <- struct{}{}:
		defer func() { <-wp.opSemaphore }()
	case <-wp.ctx.Done():
		return
	}

	startTime := time.Now()

	if err := handler(in); err != nil {
		logger.Error("Error processing update", map[string]interface{}{
			"worker_id": workerID,
			"error":     err.Error(),
			"chat_id":   in.Message.Chat.ID,
		})
		wp.bot.sendErrorResponse(in.Message.Chat.ID, err)
	}

	logger.Debug("Update processed", map[string]interface{}{
		"worker_id": workerID,
		"chat_id":   in.Message.Chat.ID,
		"duration":  time.Since(startTime).String(),
	})
}

// GetStats returns current worker pool statistics
func (wp *WorkerPool) GetStats() map[string]interface{} {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return map[string]interface{}{
		"started":                wp.started,
		"message_queue_size":     len(wp.messageQueue),
		"voice_queue_size":       len(wp.voiceQueue),
		"message_queue_capacity": cap(wp.messageQueue),
		"voice_queue_capacity":   cap(wp.voiceQueue),
		"active_operations":      len(wp.opSemaphore),
		"max_concurrent_ops":     wp.maxConcurrentOps,
		"message_workers":        wp.messageWorkers,
		"voice_workers":          wp.voiceWorkers,
	}
}
