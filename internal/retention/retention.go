package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/adhocore/gronx"
)

// Purger removes messages older than the cutoff and reports how many were
// deleted. The message store implements this.
type Purger interface {
	CleanupAll(cutoff time.Time) (int, error)
}

// Scheduler runs periodic retention sweeps on a cron schedule. Messages older
// than the retention window are deleted; topic metadata is kept.
type Scheduler struct {
	purger   Purger
	schedule string
	window   time.Duration

	// OnSweep, when set, is called after every completed sweep.
	OnSweep func(removed int, elapsed time.Duration)
}

// New validates the cron expression and returns a scheduler. window is how
// long messages are kept before they expire.
func New(purger Purger, schedule string, window time.Duration) (*Scheduler, error) {
	gron := gronx.New()
	if !gron.IsValid(schedule) {
		return nil, fmt.Errorf("invalid cleanup schedule %q", schedule)
	}
	if window <= 0 {
		return nil, fmt.Errorf("retention window must be positive, got %s", window)
	}
	return &Scheduler{purger: purger, schedule: schedule, window: window}, nil
}

// Start launches the sweep loop in a goroutine. It runs one sweep immediately
// so a long-stopped deployment catches up, then follows the cron schedule
// until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	logger.Info("Retention scheduler started", map[string]interface{}{
		"schedule":       s.schedule,
		"retention_days": int(s.window.Hours() / 24),
	})

	s.RunImmediate()

	for {
		next, err := gronx.NextTickAfter(s.schedule, time.Now(), false)
		if err != nil {
			logger.Error("Failed to compute next sweep time", map[string]interface{}{
				"error":    err.Error(),
				"schedule": s.schedule,
			})
			return
		}

		select {
		case <-ctx.Done():
			logger.InfoMsg("Retention scheduler stopped")
			return
		case <-time.After(time.Until(next)):
			s.RunImmediate()
		}
	}
}

// RunImmediate performs one sweep right now.
func (s *Scheduler) RunImmediate() {
	start := time.Now()
	cutoff := start.Add(-s.window)

	removed, err := s.purger.CleanupAll(cutoff)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("Retention sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	logger.Info("Retention sweep completed", map[string]interface{}{
		"removed":    removed,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	if s.OnSweep != nil {
		s.OnSweep(removed, elapsed)
	}
}
