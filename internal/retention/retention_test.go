package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu      sync.Mutex
	calls   int
	cutoffs []time.Time
	removed int
	err     error
}

func (f *fakePurger) CleanupAll(cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func (f *fakePurger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New(&fakePurger{}, "not a cron", 24*time.Hour)
	assert.Error(t, err)
}

func TestNewRejectsNonPositiveWindow(t *testing.T) {
	_, err := New(&fakePurger{}, "0 2 * * *", 0)
	assert.Error(t, err)
}

func TestRunImmediateUsesRetentionWindow(t *testing.T) {
	purger := &fakePurger{removed: 3}
	s, err := New(purger, "0 2 * * *", 30*24*time.Hour)
	require.NoError(t, err)

	var gotRemoved int
	s.OnSweep = func(removed int, elapsed time.Duration) {
		gotRemoved = removed
	}

	before := time.Now().Add(-30 * 24 * time.Hour)
	s.RunImmediate()
	after := time.Now().Add(-30 * 24 * time.Hour)

	require.Equal(t, 1, purger.callCount())
	assert.Equal(t, 3, gotRemoved)

	cutoff := purger.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}

func TestStartRunsSweepImmediately(t *testing.T) {
	purger := &fakePurger{}
	s, err := New(purger, "0 2 * * *", 24*time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for purger.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ran the initial sweep")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOnSweepSkippedOnError(t *testing.T) {
	purger := &fakePurger{err: assert.AnError}
	s, err := New(purger, "0 2 * * *", 24*time.Hour)
	require.NoError(t, err)

	called := false
	s.OnSweep = func(int, time.Duration) { called = true }
	s.RunImmediate()

	assert.False(t, called)
}
