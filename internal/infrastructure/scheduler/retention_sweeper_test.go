package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront/internal/pkg/clock"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func (p *fakePruner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestRetentionSweeper_SweepUsesCutoff(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	s := NewRetentionSweeper(pruner, clock.NewMockClock(now), logger.Discard(), 24*time.Hour, time.Hour)

	deleted, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	require.Len(t, pruner.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), pruner.cutoffs[0])
}

func TestRetentionSweeper_SweepError(t *testing.T) {
	pruner := &fakePruner{err: errors.New("db down")}
	s := NewRetentionSweeper(pruner, nil, logger.Discard(), time.Hour, time.Hour)

	_, err := s.Sweep(context.Background())

	assert.Error(t, err)
}

func TestRetentionSweeper_StartRunsUntilStopped(t *testing.T) {
	pruner := &fakePruner{}
	s := NewRetentionSweeper(pruner, nil, logger.Discard(), time.Hour, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.calls() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRetentionSweeper_StopsOnContextCancel(t *testing.T) {
	s := NewRetentionSweeper(&fakePruner{}, nil, logger.Discard(), time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
