package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/yuzvak/storefront/internal/pkg/clock"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically deletes verification records older than the
// retention window.
type RetentionSweeper struct {
	pruner    Pruner
	clock     clock.Clock
	logger    *logger.Logger
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
}

func NewRetentionSweeper(
	pruner Pruner,
	clk clock.Clock,
	logger *logger.Logger,
	retention time.Duration,
	interval time.Duration,
) *RetentionSweeper {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &RetentionSweeper{
		pruner:    pruner,
		clock:     clk,
		logger:    logger,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info("Starting retention sweeper", "retention", s.retention.String(), "interval", s.interval.String())

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("Initial retention sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeper stopped")
			return
		case <-s.stopChan:
			s.logger.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("Retention sweep failed", "error", err)
			}
		}
	}
}

func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)

	deleted, err := s.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Pruned payment verifications", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
