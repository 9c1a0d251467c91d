package paste

import (
	"context"
	"time"

	"github.com/serroba/paste-go/internal/clock"
	"go.uber.org/zap"
)

// Sweeper periodically deletes dead pastes from repositories that support
// bulk deletion. It only reclaims space; a paste that outlives a missed
// sweep is still refused at read time.
type Sweeper struct {
	store    DeadSweeper
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(store DeadSweeper, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		clock:    clk,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.sweepLoop(ctx)

	return nil
}

func (s *Sweeper) sweepLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.store.DeleteDead(ctx, s.clock.Now(ctx))
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))

		return
	}

	if deleted > 0 {
		s.logger.Info("swept dead pastes", zap.Int64("deleted", deleted))
	}
}

// Shutdown stops the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	<-s.done

	return nil
}
