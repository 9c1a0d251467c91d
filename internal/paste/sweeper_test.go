package paste_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/paste-go/internal/clock"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweepStore struct {
	mu      sync.Mutex
	calls   int
	deleted int64
	err     error
}

func (s *countingSweepStore) DeleteDead(_ context.Context, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	return s.deleted, s.err
}

func (s *countingSweepStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func TestSweeper(t *testing.T) {
	t.Run("sweeps on each tick", func(t *testing.T) {
		store := &countingSweepStore{deleted: 3}
		sweeper := paste.NewSweeper(store, clock.NewSystem(), 10*time.Millisecond, zap.NewNop())

		err := sweeper.Start(context.Background())
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return store.callCount() >= 2
		}, time.Second, 5*time.Millisecond)

		err = sweeper.Shutdown()
		require.NoError(t, err)
	})

	t.Run("keeps running after a failed sweep", func(t *testing.T) {
		store := &countingSweepStore{err: errors.New("sweep error")}
		sweeper := paste.NewSweeper(store, clock.NewSystem(), 10*time.Millisecond, zap.NewNop())

		err := sweeper.Start(context.Background())
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return store.callCount() >= 2
		}, time.Second, 5*time.Millisecond)

		err = sweeper.Shutdown()
		require.NoError(t, err)
	})

	t.Run("shutdown stops the loop", func(t *testing.T) {
		store := &countingSweepStore{}
		sweeper := paste.NewSweeper(store, clock.NewSystem(), time.Millisecond, zap.NewNop())

		err := sweeper.Start(context.Background())
		require.NoError(t, err)

		err = sweeper.Shutdown()
		require.NoError(t, err)

		calls := store.callCount()
		time.Sleep(20 * time.Millisecond)

		assert.Equal(t, calls, store.callCount())
	})
}
