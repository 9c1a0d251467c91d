package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 {
	return &v
}

func timep(t time.Time) *time.Time {
	return &t
}

func TestMemoryStore_Insert(t *testing.T) {
	t.Run("inserts paste successfully", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Insert(context.Background(), &paste.Paste{ID: "abc123", Content: "hello"})

		require.NoError(t, err)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{ID: "abc123", Content: "hello"})

		err := s.Insert(context.Background(), &paste.Paste{ID: "abc123", Content: "other"})

		assert.ErrorIs(t, err, paste.ErrDuplicateID)
	})
}

func TestMemoryStore_Get(t *testing.T) {
	t.Run("returns paste when found", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:       "abc123",
			Content:  "hello",
			MaxReads: int64p(5),
		})

		got, err := s.Get(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "hello", got.Content)
		require.NotNil(t, got.MaxReads)
		assert.Equal(t, int64(5), *got.MaxReads)
	})

	t.Run("returns ErrNotFound when id does not exist", func(t *testing.T) {
		s := store.NewMemoryStore()

		got, err := s.Get(context.Background(), "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, paste.ErrNotFound)
	})

	t.Run("returned paste is a copy", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{ID: "abc123", Content: "hello"})

		got, _ := s.Get(context.Background(), "abc123")
		got.Content = "mutated"
		got.ReadsConsumed = 99

		fresh, err := s.Get(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "hello", fresh.Content)
		assert.Zero(t, fresh.ReadsConsumed)
	})
}

func TestMemoryStore_ConsumeRead(t *testing.T) {
	t.Run("increments counter and returns snapshot", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:       "abc123",
			Content:  "hello",
			MaxReads: int64p(2),
		})

		got, err := s.ConsumeRead(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ReadsConsumed)
		assert.Equal(t, "hello", got.Content)
	})

	t.Run("rejects increment past the budget", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:       "abc123",
			Content:  "hello",
			MaxReads: int64p(1),
		})

		_, err := s.ConsumeRead(context.Background(), "abc123")
		require.NoError(t, err)

		_, err = s.ConsumeRead(context.Background(), "abc123")
		assert.ErrorIs(t, err, paste.ErrBudgetExhausted)

		got, err := s.Get(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ReadsConsumed)
	})

	t.Run("unlimited budget always increments", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{ID: "abc123", Content: "hello"})

		for want := int64(1); want <= 10; want++ {
			got, err := s.ConsumeRead(context.Background(), "abc123")

			require.NoError(t, err)
			assert.Equal(t, want, got.ReadsConsumed)
		}
	})

	t.Run("returns ErrNotFound when id does not exist", func(t *testing.T) {
		s := store.NewMemoryStore()

		_, err := s.ConsumeRead(context.Background(), "missing")

		assert.ErrorIs(t, err, paste.ErrNotFound)
	})
}

func TestMemoryStore_DeleteDead(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes expired and exhausted pastes", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:        "expired",
			Content:   "a",
			ExpiresAt: timep(now.Add(-time.Minute)),
		})
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:       "exhausted",
			Content:  "b",
			MaxReads: int64p(1),
		})
		_, _ = s.ConsumeRead(context.Background(), "exhausted")
		_ = s.Insert(context.Background(), &paste.Paste{ID: "alive", Content: "c"})

		deleted, err := s.DeleteDead(context.Background(), now)

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		_, err = s.Get(context.Background(), "expired")
		assert.ErrorIs(t, err, paste.ErrNotFound)

		_, err = s.Get(context.Background(), "alive")
		require.NoError(t, err)
	})

	t.Run("keeps future expiries", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), &paste.Paste{
			ID:        "future",
			Content:   "a",
			ExpiresAt: timep(now.Add(time.Hour)),
		})

		deleted, err := s.DeleteDead(context.Background(), now)

		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}
