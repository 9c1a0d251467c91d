package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/paste-go/internal/paste"
)

// MemoryStore is an in-memory implementation of paste.Repository, intended
// for tests and single-process development runs. The mutex makes the
// conditional increment in ConsumeRead indivisible.
type MemoryStore struct {
	mu     sync.Mutex
	pastes map[paste.ID]*paste.Paste
}

// NewMemoryStore creates a new in-memory paste store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pastes: make(map[paste.ID]*paste.Paste),
	}
}

func (m *MemoryStore) Insert(_ context.Context, p *paste.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pastes[p.ID]; ok {
		return paste.ErrDuplicateID
	}

	m.pastes[p.ID] = copyPaste(p)

	return nil
}

func (m *MemoryStore) Get(_ context.Context, id paste.ID) (*paste.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pastes[id]
	if !ok {
		return nil, paste.ErrNotFound
	}

	return copyPaste(p), nil
}

func (m *MemoryStore) ConsumeRead(_ context.Context, id paste.ID) (*paste.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pastes[id]
	if !ok {
		return nil, paste.ErrNotFound
	}

	if p.MaxReads != nil && p.ReadsConsumed >= *p.MaxReads {
		return nil, paste.ErrBudgetExhausted
	}

	p.ReadsConsumed++

	return copyPaste(p), nil
}

// DeleteDead removes expired and exhausted pastes.
func (m *MemoryStore) DeleteDead(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64

	for id, p := range m.pastes {
		if p.Expired(now) || p.Exhausted() {
			delete(m.pastes, id)
			deleted++
		}
	}

	return deleted, nil
}

// copyPaste returns a deep copy so callers never share mutable state with
// the map entries.
func copyPaste(p *paste.Paste) *paste.Paste {
	c := *p

	if p.ExpiresAt != nil {
		expiresAt := *p.ExpiresAt
		c.ExpiresAt = &expiresAt
	}

	if p.MaxReads != nil {
		maxReads := *p.MaxReads
		c.MaxReads = &maxReads
	}

	return &c
}

// Compile-time checks.
var (
	_ paste.Repository  = (*MemoryStore)(nil)
	_ paste.DeadSweeper = (*MemoryStore)(nil)
)
