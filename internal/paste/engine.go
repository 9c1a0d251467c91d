package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/paste-go/internal/clock"
	"go.uber.org/zap"
)

// IDGenerator produces unique paste ids.
type IDGenerator func() string

// ReadResult is the outcome of a successful consume-and-read.
type ReadResult struct {
	Content        string
	RemainingReads *int64 // nil when the paste has no read budget
}

// Engine owns paste creation, liveness evaluation, and read consumption.
// It holds no locks of its own; the repository's conditional increment is
// the sole atomicity boundary for the read budget.
type Engine struct {
	store      Repository
	clock      clock.Clock
	generateID IDGenerator
	logger     *zap.Logger
}

// NewEngine creates a new paste engine.
func NewEngine(store Repository, clk clock.Clock, generator IDGenerator, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		clock:      clk,
		generateID: generator,
		logger:     logger,
	}
}

// Create persists a new paste and returns it with its generated id.
// ttlSeconds and maxReads are optional; when set they must be positive.
func (e *Engine) Create(ctx context.Context, content string, ttlSeconds, maxReads *int64) (*Paste, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrInvalidInput)
	}

	if ttlSeconds != nil && *ttlSeconds <= 0 {
		return nil, fmt.Errorf("%w: ttlSeconds must be positive", ErrInvalidInput)
	}

	if maxReads != nil && *maxReads <= 0 {
		return nil, fmt.Errorf("%w: maxReads must be positive", ErrInvalidInput)
	}

	now := e.clock.Now(ctx)

	p := &Paste{
		ID:        ID(e.generateID()),
		Content:   content,
		CreatedAt: now,
	}

	if ttlSeconds != nil {
		expiresAt := now.Add(time.Duration(*ttlSeconds) * time.Second)
		p.ExpiresAt = &expiresAt
	}

	if maxReads != nil {
		budget := *maxReads
		p.MaxReads = &budget
	}

	if err := e.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert paste: %w", err)
	}

	e.logger.Debug("paste created",
		zap.String("id", string(p.ID)),
		zap.Timep("expiresAt", p.ExpiresAt),
		zap.Int64p("maxReads", p.MaxReads),
	)

	return p, nil
}

// ConsumeAndRead returns the paste content and remaining read budget for an
// id, consuming exactly one read. Absent, expired, and exhausted pastes all
// yield ErrUnavailable so callers learn nothing about which it was. Backend
// failures propagate as distinct errors and are never folded into
// ErrUnavailable.
func (e *Engine) ConsumeAndRead(ctx context.Context, id ID) (*ReadResult, error) {
	if !id.Valid() {
		// Malformed ids never reach the backend.
		return nil, ErrUnavailable
	}

	p, err := e.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnavailable
	}

	if err != nil {
		return nil, fmt.Errorf("get paste: %w", err)
	}

	now := e.clock.Now(ctx)

	if p.Expired(now) || p.Exhausted() {
		e.logger.Debug("paste not servable",
			zap.String("id", string(id)),
			zap.Bool("expired", p.Expired(now)),
			zap.Bool("exhausted", p.Exhausted()),
		)

		return nil, ErrUnavailable
	}

	// The budget view above is already stale under concurrency. The
	// repository's conditional increment is the only decision that counts:
	// a rejected increment means a racing reader took the last read, and
	// the paste must not be served. No retry.
	after, err := e.store.ConsumeRead(ctx, id)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBudgetExhausted) {
		return nil, ErrUnavailable
	}

	if err != nil {
		return nil, fmt.Errorf("consume read: %w", err)
	}

	result := &ReadResult{Content: after.Content}

	if after.MaxReads != nil {
		remaining := *after.MaxReads - after.ReadsConsumed
		if remaining < 0 {
			remaining = 0
		}

		result.RemainingReads = &remaining
	}

	return result, nil
}
