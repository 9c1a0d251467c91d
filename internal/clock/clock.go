package clock

import (
	"context"
	"time"
)

// Clock supplies the current instant. Now takes a context so deterministic
// runs can thread a per-call override explicitly instead of reading ambient
// process state.
type Clock interface {
	Now(ctx context.Context) time.Time
}

// System is the production clock. It returns wall-clock UTC time and
// ignores any override in the context.
type System struct{}

// NewSystem creates a new system clock.
func NewSystem() System {
	return System{}
}

// Now returns the current UTC time.
func (System) Now(_ context.Context) time.Time {
	return time.Now().UTC()
}

type overrideKey struct{}

// ContextWithOverride returns a context carrying a time override for
// deterministic clocks.
func ContextWithOverride(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, overrideKey{}, t)
}

// OverrideFromContext extracts a time override from the context, if any.
func OverrideFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(overrideKey{}).(time.Time)

	return t, ok
}

// Deterministic honors a context override when it is a valid positive
// instant and silently falls back to the real clock otherwise. It never
// fails; an invalid override simply means real time.
type Deterministic struct {
	fallback Clock
}

// NewDeterministic creates a deterministic clock backed by the system clock.
func NewDeterministic() *Deterministic {
	return &Deterministic{fallback: System{}}
}

// Now returns the override from the context when present and positive,
// otherwise the real current time.
func (c *Deterministic) Now(ctx context.Context) time.Time {
	if t, ok := OverrideFromContext(ctx); ok && t.Unix() > 0 {
		return t
	}

	return c.fallback.Now(ctx)
}
