package paste

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is the uniform outcome for a paste that is absent,
	// expired, or out of read budget. Callers cannot tell which.
	ErrUnavailable = errors.New("paste not available")

	// ErrNotFound is returned by repositories when no paste exists for an id.
	ErrNotFound = errors.New("paste not found")

	// ErrBudgetExhausted is returned by repositories when the conditional
	// increment is rejected because the read budget is already spent.
	ErrBudgetExhausted = errors.New("paste read budget exhausted")

	// ErrDuplicateID is returned by repositories when an insert collides
	// with an existing id.
	ErrDuplicateID = errors.New("paste id already exists")

	// ErrInvalidInput indicates malformed create parameters.
	ErrInvalidInput = errors.New("invalid paste input")
)

// MaxIDLength bounds the accepted id length so garbage identifiers are
// rejected before any backend call.
const MaxIDLength = 64

// ID is the opaque identifier assigned to a paste at creation.
type ID string

// Valid reports whether the id is syntactically well-formed: non-empty,
// bounded in length, and restricted to the nanoid standard alphabet.
func (id ID) Valid() bool {
	if len(id) == 0 || len(id) > MaxIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}

	return true
}

// Paste is a stored text record with an optional expiry instant and an
// optional read budget. ReadsConsumed is the only mutable field and is
// written exclusively through Repository.ConsumeRead.
type Paste struct {
	ID            ID
	Content       string
	CreatedAt     time.Time
	ExpiresAt     *time.Time // nil means no time bound
	MaxReads      *int64     // nil means unlimited reads
	ReadsConsumed int64
}

// Expired reports whether the paste is past its expiry at the given instant.
// An instant equal to ExpiresAt is already expired.
func (p *Paste) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Exhausted reports whether the read budget is spent.
func (p *Paste) Exhausted() bool {
	return p.MaxReads != nil && p.ReadsConsumed >= *p.MaxReads
}

// Repository defines the keyed persistence contract for pastes.
//
// ConsumeRead is the only mutation path for ReadsConsumed and must be a
// single atomic operation: increment the counter only while the
// pre-increment value is below MaxReads (or unconditionally when MaxReads
// is nil), and return the post-increment snapshot. A separate
// read-then-write pair is not an acceptable implementation.
type Repository interface {
	// Insert persists a new paste. Returns ErrDuplicateID when the id is
	// already taken.
	Insert(ctx context.Context, p *Paste) error

	// Get returns the paste for an id, or ErrNotFound.
	Get(ctx context.Context, id ID) (*Paste, error)

	// ConsumeRead atomically increments ReadsConsumed if the budget allows
	// it and returns the paste as of after the increment. Returns
	// ErrNotFound when the id does not exist and ErrBudgetExhausted when
	// the increment was rejected.
	ConsumeRead(ctx context.Context, id ID) (*Paste, error)
}

// DeadSweeper is implemented by repositories that can bulk-delete pastes
// which are expired or exhausted. Sweeping is housekeeping only; liveness
// is always re-evaluated at read time and never depends on it.
type DeadSweeper interface {
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}
