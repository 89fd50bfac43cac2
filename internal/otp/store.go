package otp

import (
	"context"
	"time"

	"github.com/hackfest/ideavote/internal/domain"
)

// Store holds pending login codes keyed by email. Save replaces any existing
// record for the same email, so at most one code is outstanding per address.
type Store interface {
	Save(ctx context.Context, rec domain.Code) error
	Find(ctx context.Context, email string) (*domain.Code, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// IncrementAttempts records a failed guess and returns the new count.
	IncrementAttempts(ctx context.Context, email string) (int, error)
}
