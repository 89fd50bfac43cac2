package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/mailer"
	"github.com/hackfest/ideavote/pkg/logger"
)

// Service issues and verifies single-use login codes. All expiry math goes
// through the injected clock so tests can pin time.
type Service struct {
	store  Store
	mailer mailer.Service
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store Store, m mailer.Service, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		mailer: m,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue generates a fresh code for the email, replacing any pending one, and
// hands it to the mailer. Delivery failure is logged, not fatal: the code is
// stored before delivery is attempted.
func (s *Service) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	rec := domain.Code{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.mailer.SendLoginCode(email, code, s.ttl); err != nil {
		logger.ErrorContext(ctx, "Failed to deliver login code", "error", err, "email", email)
		// Code was stored; the user can still request a resend.
	}

	return nil
}

// Verify consumes the pending code for the email. Codes are single-use: the
// record is deleted on success, on expiry detection, and once wrong guesses
// exhaust the attempt budget.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	rec, err := s.store.Find(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up code: %w", err)
	}
	if rec == nil {
		return domain.ErrCodeNotFound
	}

	if s.now().After(rec.ExpiresAt) {
		if err := s.store.Delete(ctx, email); err != nil {
			logger.WarnContext(ctx, "Failed to delete expired code", "error", err, "email", email)
		}
		return domain.ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		n, err := s.store.IncrementAttempts(ctx, email)
		if err != nil {
			logger.WarnContext(ctx, "Failed to record code attempt", "error", err, "email", email)
		}
		// A brute-forceable six-digit code gets a bounded number of guesses.
		if n >= domain.MaxCodeAttempts {
			logger.WarnContext(ctx, "Discarding code after too many wrong guesses", "email", email)
			if err := s.store.Delete(ctx, email); err != nil {
				logger.WarnContext(ctx, "Failed to delete exhausted code", "error", err, "email", email)
			}
		}
		return domain.ErrCodeMismatch
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}

// RunSweeper purges expired-but-unverified codes on a fixed interval until the
// context is cancelled. Verify checks expiry itself, so sweeping is hygiene,
// not correctness; racing with a foreground expiry delete is harmless.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, s.now())
			if err != nil {
				logger.ErrorContext(ctx, "Login code sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.DebugContext(ctx, "Swept expired login codes", "count", n)
			}
		}
	}
}

// generateCode returns a uniformly random fixed-width numeric code. Leading
// zeros are preserved by the %0*d formatting.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < domain.CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.CodeLength, n), nil
}
