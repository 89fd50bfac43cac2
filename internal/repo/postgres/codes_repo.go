package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackfest/ideavote/internal/domain"
)

// CodesRepo implements otp.Store on a login_codes table keyed by email.
type CodesRepo struct {
	pool *pgxpool.Pool
}

func NewCodesRepo(pool *pgxpool.Pool) *CodesRepo {
	return &CodesRepo{pool: pool}
}

// Save upserts on email: issuing a new code replaces any pending one, so at
// most one record per address exists at all times. The attempt counter starts
// over with the new code.
func (r *CodesRepo) Save(ctx context.Context, rec domain.Code) error {
	const q = `
		INSERT INTO login_codes (email, code_hash, expires_at, attempts)
		VALUES (lower($1), $2, $3, 0)
		ON CONFLICT (email) DO UPDATE SET
			code_hash  = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			attempts   = 0`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, rec.Email, rec.CodeHash, rec.ExpiresAt)
	return err
}

func (r *CodesRepo) Find(ctx context.Context, email string) (*domain.Code, error) {
	const q = `
		SELECT email, code_hash, expires_at, attempts
		FROM login_codes
		WHERE lower(email) = lower($1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.Code
	err := r.pool.QueryRow(ctx, q, email).Scan(&rec.Email, &rec.CodeHash, &rec.ExpiresAt, &rec.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *CodesRepo) Delete(ctx context.Context, email string) error {
	const q = `DELETE FROM login_codes WHERE lower(email) = lower($1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, email)
	return err
}

func (r *CodesRepo) IncrementAttempts(ctx context.Context, email string) (int, error) {
	const q = `
		UPDATE login_codes
		SET attempts = attempts + 1
		WHERE lower(email) = lower($1)
		RETURNING attempts`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, email).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		// The record was consumed or swept in the meantime.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *CodesRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM login_codes WHERE expires_at < $1`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
