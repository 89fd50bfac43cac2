package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackfest/ideavote/internal/domain"
)

type Claims struct {
	UserID int64       `json:"uid"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Revoker remembers ended sessions until their tokens would have expired
// anyway. A nil check result means the session is still live.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Manager mints and validates role-bound session tokens. The role baked into
// a token is always the identity's stored role; the role a client claimed on
// the login form never reaches this layer.
type Manager struct {
	secret  string
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration, revoker Revoker) *Manager {
	return &Manager{
		secret:  secret,
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}
}

// WithClock overrides the clock. Test hook.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Establish turns a resolved identity into an authenticated session.
func (m *Manager) Establish(user *domain.User) (*domain.Session, error) {
	now := m.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Audience:  []string{"ideavote"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &domain.Session{
		Token:     signed,
		Role:      user.Role,
		Redirect:  user.Role.DashboardPath(),
		ExpiresIn: int64(m.ttl.Seconds()),
	}, nil
}

// Parse validates a token and checks it has not been revoked.
func (m *Manager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrSessionRevoked
		}
	}

	return claims, nil
}

// Logout revokes the token for its remaining lifetime.
func (m *Manager) Logout(ctx context.Context, tokenString string) error {
	claims, err := m.Parse(ctx, tokenString)
	if err != nil {
		// Already invalid or revoked; logout is idempotent.
		return nil
	}
	if m.revoker == nil || claims.ID == "" {
		return nil
	}

	remaining := claims.ExpiresAt.Time.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, remaining)
}
