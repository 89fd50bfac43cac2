package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/pkg/logger"
)

// UserStore is the subset of the user repository the resolver needs.
// Find returns (nil, nil) when no user exists for the email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, email string, role domain.Role) (*domain.User, error)
}

// Resolver maps (email, claimed role) to a persistent identity before any
// code is issued. A request that would fail at verification time must fail
// here instead.
type Resolver struct {
	users         UserStore
	allowedDomain string
}

func NewResolver(users UserStore, allowedDomain string) *Resolver {
	return &Resolver{users: users, allowedDomain: strings.ToLower(allowedDomain)}
}

// ResolveForOTP validates the (email, role) pair and returns the identity a
// verified code will authenticate. Judges and admins must be provisioned in
// advance with exactly the claimed role. Audience members self-register on
// first request; an existing user claiming audience must actually be one.
func (r *Resolver) ResolveForOTP(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if err := r.checkDomain(email); err != nil {
		return nil, err
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	switch role {
	case domain.RoleJudge, domain.RoleAdmin:
		if user == nil {
			return nil, domain.ErrNotRegistered
		}
		if user.Role != role {
			return nil, domain.ErrRoleMismatch
		}
		return user, nil

	case domain.RoleAudience:
		if user == nil {
			created, err := r.users.Create(ctx, email, domain.RoleAudience)
			if err != nil {
				return nil, fmt.Errorf("failed to register audience user: %w", err)
			}
			logger.InfoContext(ctx, "Registered audience user", "email", email, "user_id", created.ID)
			return created, nil
		}
		if user.Role != domain.RoleAudience {
			return nil, domain.ErrRoleMismatch
		}
		return user, nil

	default:
		return nil, fmt.Errorf("invalid role %q", role)
	}
}

// ResolveDirect backs the lower-security login shortcut: the email must
// already exist with exactly the claimed role. Unlike the audience OTP path
// it never creates a user.
func (r *Resolver) ResolveDirect(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if err := r.checkDomain(email); err != nil {
		return nil, err
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotRegistered
	}
	if user.Role != role {
		return nil, domain.ErrRoleMismatch
	}
	return user, nil
}

func (r *Resolver) checkDomain(email string) error {
	if r.allowedDomain == "" {
		return nil
	}
	if !strings.HasSuffix(strings.ToLower(email), r.allowedDomain) {
		return domain.ErrInvalidDomain
	}
	return nil
}
