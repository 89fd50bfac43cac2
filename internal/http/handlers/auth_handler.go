package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/http/response"
	"github.com/hackfest/ideavote/internal/identity"
	"github.com/hackfest/ideavote/internal/otp"
	"github.com/hackfest/ideavote/internal/session"
	"github.com/hackfest/ideavote/pkg/events"
	"github.com/hackfest/ideavote/pkg/logger"
)

// RequestLimiter throttles code issuance; in production it is the redis
// fixed-window limiter.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type AuthHandler struct {
	Resolver *identity.Resolver
	Codes    *otp.Service
	Sessions *session.Manager
	Users    identity.UserStore
	Limiter  RequestLimiter
	Bus      events.Publisher
}

func NewAuthHandler(
	resolver *identity.Resolver,
	codes *otp.Service,
	sessions *session.Manager,
	users identity.UserStore,
	limiter RequestLimiter,
	bus events.Publisher,
) *AuthHandler {
	return &AuthHandler{
		Resolver: resolver,
		Codes:    codes,
		Sessions: sessions,
		Users:    users,
		Limiter:  limiter,
		Bus:      bus,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/otp/request", h.requestCode) // {email, role}
	r.Post("/otp/verify", h.verifyCode)   // {email, code}
	r.Post("/login", h.directLogin)       // {email, role}
	r.Post("/logout", h.logout)
	return r
}

func (h *AuthHandler) requestCode(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	role, _ := domain.ParseRole(in.Role)

	// Throttle first: a spammed address must not keep hitting the database,
	// and for new audience emails resolution registers a row.
	if h.Limiter != nil {
		ok, err := h.Limiter.Allow(r.Context(), "otp:"+in.Email)
		if err == nil && !ok {
			response.WriteDomainError(w, domain.ErrRateLimited)
			return
		}
	}

	// Resolve before issuing: a request that would be rejected at
	// verification time never gets a code.
	user, err := h.Resolver.ResolveForOTP(r.Context(), in.Email, role)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if err := h.Codes.Issue(r.Context(), user.Email); err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue login code", "error", err, "email", in.Email)
		response.InternalError(w, "Failed to issue login code")
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Login code sent to your email",
	})
}

func (h *AuthHandler) verifyCode(w http.ResponseWriter, r *http.Request) {
	var in domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.Codes.Verify(r.Context(), in.Email, in.Code); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load user after code verification", "error", err)
		response.InternalError(w, "Failed to establish session")
		return
	}
	if user == nil {
		// Identity was resolved before the code was issued, so this means
		// the user row vanished in between.
		response.WriteDomainError(w, domain.ErrNotRegistered)
		return
	}

	h.establish(w, r.Context(), user)
}

func (h *AuthHandler) directLogin(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	role, _ := domain.ParseRole(in.Role)

	user, err := h.Resolver.ResolveDirect(r.Context(), in.Email, role)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.establish(w, r.Context(), user)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		response.Unauthorized(w, "missing bearer token")
		return
	}

	if err := h.Sessions.Logout(r.Context(), strings.TrimPrefix(authz, "Bearer ")); err != nil {
		logger.ErrorContext(r.Context(), "Failed to revoke session", "error", err)
		response.InternalError(w, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// establish binds the session to the identity's stored role and reports it
// on the event bus.
func (h *AuthHandler) establish(w http.ResponseWriter, ctx context.Context, user *domain.User) {
	sess, err := h.Sessions.Establish(user)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to establish session", "error", err, "user_id", user.ID)
		response.InternalError(w, "Failed to establish session")
		return
	}

	if h.Bus != nil {
		event := events.SessionEvent{UserID: user.ID, Email: user.Email, Role: string(user.Role)}
		if err := h.Bus.Publish(ctx, events.SessionStarted, event); err != nil {
			logger.WarnContext(ctx, "Failed to publish session event", "error", err)
		}
	}

	response.WriteJSON(w, http.StatusOK, sess)
}
