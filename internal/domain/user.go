package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of participant roles. It is assigned once, at the
// first successful registration, and never changed by a login.
type Role string

const (
	RoleJudge    Role = "judge"
	RoleAudience Role = "audience"
	RoleAdmin    Role = "admin"
)

var validRoles = map[Role]bool{
	RoleJudge:    true,
	RoleAudience: true,
	RoleAdmin:    true,
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return validRoles[r]
}

// CanScore reports whether the role is allowed to submit score deltas.
func (r Role) CanScore() bool {
	return r == RoleJudge || r == RoleAudience
}

// dashboardPaths maps each role to its post-login destination. The lookup
// table replaces string-built route names.
var dashboardPaths = map[Role]string{
	RoleJudge:    "/dashboard/judge",
	RoleAudience: "/dashboard/audience",
	RoleAdmin:    "/dashboard/admin",
}

func (r Role) DashboardPath() string {
	return dashboardPaths[r]
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the authenticated binding returned to a client after either
// login path succeeds. Role is always the stored role, never the claimed one.
type Session struct {
	Token     string `json:"token"`
	Role      Role   `json:"role"`
	Redirect  string `json:"redirect"`
	ExpiresIn int64  `json:"expires_in"`
}

type LoginRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !IsValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if _, err := ParseRole(r.Role); err != nil {
		return err
	}
	return nil
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r *VerifyRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}

	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}

	local, dom := parts[0], parts[1]
	return len(local) > 0 && len(dom) > 2 && strings.Contains(dom, ".")
}
