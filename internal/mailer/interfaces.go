package mailer

import "time"

// Service delivers login codes. Delivery is fire-and-forget from the caller's
// point of view: a failed send never fails the surrounding flow.
type Service interface {
	SendLoginCode(email, code string, ttl time.Duration) error
}
