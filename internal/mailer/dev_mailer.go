package mailer

import (
	"fmt"
	"time"

	"github.com/hackfest/ideavote/pkg/logger"
)

// DevMailer prints codes to the log and console instead of sending email.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendLoginCode(email, code string, ttl time.Duration) error {
	logger.Info("📧 [DEV MAIL] Login Code",
		"to", email,
		"code", code,
		"expires_in", ttl.String(),
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 LOGIN CODE EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: Your IdeaVote login code\n"+
		"\n"+
		"Login Code: %s\n"+
		"Expires in: %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		email, code, ttl)

	return nil
}
