package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendLoginCode(email, code string, ttl time.Duration) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	minutes := int(ttl.Minutes())
	subject := "Your IdeaVote login code"
	html := fmt.Sprintf(`
		<h2>Your IdeaVote Login Code</h2>
		<p>Your login code is: <strong style="font-size: 24px; color: #4CAF50;">%s</strong></p>
		<p>Enter it on the verification page to sign in.</p>
		<p>This code will expire in %d minutes. Requesting a new code invalidates this one.</p>
		<p>If you didn't try to sign in, you can ignore this email.</p>
	`, code, minutes)

	text := fmt.Sprintf("Your login code is: %s\n\nIt expires in %d minutes. Requesting a new code invalidates this one.", code, minutes)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: email}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
