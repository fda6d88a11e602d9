package worker

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
)

// EmailSender delivers enrollment notifications over SMTP.
type EmailSender struct {
	addr string
	from string
}

// NewEmailSender constructs the sender from SMTP settings.
func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
	}
}

// Name identifies the delivery channel.
func (s *EmailSender) Name() string { return "email" }

// Endpoint returns the subscription's email address, if any.
func (s *EmailSender) Endpoint(sub *models.Subscription) string {
	if sub == nil {
		return ""
	}
	return sub.Email
}

// Send delivers one notification email.
func (s *EmailSender) Send(_ context.Context, d Delivery) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Enrollment Notification for %s\r\n\r\n%s\r\n",
		s.from, d.Endpoint, d.ClassName, d.Message)
	if err := smtp.SendMail(s.addr, nil, s.from, []string{d.Endpoint}, []byte(body)); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}
