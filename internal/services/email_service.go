package services

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"passkeeper/internal/config"
	"passkeeper/internal/logging"
)

// Notifier delivers a plain-text message to one address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	dryRun bool
	log    logging.Logger
	send   func(m *gomail.Message) error
}

func NewEmailService(cfg config.EmailConfig, log logging.Logger) Notifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	s := &emailService{
		dialer: dialer,
		from:   from,
		dryRun: cfg.DryRun,
		log:    log.With("module", "email"),
	}
	s.send = func(m *gomail.Message) error { return s.dialer.DialAndSend(m) }
	return s
}

func (s *emailService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.dryRun {
		s.log.Info(ctx, "email dry-run", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type message struct {
	subject string
	body    string
}

func confirmationMessage(code string) message {
	return message{
		subject: "Please confirm your email address",
		body:    fmt.Sprintf("Your confirmation code is %s", code),
	}
}

func twoFactorMessage(code string) message {
	return message{
		subject: "Your 2FA Code",
		body:    fmt.Sprintf("Your 2FA code is: %s", code),
	}
}

func resetMessage(link string, ttl time.Duration) message {
	return message{
		subject: "Password Reset Request",
		body: fmt.Sprintf(`Hello,

You requested to reset your password. Click the link below to proceed:
%s

If you didn't request this, please ignore this email.

This link will expire in %d minutes.
`, link, int(ttl.Minutes())),
	}
}
