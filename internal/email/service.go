package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/serviceloop/marketplace-api/pkg/logger"
)

// Service delivers transactional email. Delivery is fire and forget from
// the caller's perspective; failures are logged, never propagated into the
// primary operation.
type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendBookingConfirmation(ctx context.Context, to string, bookingRef string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewSMTPService(cfg Config, log *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: log,
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to the marketplace. You can now browse services and book providers.", name)
	return s.SendCustom(ctx, to, "Welcome", body)
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, bookingRef string) error {
	body := fmt.Sprintf("Your booking %s has been received and is pending confirmation.", bookingRef)
	return s.SendCustom(ctx, to, "Booking received", body)
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
