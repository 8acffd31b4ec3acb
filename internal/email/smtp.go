package email

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the configuration for the SMTP email sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// SenderAddress is the "From" address; defaults to Username
	SenderAddress string
	// SenderName is the display name for the sender
	SenderName string
	Timeout    time.Duration
}

// SMTPSender implements Sender over SMTP with a mandatory STARTTLS upgrade
// and PLAIN authentication.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp: host and port are required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp: sender email and password are required")
	}
	if cfg.SenderAddress == "" {
		cfg.SenderAddress = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) client() (*mail.Client, error) {
	return mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(s.cfg.Timeout),
	)
}

// Send sends an email through one SMTP session.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := newMsg(s.cfg.SenderName, s.cfg.SenderAddress, msg)
	if err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp: failed to create client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

// Verify connects, upgrades to TLS, authenticates and disconnects.
func (s *SMTPSender) Verify(ctx context.Context) error {
	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp: failed to create client: %w", err)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return classifySMTPError(err)
	}
	if err := c.Close(); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

// classifySMTPError maps SMTP reply codes 530, 534 and 535 to authentication failures
func classifySMTPError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return &TransportError{Provider: "smtp", Auth: true, Err: err}
		}
	}
	return &TransportError{Provider: "smtp", Err: err}
}
