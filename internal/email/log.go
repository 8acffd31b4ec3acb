package email

import (
	"context"

	"github.com/dannyswat/outreach/internal/logger"
)

// LogSender logs emails instead of sending them.
// Used for dry runs and development.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a new log-based email sender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("log_sender")}
}

// Send logs the email details.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	event := s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.TextBody))
	if msg.Attachment != nil {
		event = event.Str("attachment", msg.Attachment.Filename)
	}
	event.Msg("email not sent (dry run)")
	return nil
}

// Verify always succeeds.
func (s *LogSender) Verify(context.Context) error {
	return nil
}
