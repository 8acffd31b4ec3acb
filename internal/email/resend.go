package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a new ResendSender with the given API key and from address.
func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend: api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("resend: sender address is required")
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}, nil
}

// Send sends a single email via Resend.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.TextBody,
		Html:    msg.HTMLBody,
	}
	if a := msg.Attachment; a != nil {
		params.Attachments = []*resend.Attachment{{
			Content:     a.Data,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		}}
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return &TransportError{Provider: "resend", Err: err}
	}
	return nil
}
