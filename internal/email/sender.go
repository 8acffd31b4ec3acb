package email

import (
	"context"
	"errors"
	"fmt"
)

// Sender is the interface that all email providers must implement.
// This abstraction allows swapping email providers (SMTP, Gmail API, Resend)
// without changing business logic.
type Sender interface {
	// Send delivers one message to one recipient.
	Send(ctx context.Context, msg Message) error
}

// Verifier is implemented by senders that can check their connection and
// credentials without delivering a message.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Message represents an email message to be sent.
type Message struct {
	To         string      // recipient email address
	Subject    string      // email subject
	TextBody   string      // plain-text body
	HTMLBody   string      // optional HTML alternative
	Attachment *Attachment // optional file attachment
}

// Attachment is a file sent with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Transport error kinds
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrTransport      = errors.New("transport failure")
)

// TransportError reports a failed delivery, distinguishing rejected
// credentials from every other transport failure.
type TransportError struct {
	Provider string
	Auth     bool
	Err      error
}

func (e *TransportError) Error() string {
	kind := ErrTransport
	if e.Auth {
		kind = ErrAuthentication
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Auth {
		return []error{ErrAuthentication, e.Err}
	}
	return []error{ErrTransport, e.Err}
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
