package email

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/wneessen/go-mail"
)

// newMsg builds the MIME message shared by the SMTP and Gmail API senders:
// text/plain with an optional HTML alternative and an optional attachment.
// go-mail picks the transfer encoding and encodes non-ASCII headers.
func newMsg(senderName, senderAddress string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if senderName != "" {
		if err := m.FromFormat(senderName, senderAddress); err != nil {
			return nil, fmt.Errorf("invalid sender address: %w", err)
		}
	} else if err := m.From(senderAddress); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}
	if a := msg.Attachment; a != nil {
		var opts []mail.FileOption
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}

// rawMessage serializes m to the base64url form the Gmail API expects in Message.Raw
func rawMessage(m *mail.Msg) (string, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize message: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
