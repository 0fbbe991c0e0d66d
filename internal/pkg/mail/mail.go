package mail

import (
	"context"
	"io"
)

// Message is one notification email: an OTP code, a sign-in notice or a
// new-idea notice for reviewers.
type Message struct {
	// From falls back to the sender configured on the Mail implementation.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	ReplyTo  string
	// Subject may carry user input such as an idea theme; line breaks are
	// stripped before it reaches the wire.
	Subject  string
	TextBody string
	HTMLBody string
	// Headers are extra X- headers, e.g. X-Idea-ID or X-Correlation-ID, so
	// mail logs can be joined with request logs.
	Headers  map[string]string
}

// Mail sends notification emails.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
