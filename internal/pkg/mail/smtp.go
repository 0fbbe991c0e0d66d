package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/smtp"
	"slices"
	"strings"
	"time"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
)

// SMTP is a Mail implementation backed by net/smtp.
type SMTP struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now         func() time.Time
}

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		defaultFrom: cfg.From,
		auth:        auth,
		send:        smtp.SendMail,
		now:         time.Now,
	}, nil
}

// Send delivers a message over SMTP.
//
// net/smtp has no context support, so the transfer runs in its own goroutine
// and Send returns ctx.Err() as soon as ctx is done. The abandoned transfer
// finishes or fails on its own.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)
	if len(recipients) == 0 {
		return ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return ErrSMTPNoSender
	}

	raw := compose(from, msg, s.now())

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, from, recipients, raw)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}

func compose(from string, msg Message, at time.Time) []byte {
	body, contentType := buildBody(msg)

	headers := []string{
		"From: " + headerValue(from),
		"To: " + headerValue(strings.Join(msg.To, ", ")),
	}
	if len(msg.Cc) > 0 {
		headers = append(headers, "Cc: "+headerValue(strings.Join(msg.Cc, ", ")))
	}
	if msg.ReplyTo != "" {
		headers = append(headers, "Reply-To: "+headerValue(msg.ReplyTo))
	}
	headers = append(headers,
		"Subject: "+headerValue(msg.Subject),
		"Date: "+at.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: "+contentType,
	)

	extra := make([]string, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		if name := headerName(k); name != "" {
			extra = append(extra, name+": "+headerValue(v))
		}
	}
	slices.Sort(extra)
	headers = append(headers, extra...)

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

// headerValue folds line breaks into spaces so user input cannot add headers.
func headerValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// headerName accepts only X- names made of letters, digits and dashes.
func headerName(k string) string {
	k = strings.TrimSpace(k)
	if len(k) < 3 || !strings.EqualFold(k[:2], "x-") {
		return ""
	}
	for _, r := range k {
		if !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ""
		}
	}
	return k
}

func buildBody(msg Message) (body string, contentType string) {
	if msg.HTMLBody != "" && msg.TextBody != "" {
		boundary := multipartBoundary()
		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		for _, part := range []struct{ ct, content string }{
			{"text/plain; charset=UTF-8", msg.TextBody},
			{"text/html; charset=UTF-8", msg.HTMLBody},
		} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s\r\n\r\n%s\r\n", boundary, part.ct, part.content)
		}
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), "multipart/alternative; boundary=" + boundary
	}

	if msg.HTMLBody != "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	return msg.TextBody, "text/plain; charset=UTF-8"
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "ideabox-boundary-fallback"
	}
	return "ideabox-boundary-" + hex.EncodeToString(b[:])
}
