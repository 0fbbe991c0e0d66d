package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
)

type recordingMail struct {
	msgs []mail.Message
	err  error
}

func (r *recordingMail) Send(_ context.Context, msg mail.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingMail) Close() error { return nil }

func TestSendOTP(t *testing.T) {
	// Arrange
	client := &recordingMail{}
	m := New(client, "no-reply@corp.example", instrument.NewNoop())

	// Act
	err := m.SendOTP(context.Background(), "emp001@corp.example", "4821", 5*time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}
	got := client.msgs[0]
	if got.Subject != "Your OTP Code" {
		t.Fatalf("subject = %q", got.Subject)
	}
	if got.TextBody != "Your OTP is 4821. It expires in 5 minutes." {
		t.Fatalf("body = %q", got.TextBody)
	}
	if len(got.To) != 1 || got.To[0] != "emp001@corp.example" || got.From != "no-reply@corp.example" {
		t.Fatalf("addresses = from %q to %v", got.From, got.To)
	}
}

func TestBodyOTP(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{ttl: time.Minute, want: "Your OTP is 1000. It expires in 1 minute."},
		{ttl: 10 * time.Minute, want: "Your OTP is 1000. It expires in 10 minutes."},
		{ttl: 90 * time.Second, want: "Your OTP is 1000. It expires in 90 seconds."},
	}

	for _, tt := range tests {
		if got := bodyOTP("1000", tt.ttl); got != tt.want {
			t.Fatalf("bodyOTP(%v) = %q, want %q", tt.ttl, got, tt.want)
		}
	}
}

func TestSendOTPPropagatesError(t *testing.T) {
	// Arrange
	boom := errors.New("smtp down")
	m := New(&recordingMail{err: boom}, "", instrument.NewNoop())

	// Act
	err := m.SendOTP(context.Background(), "a@corp.example", "1234", 5*time.Minute)

	// Assert
	if !errors.Is(err, boom) {
		t.Fatalf("SendOTP() error = %v, want %v", err, boom)
	}
}
