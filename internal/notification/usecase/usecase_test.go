package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func newUsecase(t *testing.T, yaml string, m *fakeMail) *Usecase {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	uc, err := NewNotification(Dependency{
		RepoMail:   m,
		Config:     cfg,
		Clock:      clock.NewManual(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})
	if err != nil {
		t.Fatalf("NewNotification() error = %v", err)
	}
	return uc
}

const reviewersConfig = `
app:
  base_url: https://ideas.corp.example/
mail:
  company_name: Acme
  support_email: it@corp.example
modules:
  notification:
    idea_reviewers: [lead@corp.example, ops@corp.example]
`

func TestConsumeIdeaSubmitted(t *testing.T) {
	// Arrange
	m := &fakeMail{}
	uc := newUsecase(t, reviewersConfig, m)

	// Act
	err := uc.ConsumeIdeaSubmitted(context.Background(), ConsumeIdeaSubmittedInput{
		IdeaID:       "idea-1",
		EmployeeID:   "E42",
		EmployeeName: "Asha <Ops>",
		IdeaTheme:    "Cost",
		Attachment:   "E42_plan v2.pdf",
		SubmittedAt:  time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	})

	// Assert
	if err != nil {
		t.Fatalf("ConsumeIdeaSubmitted() error = %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(m.sent))
	}
	msg := m.sent[0]
	if len(msg.To) != 2 || msg.To[0] != "lead@corp.example" || msg.Subject != "New idea submitted: Cost" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Headers["X-Idea-ID"] != "idea-1" {
		t.Fatalf("headers = %v, want X-Idea-ID idea-1", msg.Headers)
	}
	for _, want := range []string{
		"Asha &lt;Ops&gt;",
		"https://ideas.corp.example/api/v1/ideas/attachments/E42_plan%20v2.pdf",
		"01 Jun 2026 10:00 UTC",
		"Acme",
	} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.HTMLBody)
		}
	}
}

func TestConsumeIdeaSubmittedSkips(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		in   ConsumeIdeaSubmittedInput
	}{
		{name: "no reviewers", yaml: "app:\n  name: ideabox\n", in: ConsumeIdeaSubmittedInput{IdeaID: "i", EmployeeID: "E1"}},
		{name: "invalid payload", yaml: reviewersConfig, in: ConsumeIdeaSubmittedInput{EmployeeID: "E1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := &fakeMail{}
			uc := newUsecase(t, tt.yaml, m)

			// Act
			err := uc.ConsumeIdeaSubmitted(context.Background(), tt.in)

			// Assert
			if err != nil || len(m.sent) != 0 {
				t.Fatalf("error = %v, sent = %d", err, len(m.sent))
			}
		})
	}
}

func TestConsumeIdeaSubmittedMailFailure(t *testing.T) {
	// Arrange
	m := &fakeMail{err: errors.New("smtp down")}
	uc := newUsecase(t, reviewersConfig, m)

	// Act
	err := uc.ConsumeIdeaSubmitted(context.Background(), ConsumeIdeaSubmittedInput{IdeaID: "i", EmployeeID: "E1"})

	// Assert
	if err == nil {
		t.Fatal("expected mail error to be returned for redelivery")
	}
}

func TestConsumeLoginSucceeded(t *testing.T) {
	// Arrange
	m := &fakeMail{}
	uc := newUsecase(t, reviewersConfig, m)

	// Act
	err := uc.ConsumeLoginSucceeded(context.Background(), ConsumeLoginSucceededInput{
		CorporateID: "EMP001",
		Email:       "emp001@corp.example",
		Role:        "admin",
		At:          time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC),
	})

	// Assert
	if err != nil {
		t.Fatalf("ConsumeLoginSucceeded() error = %v", err)
	}
	if len(m.sent) != 1 || m.sent[0].To[0] != "emp001@corp.example" {
		t.Fatalf("sent = %+v", m.sent)
	}
	body := m.sent[0].HTMLBody
	if !strings.Contains(body, "EMP001") || !strings.Contains(body, "as admin") || !strings.Contains(body, "it@corp.example") {
		t.Fatalf("body = %s", body)
	}
}

func TestConsumeLoginSucceededInvalidEmail(t *testing.T) {
	// Arrange
	m := &fakeMail{}
	uc := newUsecase(t, reviewersConfig, m)

	// Act
	err := uc.ConsumeLoginSucceeded(context.Background(), ConsumeLoginSucceededInput{CorporateID: "EMP001", Email: "not-an-email"})

	// Assert
	if err != nil || len(m.sent) != 0 {
		t.Fatalf("error = %v, sent = %d", err, len(m.sent))
	}
}
