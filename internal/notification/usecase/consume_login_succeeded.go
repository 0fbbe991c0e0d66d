package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/ideabox/internal/notification/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
)

type ConsumeLoginSucceededInput struct {
	CorporateID string `validate:"required"`
	Email       string `validate:"required,email"`
	Role        string
	At          time.Time
}

// ConsumeLoginSucceeded sends a sign-in notice to the identity's mailbox.
func (s *Usecase) ConsumeLoginSucceeded(ctx context.Context, in ConsumeLoginSucceededInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeLoginSucceeded")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["corporate_id"] = in.CorporateID
	data["role"] = in.Role
	data["at"] = in.At.UTC().Format(timeLayout)

	body, err := s.renderTemplate(entity.TemplateLoginSucceeded, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "corporate_id", in.CorporateID, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  "New sign-in to your account",
		HTMLBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send sign-in notice", "corporate_id", in.CorporateID, "error", err)
		return err
	}

	return nil
}
