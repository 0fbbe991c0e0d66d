package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shandysiswandi/ideabox/internal/notification/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
)

type ConsumeIdeaSubmittedInput struct {
	IdeaID       string `validate:"required"`
	EmployeeID   string `validate:"required"`
	EmployeeName string
	IdeaTheme    string
	Department   string
	Attachment   string
	SubmittedAt  time.Time
}

// ConsumeIdeaSubmitted emails the configured reviewers. A mail failure is
// returned so the broker can redeliver.
func (s *Usecase) ConsumeIdeaSubmitted(ctx context.Context, in ConsumeIdeaSubmittedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeIdeaSubmitted")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	reviewers := s.cfg.GetArray("modules.notification.idea_reviewers")
	if len(reviewers) == 0 {
		slog.WarnContext(ctx, "no idea reviewers configured, skipping email", "idea_id", in.IdeaID)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["idea_id"] = in.IdeaID
	data["employee_id"] = in.EmployeeID
	data["employee_name"] = in.EmployeeName
	data["idea_theme"] = in.IdeaTheme
	data["department"] = in.Department
	data["submitted_at"] = in.SubmittedAt.UTC().Format(timeLayout)
	if in.Attachment != "" {
		data["attachment"] = in.Attachment
		data["attachment_url"] = strings.TrimRight(s.cfg.GetString("app.base_url"), "/") +
			"/api/v1/ideas/attachments/" + url.PathEscape(in.Attachment)
	}

	body, err := s.renderTemplate(entity.TemplateIdeaSubmitted, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "idea_id", in.IdeaID, "error", err)
		return nil
	}

	subject := "New idea submitted"
	if in.IdeaTheme != "" {
		subject += ": " + in.IdeaTheme
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       reviewers,
		Subject:  subject,
		HTMLBody: body,
		Headers:  map[string]string{"X-Idea-ID": in.IdeaID},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send idea submitted email", "idea_id", in.IdeaID, "error", err)
		return err
	}

	return nil
}
