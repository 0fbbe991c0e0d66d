package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/idempotency"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
)

type AttachmentInput struct {
	Body        io.Reader
	Filename    string
	Size        int64
	ContentType string
}

type SubmitIdeaInput struct {
	IdempotencyKey string `validate:"omitempty,max=128"`

	EmployeeName          string `validate:"max=200"`
	EmployeeID            string `validate:"max=64"`
	EmployeeFunction      string `validate:"max=200"`
	Location              string `validate:"max=200"`
	IdeaTheme             string `validate:"max=200"`
	Department            string `validate:"max=200"`
	BenefitsCategory      string `validate:"max=200"`
	IdeaDescription       string `validate:"max=10000"`
	ImpactedProcess       string `validate:"max=2000"`
	ExpectedBenefitsValue string `validate:"max=2000"`

	Attachment *AttachmentInput `validate:"-"`
}

type SubmitIdeaOutput struct {
	ID         string
	Attachment *string
}

func (in *SubmitIdeaInput) normalize() {
	for _, f := range []*string{
		&in.IdempotencyKey, &in.EmployeeName, &in.EmployeeID, &in.EmployeeFunction,
		&in.Location, &in.IdeaTheme, &in.Department, &in.BenefitsCategory,
		&in.IdeaDescription, &in.ImpactedProcess, &in.ExpectedBenefitsValue,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// SubmitIdea stores the optional attachment, then the record. With an
// idempotency key a completed submission is rejected as a duplicate.
func (s *Usecase) SubmitIdea(ctx context.Context, in SubmitIdeaInput) (*SubmitIdeaOutput, error) {
	ctx, span := s.startSpan(ctx, "SubmitIdea")
	defer span.End()

	in.normalize()

	if in.EmployeeID == "" {
		return nil, goerror.WrapBusiness(entity.ErrEmployeeIDRequired, "Employee ID is required", goerror.CodeBadRequest)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Attachment != nil && in.Attachment.Size > s.attachmentMaxSize() {
		slog.WarnContext(ctx, "attachment rejected by size", "employee_id", in.EmployeeID, "size", in.Attachment.Size)
		return nil, goerror.NewInvalidInput(nil, "attachment",
			"attachment must not exceed "+strconv.FormatInt(s.attachmentMaxSize(), 10)+" bytes")
	}

	if in.IdempotencyKey == "" || s.idemp == nil {
		return s.submit(ctx, in)
	}

	opts := []idempotency.Option{idempotency.WithReleaseOnFailure()}
	if ttl := s.cfg.GetSecond("modules.idea.idempotency_ttl_seconds"); ttl > 0 {
		opts = append(opts, idempotency.WithStateTTL(ttl))
	}

	var out *SubmitIdeaOutput
	err := s.idemp.Exec(ctx, "idea_submit:"+in.IdempotencyKey, func(ctx context.Context) error {
		var err error
		out, err = s.submit(ctx, in)
		return err
	}, opts...)

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.WarnContext(ctx, "duplicate idea submission", "employee_id", in.EmployeeID)
		return nil, goerror.NewBusiness("Form already submitted", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyInProgress), errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "idea submission already in flight", "employee_id", in.EmployeeID)
		return nil, goerror.NewBusiness("Form submission is already in progress", goerror.CodeConflict)
	case err != nil:
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to track idea submission", "employee_id", in.EmployeeID, "error", err)
		return nil, goerror.WrapServer(err, "Error submitting form")
	}

	return out, nil
}

func (s *Usecase) submit(ctx context.Context, in SubmitIdeaInput) (*SubmitIdeaOutput, error) {
	idea := entity.Idea{
		ID:                    s.uuid.Generate(),
		EmployeeName:          in.EmployeeName,
		EmployeeID:            in.EmployeeID,
		EmployeeFunction:      in.EmployeeFunction,
		Location:              in.Location,
		IdeaTheme:             in.IdeaTheme,
		Department:            in.Department,
		BenefitsCategory:      in.BenefitsCategory,
		IdeaDescription:       in.IdeaDescription,
		ImpactedProcess:       in.ImpactedProcess,
		ExpectedBenefitsValue: in.ExpectedBenefitsValue,
		SubmittedAt:           s.clock.Now(),
	}

	if in.Attachment != nil {
		key := entity.AttachmentKey(in.EmployeeID, in.Attachment.Filename)
		if _, err := s.storage.PutObject(ctx, s.bucket(), key, in.Attachment.Body, storage.PutOptions{
			Size:        in.Attachment.Size,
			ContentType: in.Attachment.ContentType,
			Metadata:    map[string]string{"employee-id": in.EmployeeID, "idea-id": idea.ID},
		}); err != nil {
			slog.ErrorContext(ctx, "failed to store idea attachment", "employee_id", in.EmployeeID, "key", key, "error", err)
			return nil, goerror.WrapServer(err, "Error submitting form")
		}
		idea.Attachment = &key
	}

	if err := s.repoDB.CreateIdea(ctx, idea); err != nil {
		slog.ErrorContext(ctx, "failed to repo create idea", "employee_id", in.EmployeeID, "error", err)
		if idea.Attachment != nil {
			if derr := s.storage.DeleteObject(context.WithoutCancel(ctx), s.bucket(), *idea.Attachment); derr != nil {
				slog.ErrorContext(ctx, "failed to remove orphan attachment", "key", *idea.Attachment, "error", derr)
			}
		}
		return nil, goerror.WrapServer(err, "Error submitting form")
	}

	var attachment string
	if idea.Attachment != nil {
		attachment = *idea.Attachment
	}
	if err := s.repoMessaging.PublishIdeaSubmitted(ctx, IdeaSubmittedEvent{
		IdeaID:       idea.ID,
		EmployeeID:   idea.EmployeeID,
		EmployeeName: idea.EmployeeName,
		IdeaTheme:    idea.IdeaTheme,
		Department:   idea.Department,
		Attachment:   attachment,
		SubmittedAt:  idea.SubmittedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish idea submitted", "idea_id", idea.ID, "error", err)
	}

	return &SubmitIdeaOutput{ID: idea.ID, Attachment: idea.Attachment}, nil
}
