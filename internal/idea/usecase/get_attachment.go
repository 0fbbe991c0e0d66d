package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
)

type GetAttachmentInput struct {
	Key string `validate:"required,max=512"`
}

// GetAttachmentOutput holds an open object; the caller closes Body.
type GetAttachmentOutput struct {
	Body        io.ReadCloser
	Key         string
	ContentType string
	Size        int64
}

func (s *Usecase) GetAttachment(ctx context.Context, in GetAttachmentInput) (*GetAttachmentOutput, error) {
	ctx, span := s.startSpan(ctx, "GetAttachment")
	defer span.End()

	in.Key = strings.TrimSpace(in.Key)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	body, info, err := s.storage.GetObject(ctx, s.bucket(), in.Key)
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		slog.WarnContext(ctx, "attachment not found", "key", in.Key)
		return nil, goerror.WrapBusiness(entity.ErrAttachmentNotFound, "Attachment not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get attachment", "key", in.Key, "error", err)
		return nil, goerror.WrapServer(err, "Error fetching attachment")
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &GetAttachmentOutput{
		Body:        body,
		Key:         in.Key,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}
