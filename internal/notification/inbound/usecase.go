package inbound

import (
	"context"

	"github.com/shandysiswandi/ideabox/internal/notification/usecase"
)

type uc interface {
	ConsumeIdeaSubmitted(ctx context.Context, in usecase.ConsumeIdeaSubmittedInput) error
	ConsumeLoginSucceeded(ctx context.Context, in usecase.ConsumeLoginSucceededInput) error
}
