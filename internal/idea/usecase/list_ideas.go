package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
)

type ListIdeasInput struct {
	EmployeeID string // value already trimmed
	Size       int32
	Page       int32
}

type ListIdeasOutput struct {
	Page  int32
	Size  int32
	Total int64
	Ideas []entity.Idea
}

// ListIdeas returns submissions newest first.
func (s *Usecase) ListIdeas(ctx context.Context, in ListIdeasInput) (*ListIdeasOutput, error) {
	ctx, span := s.startSpan(ctx, "ListIdeas")
	defer span.End()

	if in.Size <= 0 || in.Size > maxListSize {
		in.Size = defaultListSize
	}
	page := max(in.Page, 1)

	ideas, total, err := s.repoDB.ListIdeas(ctx, entity.ListFilter{
		EmployeeID: in.EmployeeID,
		Offset:     int64(page-1) * int64(in.Size),
		Limit:      int64(in.Size),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list ideas", "error", err)
		return nil, goerror.WrapServer(err, "Error fetching submissions")
	}

	return &ListIdeasOutput{
		Page:  page,
		Size:  in.Size,
		Total: total,
		Ideas: ideas,
	}, nil
}
