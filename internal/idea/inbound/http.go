package inbound

import (
	"context"

	"github.com/shandysiswandi/ideabox/internal/idea/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
)

type uc interface {
	SubmitIdea(ctx context.Context, in usecase.SubmitIdeaInput) (*usecase.SubmitIdeaOutput, error)
	ListIdeas(ctx context.Context, in usecase.ListIdeasInput) (*usecase.ListIdeasOutput, error)
	GetAttachment(ctx context.Context, in usecase.GetAttachmentInput) (*usecase.GetAttachmentOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, maxMemory int64) {
	end := &HTTPEndpoint{uc: uc, maxMemory: maxMemory}

	r.POST("/api/v1/ideas", end.SubmitIdea)
	r.GET("/api/v1/ideas", end.ListIdeas)
	r.GETStream("/api/v1/ideas/attachments/:key", end.DownloadAttachment)
}
