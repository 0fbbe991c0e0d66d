package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/ideabox/internal/idea/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/idempotency"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultAttachmentMaxSize int64 = 10 << 20
	defaultListSize          int32 = 20
	maxListSize              int32 = 100
)

type IdeaSubmittedEvent struct {
	IdeaID       string
	EmployeeID   string
	EmployeeName string
	IdeaTheme    string
	Department   string
	Attachment   string
	SubmittedAt  time.Time
}

type repoMessaging interface {
	PublishIdeaSubmitted(ctx context.Context, msg IdeaSubmittedEvent) error
}

type repoDB interface {
	CreateIdea(ctx context.Context, idea entity.Idea) error
	ListIdeas(ctx context.Context, filter entity.ListFilter) ([]entity.Idea, int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	storage       storage.Storage
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Storage       storage.Storage
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		storage:       dep.Storage,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("idea.usecase").Start(ctx, name)
}

func (s *Usecase) bucket() string {
	return s.cfg.GetString("modules.idea.attachment_bucket")
}

func (s *Usecase) attachmentMaxSize() int64 {
	if n := s.cfg.GetInt64("modules.idea.attachment_max_size_bytes"); n > 0 {
		return n
	}
	return defaultAttachmentMaxSize
}
