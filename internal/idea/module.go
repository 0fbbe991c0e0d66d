package idea

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/ideabox/internal/idea/inbound"
	"github.com/shandysiswandi/ideabox/internal/idea/outbound/db"
	"github.com/shandysiswandi/ideabox/internal/idea/outbound/mq"
	"github.com/shandysiswandi/ideabox/internal/idea/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/idempotency"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
	"github.com/shandysiswandi/ideabox/internal/pkg/storage"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	FormDB      *mongo.Database            `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Idempotency idempotency.Idempotency    // optional; without it Idempotency-Key is ignored
	Messaging   messaging.Messaging        `validate:"required"`
	Router      *router.Router             `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewMongo(dep.FormDB, dep.Instrument)
	if err := repoDB.EnsureIndexes(dep.Ctx); err != nil {
		return fmt.Errorf("idea: ensure mongo indexes: %w", err)
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Storage:       dep.Storage,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, router.DefaultMultipartMemory)

	return nil
}
