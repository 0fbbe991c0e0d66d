package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/identity/inbound"
	"github.com/shandysiswandi/ideabox/internal/identity/outbound/db"
	"github.com/shandysiswandi/ideabox/internal/identity/outbound/email"
	"github.com/shandysiswandi/ideabox/internal/identity/outbound/mq"
	"github.com/shandysiswandi/ideabox/internal/identity/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/pkg/otp"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	otpDigits = 4
)

var ErrStoreNotConfigured = errors.New("identity: store for selected driver is not configured")

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	MongoDB    *mongo.Database            // required when database.identity.driver is mongo
	DBConn     *pgxpool.Pool              // required when database.identity.driver is postgres
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

type store interface {
	FindByCorporateID(ctx context.Context, c entity.Collection, corporateID string) (*entity.Identity, error)
	FindByCorporateIDAndCode(ctx context.Context, c entity.Collection, corporateID, code string) (*entity.Identity, error)
	SetOTP(ctx context.Context, c entity.Collection, corporateID string, ch entity.Challenge) error
	ClearOTP(ctx context.Context, c entity.Collection, corporateID string) error
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB, err := newStore(dep)
	if err != nil {
		return err
	}

	gen, err := otp.NewNumeric(otpDigits)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Notifier:      email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Instrument),
		Generator:     gen,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newStore(dep Dependency) (store, error) {
	driver := strings.ToLower(strings.TrimSpace(dep.Config.GetString("database.identity.driver")))
	if driver == "" {
		driver = DriverMongo
	}

	switch driver {
	case DriverMongo:
		if dep.MongoDB == nil {
			return nil, ErrStoreNotConfigured
		}
		s := db.NewMongo(dep.MongoDB, dep.Instrument)
		if err := s.EnsureIndexes(dep.Ctx); err != nil {
			return nil, fmt.Errorf("identity: ensure mongo indexes: %w", err)
		}
		return s, nil
	case DriverPostgres:
		if dep.DBConn == nil {
			return nil, ErrStoreNotConfigured
		}
		s := db.NewPostgres(dep.DBConn, dep.Instrument)
		if err := s.EnsureSchema(dep.Ctx); err != nil {
			return nil, fmt.Errorf("identity: ensure postgres schema: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("identity: unknown store driver %q", driver)
	}
}
