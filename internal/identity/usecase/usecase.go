package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/clock"
	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/otp"
	"github.com/shandysiswandi/ideabox/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL          = 300 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
	defaultDeliveryBackoff = 200 * time.Millisecond
)

type LoginSucceededEvent struct {
	CorporateID string
	Email       string
	Role        string
	Collection  string
	At          time.Time
}

type repoMessaging interface {
	PublishLoginSucceeded(ctx context.Context, msg LoginSucceededEvent) error
}

// repoDB returns goerror.ErrNotFound when no record matches.
type repoDB interface {
	FindByCorporateID(ctx context.Context, c entity.Collection, corporateID string) (*entity.Identity, error)
	FindByCorporateIDAndCode(ctx context.Context, c entity.Collection, corporateID, code string) (*entity.Identity, error)
	SetOTP(ctx context.Context, c entity.Collection, corporateID string, ch entity.Challenge) error
	ClearOTP(ctx context.Context, c entity.Collection, corporateID string) error
}

type notifier interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	notifier      notifier
	generator     otp.Generator
	validator     validator.Validator
	cfg           config.Config
	clock         clock.Clocker
	ins           instrument.Instrumentation

	issued   *instrument.Outcomes
	verified *instrument.Outcomes
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Notifier      notifier
	Generator     otp.Generator
	Validator     validator.Validator
	Config        config.Config
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		generator:     dep.Generator,
		validator:     dep.Validator,
		cfg:           dep.Config,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		issued: instrument.NewOutcomes(dep.Instrument, "identity.usecase",
			"ideabox.otp.issue", "OTP issue and resend attempts by result"),
		verified: instrument.NewOutcomes(dep.Instrument, "identity.usecase",
			"ideabox.otp.verify", "OTP verifications by result"),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.identity.otp_ttl_seconds"); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

func (s *Usecase) deliveryTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.delivery_timeout_seconds"); d > 0 {
		return d
	}
	return defaultDeliveryTimeout
}

func (s *Usecase) deliveryRetries() uint64 {
	n := s.cfg.GetInt("modules.identity.delivery_max_retries")
	if n < 0 {
		return 0
	}
	return uint64(n)
}
