package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

// IssueOTPInput carries json names so validation errors use the wire keys.
type IssueOTPInput struct {
	CorporateID string `json:"corporateId" validate:"required,max=256"`
}

// RequestOTP issues a fresh code for the identity and emails it.
func (s *Usecase) RequestOTP(ctx context.Context, in IssueOTPInput) error {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	return s.issue(ctx, in)
}

// ResendOTP behaves exactly like RequestOTP; the pending code is replaced.
func (s *Usecase) ResendOTP(ctx context.Context, in IssueOTPInput) error {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	return s.issue(ctx, in)
}

func (s *Usecase) issue(ctx context.Context, in IssueOTPInput) error {
	in.CorporateID = strings.TrimSpace(in.CorporateID)

	if err := s.validator.Validate(in); err != nil {
		s.issued.Record(ctx, "invalid")
		return goerror.NewInvalidInput(err)
	}

	ident, err := s.resolve(ctx, in.CorporateID)
	if errors.Is(err, entity.ErrIdentityNotFound) {
		slog.WarnContext(ctx, "corporate id not registered for otp", "corporate_id", in.CorporateID)
		s.issued.Record(ctx, "not_found")
		return goerror.WrapBusiness(err, "Corporate ID not found", goerror.CodeNotFound)
	}
	if err != nil {
		s.issued.Record(ctx, "error")
		return goerror.WrapServer(err, "Server error")
	}
	collection := attribute.String("collection", ident.Collection.String())

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "error", err)
		s.issued.Record(ctx, "error", collection)
		return goerror.NewServer(err)
	}

	ttl := s.otpTTL()
	challenge := entity.Challenge{
		Code:      code,
		ExpiresAt: s.clock.Now().Add(ttl),
	}

	// Unconditional overwrite: concurrent issues for one identity resolve as
	// last write wins, and an earlier in-flight email may carry a dead code.
	err = s.repoDB.SetOTP(ctx, ident.Collection, ident.CorporateID, challenge)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity vanished before otp was stored", "corporate_id", in.CorporateID)
		s.issued.Record(ctx, "not_found", collection)
		return goerror.WrapBusiness(entity.ErrIdentityNotFound, "Corporate ID not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo set otp", "corporate_id", in.CorporateID,
			"collection", ident.Collection.String(), "error", err)
		s.issued.Record(ctx, "error", collection)
		return goerror.WrapServer(errors.Join(entity.ErrStorage, err), "Server error")
	}

	// The stored code is kept when delivery fails.
	if err := s.deliver(ctx, ident.Email, code, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "corporate_id", in.CorporateID, "error", err)
		s.issued.Record(ctx, "delivery_failed", collection)
		return goerror.WrapServer(errors.Join(entity.ErrDelivery, err), "Failed to send OTP")
	}

	s.issued.Record(ctx, "issued", collection)
	return nil
}

// deliver sends the code under one overall timeout with bounded retry. Only
// delivery is retried so a single issue writes the store exactly once.
func (s *Usecase) deliver(ctx context.Context, to, code string, ttl time.Duration) error {
	ctx, span := s.startSpan(ctx, "DeliverOTP")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	defer cancel()

	backoff := retry.WithMaxRetries(s.deliveryRetries(), retry.NewFibonacci(defaultDeliveryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.notifier.SendOTP(ctx, to, code, ttl)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		slog.WarnContext(ctx, "otp delivery attempt failed", "error", err)
		return retry.RetryableError(err)
	})
}
