package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type VerifyOTPInput struct {
	CorporateID string `json:"corporateId" validate:"required,max=256"`
	OTP         string `json:"otp"         validate:"required,max=16"`
}

type VerifyOTPOutput struct {
	// Role is empty when modules.identity.verify_return_role is off.
	Role string
}

// VerifyOTP consumes a pending code. A wrong code and a missing challenge are
// indistinguishable to the caller. Expired codes stay stored until the next
// issue replaces them.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.CorporateID = strings.TrimSpace(in.CorporateID)
	in.OTP = strings.TrimSpace(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		s.verified.Record(ctx, "invalid")
		return nil, goerror.NewInvalidInput(err)
	}

	ident, err := s.resolveByCode(ctx, in.CorporateID, in.OTP)
	if errors.Is(err, entity.ErrIdentityNotFound) {
		slog.WarnContext(ctx, "otp did not match any identity", "corporate_id", in.CorporateID)
		s.verified.Record(ctx, "mismatch")
		return nil, goerror.WrapBusiness(entity.ErrInvalidCode, "Invalid OTP", goerror.CodeBadRequest)
	}
	if err != nil {
		s.verified.Record(ctx, "error")
		return nil, goerror.WrapServer(err, "Server error")
	}
	collection := attribute.String("collection", ident.Collection.String())

	now := s.clock.Now()
	if ident.State(now) == entity.ChallengeExpired {
		slog.WarnContext(ctx, "otp presented after expiry", "corporate_id", in.CorporateID,
			"collection", ident.Collection.String())
		s.verified.Record(ctx, "expired", collection)
		return nil, goerror.WrapBusiness(entity.ErrCodeExpired, "OTP expired", goerror.CodeBadRequest)
	}

	// Read then clear is not atomic. Two concurrent verifies with the same code
	// may both succeed; the clear itself is idempotent.
	if err := s.repoDB.ClearOTP(ctx, ident.Collection, ident.CorporateID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo clear otp", "corporate_id", in.CorporateID,
			"collection", ident.Collection.String(), "error", err)
		s.verified.Record(ctx, "error", collection)
		return nil, goerror.WrapServer(errors.Join(entity.ErrStorage, err), "Server error")
	}

	if err := s.repoMessaging.PublishLoginSucceeded(ctx, LoginSucceededEvent{
		CorporateID: ident.CorporateID,
		Email:       ident.Email,
		Role:        ident.Role,
		Collection:  ident.Collection.String(),
		At:          now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish login succeeded", "corporate_id", in.CorporateID, "error", err)
	}

	s.verified.Record(ctx, "verified", collection)

	out := &VerifyOTPOutput{}
	if s.cfg.GetBool("modules.identity.verify_return_role") {
		out.Role = ident.Role
	}

	return out, nil
}
