package inbound

import (
	"context"

	"github.com/shandysiswandi/ideabox/internal/identity/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.IssueOTPInput) error
	ResendOTP(ctx context.Context, in usecase.IssueOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/identity/otp/request", end.RequestOTP)
	r.POST("/api/v1/identity/otp/resend", end.ResendOTP)
	r.POST("/api/v1/identity/otp/verify", end.VerifyOTP)
}
