package email

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const subjectOTP = "Your OTP Code"

// Mail delivers one-time passwords over the configured mail provider.
type Mail struct {
	client mail.Mail
	from   string
	ins    instrument.Instrumentation
}

func New(client mail.Mail, from string, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, from: from, ins: ins}
}

func (m *Mail) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	ctx, span := m.ins.Tracer("identity.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	if err := m.client.Send(ctx, mail.Message{
		From:     m.from,
		To:       []string{to},
		Subject:  subjectOTP,
		TextBody: bodyOTP(code, ttl),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func bodyOTP(code string, ttl time.Duration) string {
	if ttl >= time.Minute && ttl%time.Minute == 0 {
		minutes := int(ttl / time.Minute)
		unit := "minutes"
		if minutes == 1 {
			unit = "minute"
		}
		return fmt.Sprintf("Your OTP is %s. It expires in %d %s.", code, minutes, unit)
	}
	return fmt.Sprintf("Your OTP is %s. It expires in %d seconds.", code, int(ttl/time.Second))
}
