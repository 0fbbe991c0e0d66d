package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/ideabox/internal/notification/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) IdeaSubmittedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "IdeaSubmittedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: idea submitted notification", "msg_body", string(body))

	var payload event.IdeaSubmittedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of idea submitted notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeIdeaSubmitted(ctx, usecase.ConsumeIdeaSubmittedInput{
		IdeaID:       payload.IdeaID,
		EmployeeID:   payload.EmployeeID,
		EmployeeName: payload.EmployeeName,
		IdeaTheme:    payload.IdeaTheme,
		Department:   payload.Department,
		Attachment:   payload.Attachment,
		SubmittedAt:  payload.SubmittedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume idea submitted", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

// LoginSucceededNotification does not log the raw body; it carries an email address.
func (h *MQHandler) LoginSucceededNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "LoginSucceededNotification")
	defer span.End()

	var payload event.IdentityLoginSucceededMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of login succeeded notification", "error", err)
		return nil
	}
	slog.InfoContext(ctx, "consume: login succeeded notification", "corporate_id", payload.CorporateID, "collection", payload.Collection)

	if err := h.uc.ConsumeLoginSucceeded(ctx, usecase.ConsumeLoginSucceededInput{
		CorporateID: payload.CorporateID,
		Email:       payload.Email,
		Role:        payload.Role,
		At:          payload.At,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume login succeeded", "corporate_id", payload.CorporateID, "error", err)
		return err
	}

	return nil
}
