package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/ideabox/internal/idea/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishIdeaSubmitted(ctx context.Context, msg usecase.IdeaSubmittedEvent) error {
	ctx, span := m.ins.Tracer("idea.outbound.mq").Start(ctx, "PublishIdeaSubmitted")
	defer span.End()

	body, err := json.Marshal(event.IdeaSubmittedMessage{
		IdeaID:       msg.IdeaID,
		EmployeeID:   msg.EmployeeID,
		EmployeeName: msg.EmployeeName,
		IdeaTheme:    msg.IdeaTheme,
		Department:   msg.Department,
		Attachment:   msg.Attachment,
		SubmittedAt:  msg.SubmittedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, event.IdeaSubmittedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.IdeaID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
