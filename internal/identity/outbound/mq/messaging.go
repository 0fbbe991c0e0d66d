package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/ideabox/internal/identity/usecase"
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

func (m *Messaging) PublishLoginSucceeded(ctx context.Context, msg usecase.LoginSucceededEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishLoginSucceeded")
	defer span.End()

	body, err := json.Marshal(event.IdentityLoginSucceededMessage{
		CorporateID: msg.CorporateID,
		Email:       msg.Email,
		Role:        msg.Role,
		Collection:  msg.Collection,
		At:          msg.At,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.IdentityLoginSucceededDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.CorporateID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
