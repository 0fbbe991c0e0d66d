package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/ideabox/internal/pkg/config"
	"github.com/shandysiswandi/ideabox/internal/pkg/goroutine"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
	"github.com/shandysiswandi/ideabox/internal/pkg/messaging"
	"github.com/shandysiswandi/ideabox/internal/pkg/uid"
	"github.com/shandysiswandi/ideabox/internal/shared/event"
)

// consumerCIDPrefix marks correlation ids minted here because the message
// arrived without a cID header.
const consumerCIDPrefix = "mq-"

// RegisterMQConsumer starts the consumers listed in
// modules.notification.consumer_names. An empty list starts none.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uid.WithPrefix(uuid, consumerCIDPrefix), ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	if concurrency < 1 {
		concurrency = 10
	}
	maxInFlight := cfg.GetInt("modules.notification.consumer_max_in_flight")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		nsqChannel        string // for nsq
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		subscription      string // for google pubsub
		handler           messaging.Handler
	}{
		{
			name:              event.IdeaSubmittedConsumerNotification,
			topic:             event.IdeaSubmittedDestination,
			nsqChannel:        event.IdeaSubmittedConsumerNotification,
			natsConsumerName:  event.IdeaSubmittedConsumerNotification,
			kafkaConsumerName: event.IdeaSubmittedConsumerNotification,
			subscription:      event.IdeaSubmittedConsumerNotification,
			handler:           mqHandler.IdeaSubmittedNotification,
		},
		{
			name:              event.IdentityLoginSucceededConsumerNotification,
			topic:             event.IdentityLoginSucceededDestination,
			nsqChannel:        event.IdentityLoginSucceededConsumerNotification,
			natsConsumerName:  event.IdentityLoginSucceededConsumerNotification,
			kafkaConsumerName: event.IdentityLoginSucceededConsumerNotification,
			subscription:      event.IdentityLoginSucceededConsumerNotification,
			handler:           mqHandler.LoginSucceededNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}
		routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "notification consumer started", "consumer", consumer.name, "topic", consumer.topic)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithChannel(consumer.nsqChannel),
				messaging.WithQueueGroup(consumer.natsConsumerName),
				messaging.WithGroup(consumer.kafkaConsumerName),
				messaging.WithSubscription(consumer.subscription),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(maxInFlight),
			)
		})
	}
}
