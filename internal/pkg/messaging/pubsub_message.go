package messaging

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

type pubSubMessage struct {
	topic string
	msg   *pubsub.Message

	responded atomic.Bool
}

func newPubSubMessage(topic string, msg *pubsub.Message) *pubSubMessage {
	return &pubSubMessage{topic: topic, msg: msg}
}

func (m *pubSubMessage) Body() []byte { return m.msg.Data }

func (m *pubSubMessage) Key() []byte {
	if k, ok := m.msg.Attributes[pubSubKeyAttribute]; ok {
		return []byte(k)
	}
	return nil
}

// Headers returns the attributes in key order, minus the key attribute.
func (m *pubSubMessage) Headers() []Header {
	keys := make([]string, 0, len(m.msg.Attributes))
	for k := range m.msg.Attributes {
		if k != pubSubKeyAttribute {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	headers := make([]Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, Header{Key: k, Value: []byte(m.msg.Attributes[k])})
	}
	return headers
}

func (m *pubSubMessage) Topic() string        { return m.topic }
func (m *pubSubMessage) Timestamp() time.Time { return m.msg.PublishTime }

func (m *pubSubMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Ack()
	return nil
}

func (m *pubSubMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	m.msg.Nack()
	return nil
}
