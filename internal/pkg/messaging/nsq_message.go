package messaging

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// HeaderNSQAttempts is the only header an NSQ message carries: the delivery
// attempt counter kept by nsqd.
const HeaderNSQAttempts = "nsq-attempts"

const (
	nsqRequeueStep     = 5 * time.Second
	nsqMaxRequeueDelay = time.Minute
)

type nsqMessage struct {
	topic string
	msg   *nsq.Message

	responded atomic.Bool
}

func newNSQMessage(topic string, msg *nsq.Message) *nsqMessage {
	return &nsqMessage{topic: topic, msg: msg}
}

func (m *nsqMessage) Body() []byte  { return m.msg.Body }
func (m *nsqMessage) Key() []byte   { return nil }
func (m *nsqMessage) Topic() string { return m.topic }

func (m *nsqMessage) Headers() []Header {
	return []Header{{Key: HeaderNSQAttempts, Value: []byte(strconv.Itoa(int(m.msg.Attempts)))}}
}

func (m *nsqMessage) Timestamp() time.Time {
	return time.Unix(0, m.msg.Timestamp)
}

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.responded.Swap(true) {
		m.msg.Finish()
	}
	return nil
}

// Nack requeues with a delay that grows per attempt, so a mail outage does
// not spin the notification consumer.
func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.responded.Swap(true) {
		m.msg.Requeue(nsqRequeueDelay(m.msg.Attempts))
	}
	return nil
}

func nsqRequeueDelay(attempts uint16) time.Duration {
	return min(time.Duration(max(attempts, 1))*nsqRequeueStep, nsqMaxRequeueDelay)
}
