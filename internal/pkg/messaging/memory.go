package messaging

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process broker. Every Consume call on a source receives
// every message published there after it subscribed; there is no
// persistence and no redelivery.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	done   chan struct{}
	closed bool
}

type memorySub struct {
	ch   chan memoryEnvelope
	gone chan struct{}
}

type memoryEnvelope struct {
	topic   string
	body    []byte
	key     []byte
	headers []Header
	at      time.Time
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: map[string][]*memorySub{}, done: make(chan struct{})}
}

// Close stops all consumers.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans the message out to the current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validatePublish(ctx, destination, msg); err != nil {
		return PublishResult{}, err
	}

	env := memoryEnvelope{
		topic:   destination,
		body:    append([]byte(nil), msg.Body...),
		key:     msg.Key,
		headers: append([]Header(nil), msg.Headers...),
		at:      time.Now(),
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	subs := slices.Clone(m.subs[destination])
	m.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- env:
		case <-sub.gone:
		case <-m.done:
			return PublishResult{}, io.ErrClosedPipe
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{Topic: destination, Timestamp: env.at}, nil
}

// Consume blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	sub := &memorySub{ch: make(chan memoryEnvelope, 64), gone: make(chan struct{})}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], sub)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case env := <-sub.ch:
					//nolint:errcheck // memory ack is a no-op
					_ = dispatch(ctx, "memory", &memoryMessage{env: env}, handler, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	m.mu.Lock()
	m.subs[source] = slices.DeleteFunc(m.subs[source], func(s *memorySub) bool { return s == sub })
	m.mu.Unlock()
	close(sub.gone)

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

// Subscribed reports how many consumers are attached to source.
func (m *Memory) Subscribed(source string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[source])
}

type memoryMessage struct {
	env memoryEnvelope
}

func (m *memoryMessage) Body() []byte               { return m.env.body }
func (m *memoryMessage) Key() []byte                { return m.env.key }
func (m *memoryMessage) Headers() []Header          { return m.env.headers }
func (m *memoryMessage) Topic() string              { return m.env.topic }
func (m *memoryMessage) Timestamp() time.Time       { return m.env.at }
func (m *memoryMessage) Ack(context.Context) error  { return nil }
func (m *memoryMessage) Nack(context.Context) error { return nil }
