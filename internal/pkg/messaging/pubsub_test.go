package messaging

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

func TestHeadersToAttributes(t *testing.T) {
	tests := []struct {
		name    string
		headers []Header
		key     []byte
		want    map[string]string
	}{
		{name: "empty", want: nil},
		{
			name:    "first duplicate wins",
			headers: []Header{{Key: "cID", Value: []byte("a")}, {Key: "cID", Value: []byte("b")}},
			want:    map[string]string{"cID": "a"},
		},
		{
			name:    "blank keys skipped",
			headers: []Header{{Key: "", Value: []byte("x")}, {Key: "source", Value: []byte("api")}},
			want:    map[string]string{"source": "api"},
		},
		{
			name: "key kept as attribute",
			key:  []byte("idea-1"),
			want: map[string]string{pubSubKeyAttribute: "idea-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := headersToAttributes(tt.headers, tt.key)

			// Assert
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("attributes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPubSubMessage_MapsAttributes(t *testing.T) {
	// Arrange
	published := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := &pubsub.Message{
		Data:        []byte(`{"id":"1"}`),
		PublishTime: published,
		Attributes: map[string]string{
			"source":           "api",
			"cID":              "abc",
			pubSubKeyAttribute: "idea-1",
		},
	}

	// Act
	msg := newPubSubMessage("idea_submitted", raw)

	// Assert
	if string(msg.Body()) != `{"id":"1"}` || msg.Topic() != "idea_submitted" {
		t.Fatalf("message = %s on %q", msg.Body(), msg.Topic())
	}
	if string(msg.Key()) != "idea-1" {
		t.Fatalf("key = %q", msg.Key())
	}
	want := []Header{{Key: "cID", Value: []byte("abc")}, {Key: "source", Value: []byte("api")}}
	if !reflect.DeepEqual(msg.Headers(), want) {
		t.Fatalf("headers = %v, want %v", msg.Headers(), want)
	}
	if HeaderValue(msg, "cID") != "abc" {
		t.Fatalf("cID = %q", HeaderValue(msg, "cID"))
	}
	if !msg.Timestamp().Equal(published) {
		t.Fatalf("timestamp = %v", msg.Timestamp())
	}
}

func TestPubSubMessage_AckHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg := newPubSubMessage("idea_submitted", &pubsub.Message{})

	if err := msg.Ack(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Ack() error = %v, want context.Canceled", err)
	}
	if err := msg.Nack(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Nack() error = %v, want context.Canceled", err)
	}
}

func TestNewPubSub_RequiresProjectID(t *testing.T) {
	if _, err := NewPubSub(context.Background(), PubSubConfig{}); !errors.Is(err, ErrPubSubProjectIDRequired) {
		t.Fatalf("error = %v, want ErrPubSubProjectIDRequired", err)
	}
}

func TestPubSub_ConsumeWithoutClient(t *testing.T) {
	p := &PubSub{}
	err := p.Consume(context.Background(), "idea_submitted", func(context.Context, Message) error { return nil })
	if !errors.Is(err, ErrPubSubClientRequired) {
		t.Fatalf("error = %v, want ErrPubSubClientRequired", err)
	}
}
