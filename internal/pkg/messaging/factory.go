package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by messaging.driver.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
	DriverMemory       = "memory"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

var driverAliases = map[string]string{
	"pubsub":     DriverGooglePubSub,
	"gcp-pubsub": DriverGooglePubSub,
	"in-memory":  DriverMemory,
}

// ParseDriver normalizes a configured driver name. Case and surrounding
// spaces are ignored and a few common aliases are accepted.
func ParseDriver(name string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := driverAliases[d]; ok {
		d = alias
	}

	switch d {
	case DriverNSQ, DriverNATS, DriverKafka, DriverGooglePubSub, DriverMemory:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s, %s, %s, %s, %s)", ErrUnknownDriver, name,
			DriverMemory, DriverNSQ, DriverNATS, DriverKafka, DriverGooglePubSub)
	}
}

// FactoryOptions carries the settings of every backend; only the selected
// driver's block is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

// NewFromDriver builds the broker that carries idea.submitted and
// login.succeeded events.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	d, err := ParseDriver(driver)
	if err != nil {
		return nil, err
	}

	switch d {
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return NewMemory(), nil
	}
}
