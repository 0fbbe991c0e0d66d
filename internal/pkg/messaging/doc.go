// Package messaging is a small broker-agnostic publish/consume abstraction.
//
// Drivers: NATS core subjects, Kafka topics with consumer groups, and an
// in-process memory broker used for local runs and tests. Domain code only
// sees Publisher, Consumer and Message.
package messaging
