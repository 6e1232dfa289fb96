// Package messaging publishes domain events to a broker.
//
// Business code depends on Publisher only. Kafka, NATS, NSQ and Google Pub/Sub
// are supported, plus a log driver that writes events to slog when no broker
// is deployed.
package messaging
