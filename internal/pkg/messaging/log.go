package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Log writes every published message to slog instead of a broker.
type Log struct{}

// NewLog returns a log publisher.
func NewLog() *Log {
	return &Log{}
}

// Close is a no-op.
func (*Log) Close() error { return nil }

// Publish logs the message.
func (*Log) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validatePublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}

	slog.InfoContext(ctx, "event published", "topic", destination, "key", string(msg.Key), "body", string(msg.Body))

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
