package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	// DriverLog writes events to slog instead of a broker.
	DriverLog          = "log"
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every broker. Only the selected one is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

type dialer func(ctx context.Context, opts FactoryOptions) (Messaging, error)

var drivers = map[string]dialer{
	DriverLog: func(context.Context, FactoryOptions) (Messaging, error) {
		return NewLog(), nil
	},
	DriverNSQ: func(_ context.Context, opts FactoryOptions) (Messaging, error) {
		return NewNSQ(opts.NSQ)
	},
	DriverKafka: func(_ context.Context, opts FactoryOptions) (Messaging, error) {
		return NewKafka(opts.Kafka)
	},
	DriverNATS: func(_ context.Context, opts FactoryOptions) (Messaging, error) {
		return NewNATS(opts.NATS)
	},
	DriverGooglePubSub: func(ctx context.Context, opts FactoryOptions) (Messaging, error) {
		return NewPubSub(ctx, opts.PubSub)
	},
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	names := lo.Keys(drivers)
	slices.Sort(names)
	return names
}

// NewFromDriver connects to the broker named by driver. An empty name selects the log driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	name := strings.TrimSpace(driver)
	if name == "" {
		name = DriverLog
	}

	dial, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}

	return dial(ctx, opts)
}
