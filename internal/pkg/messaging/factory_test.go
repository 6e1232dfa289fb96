package messaging

import (
	"context"
	"errors"
	"testing"
)

func TestNewFromDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		opts    FactoryOptions
		wantErr error
	}{
		{name: "log", driver: DriverLog},
		{name: "empty falls back to log", driver: ""},
		{name: "unknown", driver: "rabbit", wantErr: ErrUnknownDriver},
		{name: "kafka without brokers", driver: DriverKafka, wantErr: ErrKafkaBrokersRequired},
		{name: "nats without url", driver: DriverNATS, wantErr: ErrNATSURLRequired},
		{name: "nsq without producer", driver: DriverNSQ, wantErr: ErrNSQProducerAddrRequired},
		{name: "pubsub without project", driver: DriverGooglePubSub, wantErr: ErrPubSubProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			m, err := NewFromDriver(context.Background(), tt.driver, tt.opts)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := m.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestLog_Publish(t *testing.T) {
	ctx := context.Background()
	l := NewLog()

	if _, err := l.Publish(ctx, "", OutgoingMessage{}); !errors.Is(err, ErrDestinationRequired) {
		t.Fatalf("expected ErrDestinationRequired, got %v", err)
	}

	res, err := l.Publish(ctx, "steamguard.authenticator.linked", OutgoingMessage{Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Topic != "steamguard.authenticator.linked" {
		t.Fatalf("unexpected topic %s", res.Topic)
	}
}

func TestDrivers(t *testing.T) {
	got := Drivers()

	want := []string{DriverGooglePubSub, DriverKafka, DriverLog, DriverNATS, DriverNSQ}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
