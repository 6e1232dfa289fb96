package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/steamguard/internal/authenticator/usecase"
	"github.com/shandysiswandi/steamguard/internal/pkg/instrument"
	"github.com/shandysiswandi/steamguard/internal/pkg/messaging"
	"github.com/shandysiswandi/steamguard/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAuthenticatorLinked(ctx context.Context, msg usecase.AuthenticatorLinkedEvent) error {
	return m.publish(ctx, "PublishAuthenticatorLinked", event.AuthenticatorLinkedDestination, msg.AccountID,
		event.AuthenticatorLinkedMessage{
			AccountID:    msg.AccountID,
			AccountName:  msg.AccountName,
			SerialNumber: msg.SerialNumber,
			DeviceID:     msg.DeviceID,
			LinkedAt:     msg.LinkedAt.Unix(),
		})
}

func (m *Messaging) PublishAuthenticatorRemoved(ctx context.Context, msg usecase.AuthenticatorRemovedEvent) error {
	return m.publish(ctx, "PublishAuthenticatorRemoved", event.AuthenticatorRemovedDestination, msg.AccountID,
		event.AuthenticatorRemovedMessage{
			AccountID: msg.AccountID,
			Scheme:    msg.Scheme,
			RemovedAt: msg.RemovedAt.Unix(),
		})
}

func (m *Messaging) PublishConfirmationDecided(ctx context.Context, msg usecase.ConfirmationDecidedEvent) error {
	return m.publish(ctx, "PublishConfirmationDecided", event.ConfirmationDecidedDestination, msg.AccountID,
		event.ConfirmationDecidedMessage{
			AccountID:       msg.AccountID,
			ConfirmationIDs: msg.ConfirmationIDs,
			Approved:        msg.Approved,
			Success:         msg.Success,
			DecidedAt:       msg.DecidedAt.Unix(),
		})
}

// publish sends payload keyed by account so one account's events stay ordered on Kafka and Pub/Sub.
func (m *Messaging) publish(ctx context.Context, name, destination string, accountID uint64, payload any) error {
	ctx, span := m.ins.Tracer("authenticator.outbound.mq").Start(ctx, name)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatUint(accountID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
