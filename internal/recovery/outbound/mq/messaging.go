package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
	"github.com/shandysiswandi/gorecover/internal/pkg/messaging"
	"github.com/shandysiswandi/gorecover/internal/recovery/usecase"
	"github.com/shandysiswandi/gorecover/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, msg usecase.CodeIssuedEvent) error {
	var expiresAt *int64
	if msg.ExpiresAt != nil {
		unix := msg.ExpiresAt.Unix()
		expiresAt = &unix
	}

	return m.publish(ctx, "PublishCodeIssued", event.RecoveryCodeIssuedDestination, msg.Target, event.RecoveryCodeIssuedMessage{
		Target:    msg.Target,
		Email:     msg.Email,
		Username:  msg.Username,
		Code:      msg.Code,
		ExpiresAt: expiresAt,
	})
}

func (m *Messaging) PublishVerified(ctx context.Context, msg usecase.VerifiedEvent) error {
	return m.publish(ctx, "PublishVerified", event.RecoveryVerifiedDestination, msg.Target, event.RecoveryVerifiedMessage{
		Target:     msg.Target,
		Username:   msg.Username,
		VerifiedAt: msg.VerifiedAt.Unix(),
	})
}

// publish keys messages by target so brokers that partition by key keep one
// target's events in order.
func (m *Messaging) publish(ctx context.Context, span, destination, key string, payload any) error {
	ctx, sp := m.ins.Tracer("recovery.outbound.mq").Start(ctx, span)
	defer sp.End()

	body, err := json.Marshal(payload)
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(key),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
