package mq

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/messaging"
	"github.com/shandysiswandi/vpnguard/internal/shared/event"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishSetupRequired(ctx context.Context, msg usecase.SetupRequiredEvent) error {
	ctx, span := m.ins.Tracer("vpnauth.outbound.mq").Start(ctx, "PublishSetupRequired")
	defer span.End()

	return m.publish(ctx, span, event.SetupRequiredDestination, event.SetupRequiredMessage{
		Username:   msg.Username,
		Has2FA:     msg.Has2FA,
		IsEnabled:  msg.IsEnabled,
		ObservedAt: msg.ObservedAt.Unix(),
	})
}

func (m *Messaging) PublishAccessLogDegraded(ctx context.Context, msg usecase.AccessLogDegradedEvent) error {
	ctx, span := m.ins.Tracer("vpnauth.outbound.mq").Start(ctx, "PublishAccessLogDegraded")
	defer span.End()

	var reason string
	if msg.Err != nil {
		reason = msg.Err.Error()
	}

	return m.publish(ctx, span, event.AccessLogDegradedDestination, event.AccessLogDegradedMessage{
		Username:          msg.Entry.Username,
		ClientIP:          msg.Entry.ClientIP,
		AccessTime:        msg.Entry.AccessTime.Unix(),
		TwoFactorVerified: msg.Entry.TwoFactorVerified,
		AccessGranted:     msg.Entry.AccessGranted,
		Action:            string(msg.Entry.Action),
		Reason:            string(msg.Entry.Reason),
		Error:             reason,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, subject string, body any) error {
	cID := instrument.GetCorrelationID(ctx)

	out, err := messaging.JSON(body, messaging.Header{Key: keyOfCorrelationID, Value: []byte(cID)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, subject, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
