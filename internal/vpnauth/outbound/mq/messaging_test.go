package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/messaging"
	"github.com/shandysiswandi/vpnguard/internal/shared/event"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

type recordingPublisher struct {
	subject string
	msg     messaging.OutgoingMessage
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	p.subject = subject
	p.msg = msg
	return messaging.PublishResult{Subject: subject}, p.err
}

func (p *recordingPublisher) Close() error { return nil }

func header(msg messaging.OutgoingMessage, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessaging_PublishSetupRequired(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewMessaging(pub, nil)
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")
	at := time.Unix(1_700_000_000, 0)

	err := m.PublishSetupRequired(ctx, usecase.SetupRequiredEvent{Username: "dave", Has2FA: true, ObservedAt: at})
	require.NoError(t, err)

	assert.Equal(t, event.SetupRequiredDestination, pub.subject)
	assert.Equal(t, "cid-1", header(pub.msg, keyOfCorrelationID))

	var got event.SetupRequiredMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, event.SetupRequiredMessage{Username: "dave", Has2FA: true, ObservedAt: at.Unix()}, got)
}

func TestMessaging_PublishAccessLogDegraded(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	m := NewMessaging(pub, instrument.NewNoop())

	err := m.PublishAccessLogDegraded(context.Background(), usecase.AccessLogDegradedEvent{
		Entry: entity.AccessLog{Username: "bob", Action: entity.ActionVerify, Reason: entity.ReasonGranted, AccessGranted: true},
		Err:   errors.New("db down"),
	})
	require.EqualError(t, err, "nats down")

	assert.Equal(t, event.AccessLogDegradedDestination, pub.subject)

	var got event.AccessLogDegradedMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, "verify", got.Action)
	assert.Equal(t, "db down", got.Error)
	assert.True(t, got.AccessGranted)
}
