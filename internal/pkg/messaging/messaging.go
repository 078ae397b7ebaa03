package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// ErrSubjectRequired is returned when the destination is empty.
var ErrSubjectRequired = errors.New("messaging: subject is required")

// Publisher publishes messages to a subject.
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, subject string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body    []byte
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries publish metadata.
type PublishResult struct {
	Subject   string
	Timestamp time.Time
}

// JSON builds an OutgoingMessage with a JSON body and content-type header.
func JSON(v any, headers ...Header) (OutgoingMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return OutgoingMessage{}, err
	}

	return OutgoingMessage{
		Body:    body,
		Headers: append([]Header{{Key: "Content-Type", Value: []byte("application/json")}}, headers...),
	}, nil
}

// Noop discards every message.
type Noop struct{}

// NewNoop returns a Publisher that drops messages.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) Publish(ctx context.Context, subject string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if subject == "" {
		return PublishResult{}, ErrSubjectRequired
	}
	return PublishResult{Subject: subject, Timestamp: time.Now()}, nil
}

func (*Noop) Close() error {
	return nil
}
