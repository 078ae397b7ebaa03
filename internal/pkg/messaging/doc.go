// Package messaging publishes operational events to a message broker.
//
// Business code depends on Publisher; NATS is the broker implementation and
// Noop is used when messaging is disabled.
package messaging
