// Package events relays outbox messages to the configured broker.
package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/corray333/gamesbakery/internal/service/models/outbox"
)

const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

// Publisher delivers one outbox message.
type Publisher interface {
	Publish(ctx context.Context, msg outbox.Message) error
	Close() error
}

// ParseBroker normalises the events.broker setting.
func ParseBroker(s string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(s)); b {
	case BrokerRabbitMQ, BrokerKafka:
		return b, nil
	case "", BrokerNone:
		return BrokerNone, nil
	default:
		return "", fmt.Errorf("unknown events broker %q", s)
	}
}

// Noop drops every message. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, outbox.Message) error { return nil }

func (Noop) Close() error { return nil }
