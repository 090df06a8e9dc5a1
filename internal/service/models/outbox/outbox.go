package outbox

import (
	"time"
)

const ContentTypeJSON = "application/json"

// Message is an event waiting to be relayed to the broker.
type Message struct {
	ID          int64
	Topic       string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}

// New builds a message that is due immediately.
func New(topic, routingKey string, payload []byte, maxRetries int, now time.Time) Message {
	return Message{
		Topic:       topic,
		RoutingKey:  routingKey,
		Payload:     payload,
		ContentType: ContentTypeJSON,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}
}

// Exhausted reports whether the relay has given up on the message.
func (m Message) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

// RecordFailure counts a failed delivery and reschedules the message.
func (m *Message) RecordFailure(cause error, next, now time.Time) {
	m.RetryCount++
	m.LastError = cause.Error()
	m.NextRetryAt = next
	m.UpdatedAt = now
}
