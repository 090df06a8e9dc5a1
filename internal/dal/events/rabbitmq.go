package events

import (
	"context"
	"fmt"

	"github.com/corray333/gamesbakery/internal/dal/rabbitmq"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
)

// RabbitPublisher publishes to a topic exchange named after the message topic.
type RabbitPublisher struct {
	client *rabbitmq.Client
}

// NewRabbitPublisher declares exchange up front so early messages are not dropped.
func NewRabbitPublisher(client *rabbitmq.Client, exchange string) (*RabbitPublisher, error) {
	if err := client.DeclareTopicExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{client: client}, nil
}

func (p *RabbitPublisher) Publish(_ context.Context, msg outbox.Message) error {
	return p.client.Publish(msg.Topic, msg.RoutingKey, msg.ContentType, msg.Payload)
}

func (p *RabbitPublisher) Close() error {
	return p.client.Close()
}
