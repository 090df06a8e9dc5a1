package events

import (
	"context"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes messages synchronously so the outbox only
// deletes rows the cluster acknowledged.
type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher creates a writer for topic. Messages are keyed by
// routing key, so events of one kind stay ordered within a partition.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg outbox.Message) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RoutingKey),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(msg.ContentType)},
			{Key: "routing-key", Value: []byte(msg.RoutingKey)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
