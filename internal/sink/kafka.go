// Package sink publishes reconciled messages to Kafka for downstream
// consumers (archival, notification fan-out). The engine hands a message to
// the sink only after dedup, so each logical message reaches the topic once.
package sink

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fathima-sithara/chat-client/internal/models"
)

type Sink interface {
	Publish(ctx context.Context, m models.Message) error
	Close() error
}

type KafkaSink struct {
	writer *kafkago.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, m models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(m.ConversationID),
		Value: b,
		Time:  m.CreatedAt,
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
