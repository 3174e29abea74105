package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const AppointmentEventsTopic = "appointment_events"

type KafkaProducer interface {
	SendMessage(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer dials broker once to fail fast; the writer itself connects
// lazily on the first write.
func NewKafkaProducer(broker string) (KafkaProducer, error) {
	if broker == "" {
		broker = "localhost:9092"
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	return &kafkaProducer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (k *kafkaProducer) SendMessage(ctx context.Context, topic string, key, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (k *kafkaProducer) Close() error {
	return k.writer.Close()
}

// SendJSON marshals event and publishes it on topic under key.
func SendJSON(ctx context.Context, producer KafkaProducer, topic, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal Kafka event: %w", err)
	}
	if err := producer.SendMessage(ctx, topic, []byte(key), value); err != nil {
		return fmt.Errorf("failed to send Kafka message to %s: %w", topic, err)
	}
	return nil
}
