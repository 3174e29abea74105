package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"medibot/models"
	"medibot/utils"
)

const (
	consumerGroup = "medibot-appointments"
	cacheTTL      = 24 * time.Hour
	retryDelay    = 5 * time.Second
)

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// AppointmentConsumer projects booked appointments into Redis and
// Elasticsearch. Either sink may be nil.
type AppointmentConsumer struct {
	cache    utils.RedisClient
	es       utils.ElasticsearchClient
	reader   messageReader
	logger   *log.Logger
	shutdown chan struct{}
	done     chan struct{}
}

func NewAppointmentConsumer(broker string, cache utils.RedisClient, es utils.ElasticsearchClient, logger *log.Logger) *AppointmentConsumer {
	return &AppointmentConsumer{
		cache: cache,
		es:    es,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{broker},
			Topic:   utils.AppointmentEventsTopic,
			GroupID: consumerGroup,
			MaxWait: 10 * time.Second,
		}),
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (c *AppointmentConsumer) Start(ctx context.Context) {
	c.logger.Println("Starting Kafka consumer...")

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.shutdown:
				return
			case <-ctx.Done():
				return
			default:
				c.processMessage(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit, closes the reader and waits for the loop.
func (c *AppointmentConsumer) Stop() {
	close(c.shutdown)
	if err := c.reader.Close(); err != nil {
		c.logger.Printf("Error closing Kafka reader: %v", err)
	}
	<-c.done
}

func (c *AppointmentConsumer) processMessage(ctx context.Context) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return
		}
		c.logger.Printf("Kafka read error: %v (will retry)", err)
		select {
		case <-time.After(retryDelay):
		case <-c.shutdown:
		case <-ctx.Done():
		}
		return
	}

	if err := c.HandleMessage(ctx, msg.Value); err != nil {
		c.logger.Printf("Failed to handle Kafka message at offset %d: %v", msg.Offset, err)
	}
}

// HandleMessage decodes one event and applies it to the configured sinks.
func (c *AppointmentConsumer) HandleMessage(ctx context.Context, value []byte) error {
	var event models.AppointmentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	switch event.Event {
	case models.EventAppointmentBooked:
		if event.StoreID == "" {
			return fmt.Errorf("appointment_booked event for appointment %d has no store id", event.Data.ID)
		}
		return c.handleAppointmentBooked(ctx, event.StoreID, event.Data)
	default:
		c.logger.Printf("Unknown event type: %s", event.Event)
		return nil
	}
}

func (c *AppointmentConsumer) handleAppointmentBooked(ctx context.Context, storeID string, appointment models.Appointment) error {
	id := models.AppointmentDocumentID(storeID, appointment.ID)

	var errs []error

	if c.cache != nil {
		data, err := json.Marshal(appointment)
		if err != nil {
			return fmt.Errorf("failed to marshal appointment: %w", err)
		}
		if err := c.cache.SetToCache(ctx, models.AppointmentCacheKey(storeID, appointment.ID), string(data), cacheTTL); err != nil {
			errs = append(errs, fmt.Errorf("cache appointment %s: %w", id, err))
		}
	}

	if c.es != nil {
		if err := c.es.IndexDocument(ctx, utils.AppointmentsIndex, id, models.IndexedAppointment{Appointment: appointment, StoreID: storeID}); err != nil {
			errs = append(errs, fmt.Errorf("index appointment %s: %w", id, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.logger.Printf("Processed appointment_booked event for appointment ID %d", appointment.ID)
	return nil
}
