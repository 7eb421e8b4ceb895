package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/shared/config"

	"github.com/IBM/sarama"
)

// EventProducer interface defines the contract for publishing booking events
type EventProducer interface {
	PublishBookingEvent(ctx context.Context, event *BookingEvent) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig builds the producer configuration from the
// application config
func DefaultKafkaProducerConfig(cfg *config.Config) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaEventProducer publishes booking events to Kafka
type KafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaEventProducer creates a new Kafka booking event producer
func NewKafkaEventProducer(config *KafkaProducerConfig) (EventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = 1000000

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps every event of one booking on one partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("📤 Kafka booking event producer created successfully")
	return &KafkaEventProducer{
		producer: producer,
		config:   config,
	}, nil
}

// PublishBookingEvent publishes a single booking event to Kafka
func (kep *KafkaEventProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kep.config.Topic,
		Key:       sarama.StringEncoder(event.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   kep.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := kep.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send booking event to Kafka: %w", err)
	}

	log.Printf("📤 Booking event published to Kafka - Topic: %s, Partition: %d, Offset: %d, Type: %s, Booking: %s",
		kep.config.Topic, partition, offset, event.Type, event.BookingRef)

	return nil
}

// createHeaders creates Kafka headers for booking events
func (kep *KafkaEventProducer) createHeaders(event *BookingEvent) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("booking_id"), Value: []byte(event.BookingID.String())},
		{Key: []byte("schedule_id"), Value: []byte(event.ScheduleID.String())},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte("busline-bookings")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}

	if event.PaymentRef != "" {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("payment_ref"),
			Value: []byte(event.PaymentRef),
		})
	}

	return headers
}

// Close closes the Kafka producer
func (kep *KafkaEventProducer) Close() error {
	if kep.producer != nil {
		if err := kep.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// HealthCheck verifies the producer is usable
func (kep *KafkaEventProducer) HealthCheck(ctx context.Context) error {
	if kep.producer == nil {
		return fmt.Errorf("kafka producer is not initialized")
	}
	return nil
}

// NoopProducer drops every event. Used when Kafka is disabled so the
// booking and payment services never have to nil-check their publisher.
type NoopProducer struct{}

func NewNoopProducer() EventProducer {
	return &NoopProducer{}
}

func (n *NoopProducer) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	return nil
}

func (n *NoopProducer) Close() error {
	return nil
}

func (n *NoopProducer) HealthCheck(ctx context.Context) error {
	return nil
}
