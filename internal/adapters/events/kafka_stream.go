package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/infrastructure/observability"
)

// KafkaEventStream appends queue events to a Kafka topic behind a circuit breaker.
// Events of one institution share a partition key and so stay ordered.
type KafkaEventStream struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *gobreaker.CircuitBreaker
	metrics  *observability.Metrics
}

// NewKafkaEventStream creates a new Kafka-backed event stream
func NewKafkaEventStream(producer sarama.SyncProducer, topic string, metrics *observability.Metrics) providers.EventStream {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka:" + topic,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("event stream breaker changed state")
		},
	})

	return &KafkaEventStream{
		producer: producer,
		topic:    topic,
		breaker:  breaker,
		metrics:  metrics,
	}
}

// Append writes an event to the stream, keyed by institution
func (s *KafkaEventStream) Append(ctx context.Context, event *entities.QueueEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.InstitutionID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("event_id"), Value: []byte(event.ID)},
		},
		Timestamp: event.Timestamp,
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		partition, offset, err := s.producer.SendMessage(msg)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("topic", s.topic).
			Int32("partition", partition).
			Int64("offset", offset).
			Str("event_id", event.ID).
			Msg("event appended to stream")
		return nil, nil
	})
	observability.RecordEventStreamed(ctx, s.metrics, s.topic, err == nil)
	if err != nil {
		return fmt.Errorf("failed to append event to %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes and closes the producer
func (s *KafkaEventStream) Close() error {
	return s.producer.Close()
}
