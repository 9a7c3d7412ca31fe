package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/pkg/config"
	"github.com/myturn/backend/pkg/retry"
)

// NewProducerConfig returns the sarama settings used for the booking event stream
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// NewSyncProducer connects a synchronous producer to the configured brokers
func NewSyncProducer(cfg *config.KafkaConfig) (sarama.SyncProducer, error) {
	var producer sarama.SyncProducer

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 5
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Kafka",
		func() error {
			p, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig())
			if err != nil {
				return err
			}
			producer = p
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Kafka connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("connected to Kafka")
	return producer, nil
}
