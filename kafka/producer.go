package kafka

import (
	"fmt"

	"github.com/rlindsey28/rollbot/config"
	"github.com/rlindsey28/rollbot/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

var (
	ProtocolVersion = sarama.V3_6_0_0
)

func newSaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = ProtocolVersion
	saramaConfig.ClientID = "rollbot"
	return saramaConfig
}

// NewProducer connects a sync producer to the configured brokers.
func NewProducer(conf *config.KafkaConfig) (sarama.SyncProducer, error) {
	log := logger.Get()

	saramaConfig := newSaramaConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(conf.Brokers, saramaConfig)
	if err != nil {
		log.Error("failed to create producer", zap.Error(err), zap.Strings("brokers", conf.Brokers))
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return producer, nil
}
