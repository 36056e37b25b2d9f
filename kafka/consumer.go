package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rlindsey28/rollbot/config"
	"github.com/rlindsey28/rollbot/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// HandleFunc processes one decoded roll event.
type HandleFunc func(ctx context.Context, event RollEvent)

// Consume joins the configured consumer group and feeds every roll event to
// handle until ctx is cancelled.
func Consume(ctx context.Context, conf *config.KafkaConfig, handle HandleFunc) error {
	log := logger.FromCtx(ctx)
	log.Info("Starting a new Sarama consumer", zap.String("group", conf.ConsumerGroup), zap.String("topic", conf.Topic))

	saramaConfig := newSaramaConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(conf.Brokers, conf.ConsumerGroup, saramaConfig)
	if err != nil {
		return fmt.Errorf("error creating consumer group client: %w", err)
	}

	consumer := NewConsumer(handle)
	consumeErr := make(chan error, 1)
	go func() {
		defer close(consumeErr)
		for {
			// `Consume` should be called inside an infinite loop, when a
			// server-side rebalance happens, the consumer session will need to be
			// recreated to get the new claims
			if err := client.Consume(ctx, []string{conf.Topic}, consumer); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				consumeErr <- err
				return
			}
			// check if context was cancelled, signaling that the consumer should stop
			if ctx.Err() != nil {
				return
			}
			consumer.ready = make(chan bool)
		}
	}()

	select {
	case <-consumer.ready:
		log.Info("Sarama consumer up and running")
	case <-ctx.Done():
	case err = <-consumeErr:
	}

	if err == nil {
		select {
		case <-ctx.Done():
			log.Info("terminating: context cancelled")
		case err = <-consumeErr:
		}
	}

	if closeErr := client.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("error closing client: %w", closeErr))
	}
	return err
}

// Consumer is a sarama.ConsumerGroupHandler for roll events.
type Consumer struct {
	ready  chan bool
	handle HandleFunc
}

func NewConsumer(handle HandleFunc) *Consumer {
	return &Consumer{
		ready:  make(chan bool),
		handle: handle,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	// Mark the consumer as ready
	close(consumer.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
// Once the Messages() channel is closed, the Handler must finish its processing
// loop and exit.
func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log := logger.FromCtx(session.Context())
	// NOTE:
	// Do not move the code below to a goroutine.
	// The `ConsumeClaim` itself is called within a goroutine, see:
	// https://github.com/IBM/sarama/blob/main/consumer_group.go#L27-L29
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				log.Info("message channel was closed")
				return nil
			}
			session.MarkMessage(message, "")

			var event RollEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				log.Warn("Error unmarshalling roll event", zap.Error(err), zap.Int64("offset", message.Offset))
				continue
			}
			consumer.handle(session.Context(), event)
		// Should return when `session.Context()` is done.
		// If not, will raise `ErrRebalanceInProgress` or `read tcp <ip>:<port>: i/o timeout` when kafka rebalance. see:
		// https://github.com/IBM/sarama/issues/1192
		case <-session.Context().Done():
			return nil
		}
	}
}
