package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rlindsey28/rollbot/logger"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const name = "kafka"

var (
	tracer = otel.Tracer(name)
)

type Publisher struct {
	topicName string
	producer  sarama.SyncProducer
}

func NewPublisher(topicName string, producer sarama.SyncProducer) *Publisher {
	return &Publisher{
		topicName: topicName,
		producer:  producer,
	}
}

// PublishRoll sends event keyed by chat id so a chat's rolls stay ordered.
func (p *Publisher) PublishRoll(ctx context.Context, event RollEvent) error {
	log := logger.FromCtx(ctx)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode roll event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topicName,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.ChatID, 10)),
		Value: sarama.ByteEncoder(value),
	}

	span := createProducerSpan(ctx, msg)
	defer span.End()

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		span.RecordError(err)
		log.Error("failed to publish roll event", zap.Error(err), zap.String("topic", p.topicName))
		return fmt.Errorf("failed to publish roll event: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("messaging.kafka.destination.partition", int64(partition)),
		attribute.Int64("messaging.kafka.message.offset", offset),
	)
	log.Debug("published roll event", zap.Int32("partition", partition), zap.Int64("offset", offset))
	return nil
}

// Close releases the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

func createProducerSpan(ctx context.Context, msg *sarama.ProducerMessage) trace.Span {
	spanContext, span := tracer.Start(
		ctx,
		fmt.Sprintf("%s publish", msg.Topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.PeerService("kafka"),
			semconv.NetworkTransportTCP,
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(msg.Topic),
		),
	)

	carrier := propagation.MapCarrier{}
	propagator := otel.GetTextMapPropagator()
	propagator.Inject(spanContext, carrier)

	for key, value := range carrier {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
	}

	return span
}
