// Command rollaudit consumes the roll events published by rollbot and logs them.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rlindsey28/rollbot/config"
	"github.com/rlindsey28/rollbot/kafka"
	"github.com/rlindsey28/rollbot/logger"
	"github.com/rlindsey28/rollbot/telemetry"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Handle SIGINT gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}
	zaplog := logger.Init("rollaudit", conf.LogLevel)
	ctx = logger.WithCtx(ctx, zaplog)

	if !conf.Kafka.PublishEnabled() {
		zaplog.Fatal("cannot consume roll events", zap.Error(config.ErrMissingBrokers))
	}

	otelShutdown, err := telemetry.SetupOtelSDK(ctx, conf.Telemetry)
	if err != nil {
		zaplog.Fatal("failed to setup otel", zap.Error(err))
	}

	err = kafka.Consume(ctx, conf.Kafka, newAuditor(zaplog))
	err = errors.Join(err, otelShutdown(context.Background()))
	if err != nil {
		zaplog.Error("roll audit stopped", zap.Error(err))
		os.Exit(1)
	}
	zaplog.Info("roll audit stopped")
}

// newAuditor logs every roll event and counts them by outcome.
func newAuditor(zaplog *zap.Logger) kafka.HandleFunc {
	counter, err := otel.Meter("rollaudit").Int64Counter("rollaudit.events",
		metric.WithDescription("The number of roll events consumed"),
		metric.WithUnit("{event}"))
	if err != nil {
		zaplog.Error("failed to create counter", zap.Error(err))
	}

	return func(ctx context.Context, event kafka.RollEvent) {
		if counter != nil {
			counter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", event.OK())))
		}
		fields := []zap.Field{
			zap.Int64("chat_id", event.ChatID),
			zap.String("user", event.User),
			zap.String("notation", event.Notation),
			zap.Time("timestamp", event.Timestamp),
		}
		if !event.OK() {
			zaplog.Info("rejected roll", append(fields, zap.String("error", event.Error))...)
			return
		}
		zaplog.Info("dice roll", append(fields, zap.Ints("rolls", event.Rolls), zap.Int("total", event.Total))...)
	}
}
