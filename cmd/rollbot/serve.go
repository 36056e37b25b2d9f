package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rlindsey28/rollbot/bot"
	"github.com/rlindsey28/rollbot/config"
	"github.com/rlindsey28/rollbot/dice"
	"github.com/rlindsey28/rollbot/health"
	"github.com/rlindsey28/rollbot/kafka"
	"github.com/rlindsey28/rollbot/logger"
	"github.com/rlindsey28/rollbot/metrics"
	"github.com/rlindsey28/rollbot/telemetry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Register the Telegram webhook and serve updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) (err error) {
	// Handle SIGINT and SIGTERM gracefully.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := conf.ValidateBot(); err != nil {
		return err
	}
	zaplog := logger.Init(conf.ServiceName, conf.LogLevel)
	ctx = logger.WithCtx(ctx, zaplog)

	otelShutdown, err := telemetry.SetupOtelSDK(ctx, conf.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to setup otel: %w", err)
	}
	defer func() {
		err = errors.Join(err, otelShutdown(context.Background()))
	}()

	api, err := tgbotapi.NewBotAPI(conf.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	zaplog.Info("authorized on telegram", zap.String("bot", api.Self.UserName))

	var opts []bot.Option
	if conf.Kafka.PublishEnabled() {
		producer, err := kafka.NewProducer(conf.Kafka)
		if err != nil {
			return err
		}
		publisher := kafka.NewPublisher(conf.Kafka.Topic, producer)
		defer func() {
			if err := publisher.Close(); err != nil {
				zaplog.Warn("failed to close producer", zap.Error(err))
			}
		}()
		opts = append(opts, bot.WithPublisher(publisher))
		zaplog.Info("publishing roll events", zap.String("topic", conf.Kafka.Topic))
	}

	rollBot := bot.New(api, dice.NewEvaluator(dice.Limits{
		MaxCount: conf.Dice.MaxCount,
		MaxSides: conf.Dice.MaxSides,
	}), opts...)

	router := mux.NewRouter()
	healthHandler := health.Handler{Service: conf.ServiceName}
	router.HandleFunc("/health", healthHandler.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc(conf.Telegram.WebhookPath, rollBot.Webhook).Methods(http.MethodPost)

	zaplog.Debug("starting server", zap.String("service-name", conf.ServiceName), zap.String("addr", conf.Addr()))
	srv, srvErr, err := startServer(ctx, conf.Addr(), router)
	if err != nil {
		return err
	}

	// Telegram starts delivering as soon as the webhook is set, so the
	// listener has to be bound first.
	webhookURL := strings.TrimRight(conf.Telegram.WebhookURL, "/") + conf.Telegram.WebhookPath
	if err := bot.Register(api, webhookURL, rollBot.Commands()); err != nil {
		_ = srv.Close()
		return err
	}
	zaplog.Info("webhook registered", zap.String("url", webhookURL))

	select {
	case err := <-srvErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		zaplog.Info("shutting down server")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startServer binds addr and serves handler in the background. When it
// returns without error the listener is already accepting connections.
func startServer(ctx context.Context, addr string, handler http.Handler) (*http.Server, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Addr:         ln.Addr().String(),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		Handler:      handler,
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Serve(ln)
	}()
	return srv, srvErr, nil
}
