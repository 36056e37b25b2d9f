package config

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	ServiceName string           `env:"SERVICE_NAME, default=rollbot"`
	Host        string           `env:"HOST, default=0.0.0.0"`
	Port        string           `env:"PORT, default=8080"`
	LogLevel    string           `env:"LOG_LEVEL, default=info"`
	Telegram    *TelegramConfig  `env:", prefix=TELEGRAM_"`
	Dice        *DiceConfig      `env:", prefix=DICE_"`
	Kafka       *KafkaConfig     `env:", prefix=KAFKA_"`
	Telemetry   *TelemetryConfig `env:", prefix=OTEL_"`
}

type TelegramConfig struct {
	BotToken    string `env:"BOT_TOKEN"`
	WebhookURL  string `env:"WEBHOOK_URL"`
	WebhookPath string `env:"WEBHOOK_PATH, default=/webhook"`
}

// DiceConfig bounds what a single /r command may ask for. Zero disables the check.
type DiceConfig struct {
	MaxCount int `env:"MAX_COUNT, default=100"`
	MaxSides int `env:"MAX_SIDES, default=1000"`
}

type TelemetryConfig struct {
	ServiceNamespace string `env:"SERVICE_NAMESPACE, default=rollbot"`
	ServiceName      string `env:"SERVICE_NAME, default=rollbot"`
	ExporterEndpoint string `env:"EXPORTER_OTLP_ENDPOINT"`
}

type KafkaConfig struct {
	Brokers       []string `env:"BROKERS, delimiter=;"`
	Topic         string   `env:"TOPIC, default=dice-rolls"`
	ConsumerGroup string   `env:"CONSUMER_GROUP, default=rollaudit"`
}

var (
	ErrMissingBotToken   = errors.New("TELEGRAM_BOT_TOKEN is not set")
	ErrMissingWebhookURL = errors.New("TELEGRAM_WEBHOOK_URL is not set")
	ErrMissingBrokers    = errors.New("KAFKA_BROKERS is not set")
)

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (AppConfig, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (AppConfig, error) {
	var conf AppConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &conf,
		Lookuper: l,
	}); err != nil {
		return AppConfig{}, fmt.Errorf("failed to process config: %w", err)
	}
	return conf, nil
}

// Addr is the listen address of the webhook server.
func (c AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ValidateBot checks the settings the webhook bot cannot start without.
func (c AppConfig) ValidateBot() error {
	var err error
	if c.Telegram.BotToken == "" {
		err = errors.Join(err, ErrMissingBotToken)
	}
	if c.Telegram.WebhookURL == "" {
		err = errors.Join(err, ErrMissingWebhookURL)
	}
	return err
}

// PublishEnabled reports whether roll events should be sent to Kafka.
func (k *KafkaConfig) PublishEnabled() bool {
	return k != nil && len(k.Brokers) > 0
}
