package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "rollbot", conf.ServiceName)
	assert.Equal(t, "0.0.0.0:8080", conf.Addr())
	require.NotNil(t, conf.Telegram)
	assert.Equal(t, "/webhook", conf.Telegram.WebhookPath)
	require.NotNil(t, conf.Dice)
	assert.Equal(t, 100, conf.Dice.MaxCount)
	assert.Equal(t, 1000, conf.Dice.MaxSides)
	require.NotNil(t, conf.Kafka)
	assert.False(t, conf.Kafka.PublishEnabled())
	assert.Equal(t, "dice-rolls", conf.Kafka.Topic)
}

func TestLoadFromEnv(t *testing.T) {
	conf, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"HOST":                        "127.0.0.1",
		"PORT":                        "9000",
		"TELEGRAM_BOT_TOKEN":          "123:abc",
		"TELEGRAM_WEBHOOK_URL":        "https://bot.example.com",
		"DICE_MAX_COUNT":              "0",
		"KAFKA_BROKERS":               "k1:9092;k2:9092",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4317",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", conf.Addr())
	assert.Equal(t, "123:abc", conf.Telegram.BotToken)
	assert.Equal(t, 0, conf.Dice.MaxCount)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, conf.Kafka.Brokers)
	assert.True(t, conf.Kafka.PublishEnabled())
	assert.Equal(t, "collector:4317", conf.Telemetry.ExporterEndpoint)
	assert.NoError(t, conf.ValidateBot())
}

func TestValidateBot(t *testing.T) {
	conf, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	err = conf.ValidateBot()
	assert.ErrorIs(t, err, ErrMissingBotToken)
	assert.ErrorIs(t, err, ErrMissingWebhookURL)
}

func TestLoadInvalid(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DICE_MAX_COUNT": "lots",
	}))
	assert.Error(t, err)
}
