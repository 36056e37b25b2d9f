// Package bot routes Telegram commands to the dice evaluator and replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rlindsey28/rollbot/dice"
	"github.com/rlindsey28/rollbot/kafka"
	"github.com/rlindsey28/rollbot/logger"
	"github.com/rlindsey28/rollbot/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	StartReply = "Ayyyy, I'm rollin here! >:D"
	HelpHeader = "These commands are currently supported:"
)

const name = "bot"

var (
	tracer = otel.Tracer(name)
)

// Sender delivers replies. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RollPublisher receives an event for every roll command.
type RollPublisher interface {
	PublishRoll(ctx context.Context, event kafka.RollEvent) error
}

type Metrics struct {
	CommandCount metric.Int64Counter
	DiceCount    metric.Int64Counter
}

func (m *Metrics) InitMetrics() {
	log := logger.Get()
	meter := otel.Meter(name)

	var err error
	m.CommandCount, err = meter.Int64Counter("bot.commands",
		metric.WithDescription("The number of bot commands handled"),
		metric.WithUnit("{command}"))
	if err != nil {
		log.Error("failed to create counter", zap.Error(err))
	}
	m.DiceCount, err = meter.Int64Counter("dice.rolls",
		metric.WithDescription("The number of individual dice rolled"),
		metric.WithUnit("{die}"))
	if err != nil {
		log.Error("failed to create counter", zap.Error(err))
	}
}

type Bot struct {
	sender    Sender
	evaluator *dice.Evaluator
	publisher RollPublisher
	commands  *Commands
	metrics   Metrics
	now       func() time.Time
}

type Option func(*Bot)

// WithPublisher publishes a kafka.RollEvent for every /r command.
func WithPublisher(p RollPublisher) Option {
	return func(b *Bot) {
		b.publisher = p
	}
}

func New(sender Sender, evaluator *dice.Evaluator, opts ...Option) *Bot {
	if evaluator == nil {
		evaluator = &dice.Evaluator{}
	}
	b := &Bot{
		sender:    sender,
		evaluator: evaluator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.metrics.InitMetrics()

	b.commands = NewCommands(HelpHeader)
	b.commands.Register("start", "Start the bot.", func(context.Context, *tgbotapi.Message) string {
		return StartReply
	})
	b.commands.Register("help", "Display this text.", func(context.Context, *tgbotapi.Message) string {
		return b.commands.Help()
	})
	b.commands.Register("r", "Roll dice when given the right format (e.g. 2d20+5).", b.roll)

	return b
}

func (b *Bot) Commands() *Commands {
	return b.commands
}

// Reply returns the reply for msg, or false when the message is not a known
// command.
func (b *Bot) Reply(ctx context.Context, msg *tgbotapi.Message) (string, bool) {
	if msg == nil || !msg.IsCommand() {
		return "", false
	}
	cmd := msg.Command()
	run, ok := b.commands.Lookup(cmd)
	if !ok {
		logger.FromCtx(ctx).Debug("unknown command", zap.String("command", cmd))
		return "", false
	}

	metrics.CommandsTotal.WithLabelValues(cmd).Inc()
	if b.metrics.CommandCount != nil {
		b.metrics.CommandCount.Add(ctx, 1, metric.WithAttributes(attribute.String("command", cmd)))
	}
	return run(ctx, msg), true
}

// HandleUpdate answers a single Telegram update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "handleUpdate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("telegram.update_id", update.UpdateID),
		attribute.Int64("telegram.chat_id", msg.Chat.ID),
	)

	text, ok := b.Reply(ctx, msg)
	if !ok {
		return nil
	}

	if _, err := b.sender.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		span.SetStatus(otelcodes.Error, "failed to send reply")
		span.RecordError(err)
		return fmt.Errorf("failed to send reply to chat %d: %w", msg.Chat.ID, err)
	}
	return nil
}

func (b *Bot) roll(ctx context.Context, msg *tgbotapi.Message) string {
	log := logger.FromCtx(ctx)
	notation := strings.TrimSpace(msg.CommandArguments())

	res, err := b.evaluator.EvaluateRoll(notation)
	metrics.RollsTotal.WithLabelValues(outcome(err)).Inc()

	var reply string
	if err != nil {
		reply = err.Error()
		log.Debug("rejected roll", zap.String("notation", notation), zap.Error(err))
	} else {
		reply = res.String()
		metrics.DiceRolledTotal.Add(float64(res.Count))
		if b.metrics.DiceCount != nil {
			b.metrics.DiceCount.Add(ctx, int64(res.Count))
		}
		log.Info("rolled dice", zap.String("notation", notation), zap.Int("total", res.Total))
	}

	if b.publisher != nil {
		b.publish(ctx, msg, notation, res, reply, err)
	}
	return reply
}

func (b *Bot) publish(ctx context.Context, msg *tgbotapi.Message, notation string, res dice.Result, reply string, rollErr error) {
	event := kafka.RollEvent{
		Notation:  notation,
		Count:     res.Count,
		Sides:     res.Sides,
		Modifier:  res.Modifier,
		Rolls:     res.Rolls,
		Total:     res.Total,
		Reply:     reply,
		Timestamp: b.now().UTC(),
	}
	if msg.Chat != nil {
		event.ChatID = msg.Chat.ID
	}
	if msg.From != nil {
		event.User = msg.From.UserName
	}
	if rollErr != nil {
		event.Error = rollErr.Error()
	}

	if err := b.publisher.PublishRoll(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		logger.FromCtx(ctx).Warn("failed to publish roll event", zap.Error(err))
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}

func outcome(err error) string {
	var limitErr *dice.LimitError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, dice.ErrInvalidCount):
		return metrics.OutcomeInvalidCount
	case errors.Is(err, dice.ErrInvalidSides):
		return metrics.OutcomeInvalidSides
	case errors.As(err, &limitErr):
		return metrics.OutcomeLimited
	default:
		return metrics.OutcomeInvalidFormat
	}
}
