package bot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rlindsey28/rollbot/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxUpdateBytes = 1 << 20

// Requester issues Bot API calls. *tgbotapi.BotAPI implements it.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Webhook is the HTTP handler Telegram posts updates to. Any decodable
// update is acknowledged with 200, even if the reply could not be sent,
// so Telegram does not redeliver it.
func (b *Bot) Webhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		log.Warn("failed to decode update", zap.Error(err))
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	log = log.With(zap.Int("update_id", update.UpdateID))
	ctx := logger.WithCtx(r.Context(), log)
	if err := b.HandleUpdate(ctx, update); err != nil {
		log.Error("failed to handle update", zap.Error(err))
	}
	w.WriteHeader(http.StatusOK)
}

// Register points Telegram at webhookURL and publishes the command list.
func Register(api Requester, webhookURL string, commands *Commands) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid webhook url %q: %w", webhookURL, err)
	}
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook url %q: %w", webhookURL, err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands.BotCommands()...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}
