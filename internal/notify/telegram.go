// Package notify pushes operator alerts to a Telegram chat: business-rule
// anomalies, rejected payment captures and reconciliation findings. The
// dashboard stays usable without it; a nil Notifier silently drops alerts.
package notify

import (
	"fmt"

	"gala-ops/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier sends operator alerts
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// New creates a Telegram notifier, or nil when alerts are not configured
func New(cfg *config.AlertsConfig, logger *zap.Logger) (*Notifier, error) {
	if !cfg.AlertsEnabled() {
		logger.Info("operator alerts disabled")
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize alert bot: %w", err)
	}

	logger.Info("operator alert channel ready", zap.Int64("chat_id", cfg.ChatID))

	return &Notifier{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

// Alert sends one formatted message to the ops chat. Failures are logged,
// never propagated: alerting must not break the request path.
func (n *Notifier) Alert(format string, args ...any) {
	if n == nil {
		return
	}

	text := fmt.Sprintf(format, args...)
	msg := tgbotapi.NewMessage(n.chatID, text)

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("failed to send operator alert", zap.Error(err), zap.String("text", text))
	}
}

// AnomalyAlert reports a business-rule anomaly for one guest
func (n *Notifier) AnomalyAlert(guestID, kind, detail string) {
	n.Alert("⚠️ revenue anomaly [%s] guest %s: %s", kind, guestID, detail)
}
