// Package telegram announces raffle winners to an operator chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rafflepay/internal/domain"
)

// Sender is the subset of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier implements domain.Notifier by posting to a fixed admin chat.
type Notifier struct {
	sender Sender
	chatID int64
	logger *slog.Logger
}

// NewNotifier authorizes the bot token and returns a Notifier for chatID.
func NewNotifier(token string, chatID int64, logger *slog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return NewNotifierWithSender(bot, chatID, logger), nil
}

// NewNotifierWithSender returns a Notifier that posts through sender.
func NewNotifierWithSender(sender Sender, chatID int64, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

var _ domain.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(ctx context.Context, data *domain.WinnerNotification) error {
	if data == nil {
		return fmt.Errorf("winner notification is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatAnnouncement(data))
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.logger.Info("winner announced on telegram", "raffle_id", data.RaffleID, "chat_id", n.chatID)
	return nil
}

// FormatAnnouncement renders the plain-text operator announcement.
func FormatAnnouncement(data *domain.WinnerNotification) string {
	winner := data.Username
	if winner == "" {
		winner = data.Email
	}
	return fmt.Sprintf("Raffle closed: %s (%s)\nWinner: %s <%s>\nRetail %s, winner price %s\nRaffle ID: %s",
		data.RaffleTitle, data.CardLabel, winner, data.Email,
		cents(data.RetailPriceCents), cents(data.WinnerPriceCents), data.RaffleID)
}

func cents(c int64) string {
	return fmt.Sprintf("$%d.%02d", c/100, c%100)
}
