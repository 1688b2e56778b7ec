package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func notification() *domain.WinnerNotification {
	return &domain.WinnerNotification{
		Email:            "ash@example.com",
		Username:         "ash",
		RaffleTitle:      "Charizard",
		CardLabel:        "PSA 10",
		RetailPriceCents: 40000,
		WinnerPriceCents: 25050,
		RaffleID:         "raffle-1",
	}
}

func TestNotifier_Notify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &fakeSender{}
	n := NewNotifierWithSender(sender, 4242, logger)

	require.NoError(t, n.Notify(context.Background(), notification()))
	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(4242), msg.ChatID)
	assert.Contains(t, msg.Text, "Winner: ash <ash@example.com>")
	assert.Contains(t, msg.Text, "winner price $250.50")

	sender.err = errors.New("chat not found")
	require.Error(t, n.Notify(context.Background(), notification()))
	require.Error(t, n.Notify(context.Background(), nil))
}

func TestFormatAnnouncement_FallsBackToEmail(t *testing.T) {
	data := notification()
	data.Username = ""
	assert.Contains(t, FormatAnnouncement(data), "Winner: ash@example.com <ash@example.com>")
}
