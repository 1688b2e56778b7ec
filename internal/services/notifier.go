package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rafflepay/internal/domain"
)

// winnerTemplate is the template set rendered for winner emails.
const winnerTemplate = "winner"

// WinnerEmailData is the template data for the winner email.
type WinnerEmailData struct {
	*domain.WinnerNotification
	RetailPrice string
	WinnerPrice string
}

type emailNotifier struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailNotifier returns a Notifier that renders the winner template and sends it with mailer.
func NewEmailNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.Notifier {
	return &emailNotifier{mailer: mailer, renderer: renderer, logger: logger}
}

func (n *emailNotifier) Notify(ctx context.Context, data *domain.WinnerNotification) error {
	if data == nil {
		return fmt.Errorf("winner notification is nil")
	}
	if data.Email == "" {
		return fmt.Errorf("winner notification for raffle %s: %w: email is empty", data.RaffleID, domain.ErrInvalidInput)
	}
	view := &WinnerEmailData{
		WinnerNotification: data,
		RetailPrice:        formatCents(data.RetailPriceCents),
		WinnerPrice:        formatCents(data.WinnerPriceCents),
	}
	subject, htmlBody, textBody, err := n.renderer.Render(winnerTemplate, view)
	if err != nil {
		return fmt.Errorf("render winner template: %w", err)
	}
	if err := n.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send winner email: %w", err)
	}
	n.logger.Info("winner email sent", "raffle_id", data.RaffleID, "to", data.Email)
	return nil
}

// MultiNotifier fans a notification out to every notifier and joins their errors.
type MultiNotifier []domain.Notifier

func (m MultiNotifier) Notify(ctx context.Context, data *domain.WinnerNotification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
