package domain

import "context"

// WinnerNotification holds the data sent to a raffle winner.
type WinnerNotification struct {
	Email            string
	Username         string
	RaffleTitle      string
	CardLabel        string
	RetailPriceCents int64
	WinnerPriceCents int64
	RaffleID         string
}

// Notifier delivers a winner notification. Delivery is best-effort: a failure
// never undoes a committed winner selection.
type Notifier interface {
	Notify(ctx context.Context, n *WinnerNotification) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}
