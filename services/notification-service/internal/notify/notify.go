// Package notify renders customer notifications for order events. There is
// no mail transport: LogMailer writes each message as a structured log line.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/money"
)

var ErrNoRecipient = errors.New("event has no recipient email")

type Message struct {
	To      string
	Subject string
	Body    string
	OrderID string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type LogMailer struct {
	Log zerolog.Logger
}

func (l LogMailer) Send(_ context.Context, m Message) error {
	l.Log.Info().
		Str("to", m.To).
		Str("order_id", m.OrderID).
		Str("subject", m.Subject).
		Str("body", m.Body).
		Msg("notification sent")
	return nil
}

func greeting(firstName string) string {
	if firstName = strings.TrimSpace(firstName); firstName == "" {
		return "Bonjour,"
	}
	return "Bonjour " + firstName + ","
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func OrderConfirmation(orderID string, p models.OrderCreatedPayload) (Message, error) {
	if strings.TrimSpace(p.Email) == "" {
		return Message{}, ErrNoRecipient
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nMerci pour votre commande n°%s.\n\n", greeting(p.FirstName), shortID(orderID))
	for _, it := range p.Items {
		line := money.LineTotal(money.FromCents(it.PriceCents), it.Qty)
		fmt.Fprintf(&b, "- %s x%d : %s €\n", it.Name, it.Qty, line.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal payé : %s €\n", money.FromCents(p.TotalCents).StringFixed(2))
	return Message{
		To:      p.Email,
		Subject: "Confirmation de votre commande " + shortID(orderID),
		Body:    b.String(),
		OrderID: orderID,
	}, nil
}

func DeliveryNotice(orderID string, p models.OrderDeliveredPayload) (Message, error) {
	if strings.TrimSpace(p.Email) == "" {
		return Message{}, ErrNoRecipient
	}
	return Message{
		To:      p.Email,
		Subject: "Votre commande " + shortID(orderID) + " a été livrée",
		Body:    fmt.Sprintf("%s\n\nVotre commande n°%s a été livrée. Bonne dégustation !\n", greeting(p.FirstName), shortID(orderID)),
		OrderID: orderID,
	}, nil
}
