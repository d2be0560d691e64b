package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superfoods-store/shared/pkg/models"
)

const orderID = "3f2b9c1e-7a4d-4c1b-9e2f-0d5a6b7c8d9e"

func TestOrderConfirmation(t *testing.T) {
	m, err := OrderConfirmation(orderID, models.OrderCreatedPayload{
		Email:      "awa@example.com",
		FirstName:  "Awa",
		TotalCents: 3430,
		Items: []models.OrderItemPayload{
			{Name: "Poudre de Baobab", Qty: 2, PriceCents: 1290},
			{Name: "Moringa", Qty: 1, PriceCents: 850},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "awa@example.com", m.To)
	assert.Equal(t, "Confirmation de votre commande 3F2B9C1E", m.Subject)
	assert.Contains(t, m.Body, "Bonjour Awa,")
	assert.Contains(t, m.Body, "- Poudre de Baobab x2 : 25.80 €")
	assert.Contains(t, m.Body, "Total payé : 34.30 €")

	_, err = OrderConfirmation(orderID, models.OrderCreatedPayload{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestDeliveryNotice(t *testing.T) {
	m, err := DeliveryNotice(orderID, models.OrderDeliveredPayload{Email: "awa@example.com"})
	require.NoError(t, err)
	assert.Contains(t, m.Body, "Bonjour,")
	assert.Contains(t, m.Subject, "livrée")

	_, err = DeliveryNotice(orderID, models.OrderDeliveredPayload{Email: "  "})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	mailer := LogMailer{Log: zerolog.New(&buf)}
	require.NoError(t, mailer.Send(context.Background(), Message{To: "awa@example.com", Subject: "s", OrderID: orderID}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "notification sent", line["message"])
	assert.Equal(t, "awa@example.com", line["to"])
	assert.Equal(t, orderID, line["order_id"])
}
