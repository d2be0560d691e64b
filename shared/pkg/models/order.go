package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentMethodStripe = "Stripe"
	PlaceholderImageURL = "https://via.placeholder.com/150"

	// MaxLineQuantity caps a single product's quantity in a cart or order.
	MaxLineQuantity = 1000
	// MaxStock and MaxNumReviews match the integer columns backing them.
	MaxStock      = math.MaxInt32
	MaxNumReviews = math.MaxInt32
)

// OrderItem is a snapshot of the product at purchase time.
type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Variant   string          `json:"variant,omitempty"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
