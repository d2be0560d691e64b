package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated   = "orders.created"
	EventOrderDelivered = "orders.delivered"
	EventProductCreated = "products.created"
	EventProductUpdated = "products.updated"
	EventProductDeleted = "products.deleted"
	currentEventVersion = 1
)

// Event is the envelope written to the outbox and published to the broker.
// AggregateID is the order or product the event is about.
type Event[T any] struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Version     int       `json:"version"`
	Time        time.Time `json:"time"`
	AggregateID string    `json:"aggregate_id"`
	Payload     T         `json:"payload"`
}

// Envelope is the type-erased view of an Event used by the outbox.
type Envelope interface {
	EventID() string
	EventType() string
	Aggregate() string
	OccurredAt() time.Time
}

func (e Event[T]) EventID() string       { return e.ID }
func (e Event[T]) EventType() string     { return e.Type }
func (e Event[T]) Aggregate() string     { return e.AggregateID }
func (e Event[T]) OccurredAt() time.Time { return e.Time }

func NewEvent[T any](eventType, aggregateID string, payload T) Event[T] {
	return Event[T]{
		ID:          uuid.NewString(),
		Type:        eventType,
		Version:     currentEventVersion,
		Time:        time.Now().UTC(),
		AggregateID: aggregateID,
		Payload:     payload,
	}
}

type OrderItemPayload struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreatedPayload struct {
	UserID     string             `json:"user_id"`
	Email      string             `json:"email"`
	FirstName  string             `json:"first_name"`
	TotalCents int64              `json:"total_cents"`
	Items      []OrderItemPayload `json:"items"`
}

type OrderDeliveredPayload struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

type ProductChangedPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Stock     int    `json:"stock"`
}
