// Package events publishes order lifecycle events for downstream consumers
// (accounting, SMS reminders). Publication is best effort and never blocks
// an order transition.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationAccepted  EventType = "reservation.accepted"
	ReservationDeclined  EventType = "reservation.declined"
	ReservationCancelled EventType = "reservation.cancelled"
	ReservationCompleted EventType = "reservation.completed"
	ReservationReopened  EventType = "reservation.reopened"
)

// OrderEvent carries enough of the order to act on it without querying the
// database.
type OrderEvent struct {
	Type          EventType       `json:"type"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	UserID        uuid.UUID       `json:"user_id"`
	PigID         uuid.UUID       `json:"pig_id"`
	PigBreed      string          `json:"pig_breed"`
	Price         decimal.Decimal `json:"price"`
	DownPayment   decimal.Decimal `json:"down_payment"`
	OrderType     string          `json:"order_type"`
	Status        string          `json:"status"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}
