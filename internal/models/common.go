// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. Rows are hard-deleted: declined and
// cancelled orders must disappear, and unique pairs (cart, feedback) must be
// reusable afterwards.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// DateOnly truncates t to its calendar date in the local zone, expressed as
// UTC midnight so that it compares equal across drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDate drops the clock part of a date read back from a date column.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Enums
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeStaff    UserType = "staff"
)

// IsStaffType is the single capability predicate for staff-only operations.
func IsStaffType(t UserType) bool {
	return t == UserTypeStaff
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type Breed string

const (
	BreedYorkshire  Breed = "Yorkshire"
	BreedLandrace   Breed = "Landrace"
	BreedDuroc      Breed = "Duroc"
	BreedHampshire  Breed = "Hampshire"
	BreedPietrain   Breed = "Pietrain"
	BreedLargeWhite Breed = "Large White"
	BreedNative     Breed = "Native"
	BreedCrossbreed Breed = "Crossbreed"
)

var Breeds = []Breed{
	BreedYorkshire, BreedLandrace, BreedDuroc, BreedHampshire,
	BreedPietrain, BreedLargeWhite, BreedNative, BreedCrossbreed,
}

func IsValidBreed(s string) bool {
	for _, b := range Breeds {
		if string(b) == s {
			return true
		}
	}
	return false
}

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type DeliveryOption string

const (
	DeliveryHome   DeliveryOption = "home"
	DeliveryPickup DeliveryOption = "pickup"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentGCash PaymentMethod = "gcash"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusAccepted  ReservationStatus = "accepted"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// OrderType tells how an order entered the system.
type OrderType string

const (
	OrderTypeReservation OrderType = "reservation"
	OrderTypePurchase    OrderType = "purchase"
	OrderTypeCheckout    OrderType = "checkout"
)

// RequiresDownPayment reports whether the 50% minimum applies.
func (o OrderType) RequiresDownPayment() bool {
	return o == OrderTypeReservation
}

type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAdmin    SenderType = "admin"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusSeen      MessageStatus = "seen"
)

type FeedbackType string

const (
	FeedbackTypePurchase    FeedbackType = "purchase"
	FeedbackTypeReservation FeedbackType = "reservation"
)
