// internal/models/reservation.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Reservation struct {
	BaseModel
	UserID         uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	PigID          uuid.UUID         `json:"pig_id" gorm:"type:uuid;not null;index"`
	OrderType      OrderType         `json:"order_type" gorm:"type:varchar(20);not null;default:'reservation';index"`
	Fullname       string            `json:"fullname" gorm:"size:100;not null"`
	ContactNumber  string            `json:"contact_number" gorm:"size:11;not null"`
	Address        string            `json:"address" gorm:"type:text;not null"`
	DeliveryOption DeliveryOption    `json:"delivery_option" gorm:"type:varchar(10);not null"`
	PaymentMethod  PaymentMethod     `json:"payment_method" gorm:"type:varchar(10);not null"`
	DownPayment    decimal.Decimal   `json:"down_payment" gorm:"type:decimal(10,2);not null;default:0"`
	ProofOfPayment string            `json:"proof_of_payment,omitempty" gorm:"size:500"`
	Status         ReservationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	IsPaid         bool              `json:"is_paid" gorm:"default:false;index"`
	PickupDate     *time.Time        `json:"pickup_date" gorm:"type:date;index"`
	PickupTime     string            `json:"pickup_time,omitempty" gorm:"size:5"`

	// Relationships
	User          User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Pig           Pig            `json:"pig,omitempty" gorm:"foreignKey:PigID"`
	PaymentProofs []PaymentProof `json:"payment_proofs,omitempty" gorm:"foreignKey:ReservationID"`
	Revenue       *Revenue       `json:"revenue,omitempty" gorm:"foreignKey:ReservationID"`
}

// IsLive reports whether the reservation still holds its pig.
func (r *Reservation) IsLive() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusAccepted
}

func (r *Reservation) HasProofOfPayment() bool {
	return r.ProofOfPayment != "" || len(r.PaymentProofs) > 0
}
