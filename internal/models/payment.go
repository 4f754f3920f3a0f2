// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentProof struct {
	BaseModel
	ReservationID uuid.UUID `json:"reservation_id" gorm:"type:uuid;not null;index"`
	FileURL       string    `json:"file_url" gorm:"size:500;not null"`
	FileKey       string    `json:"-" gorm:"size:500"`
	FileName      string    `json:"file_name" gorm:"size:255"`
	Checksum      string    `json:"-" gorm:"size:64;index"`
	Description   string    `json:"description,omitempty" gorm:"size:200"`
	UploadedAt    time.Time `json:"uploaded_at" gorm:"not null"`
}

// Revenue is a completed sale. Breed, customer and payment method are copied
// at completion so the row outlives the reservation and pig it came from.
type Revenue struct {
	BaseModel
	ReservationID *uuid.UUID      `json:"reservation_id" gorm:"type:uuid;uniqueIndex"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PigBreed      string          `json:"pig_breed" gorm:"size:50;not null;index"`
	CustomerName  string          `json:"customer_name" gorm:"size:200;not null"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(10);not null"`
}
