// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeclineNotification struct {
	BaseModel
	UserID   uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	PigBreed string          `json:"pig_breed" gorm:"size:50;not null"`
	PigPrice decimal.Decimal `json:"pig_price" gorm:"type:decimal(10,2);not null"`
	Message  string          `json:"message" gorm:"type:text;not null"`
	IsRead   bool            `json:"is_read" gorm:"default:false;index"`
}
