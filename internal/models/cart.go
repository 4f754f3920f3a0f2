// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	BaseModel
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_pig"`
	PigID    uuid.UUID `json:"pig_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_pig"`
	Quantity int       `json:"quantity" gorm:"not null;default:1"`

	// Relationships
	Pig Pig `json:"pig,omitempty" gorm:"foreignKey:PigID"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (c *CartItem) TotalPrice() decimal.Decimal {
	return c.Pig.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
