// internal/models/pig.go
package models

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Piglets are younger than this many months.
const AdultAgeMonths = 6

type Pig struct {
	BaseModel
	Breed       Breed           `json:"breed" gorm:"type:varchar(50);not null;index"`
	AgeMonths   int             `json:"age_months" gorm:"not null"`
	WeightKg    decimal.Decimal `json:"weight_kg" gorm:"type:decimal(6,2);not null"`
	Sex         Sex             `json:"sex" gorm:"type:varchar(1);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Picture     string          `json:"picture,omitempty" gorm:"size:500"`
	Images      pq.StringArray  `json:"images" gorm:"type:text"`
	IsAvailable bool            `json:"is_available" gorm:"default:true;index"`
}

// AgeDisplay renders the age the way the storefront shows it.
func (p *Pig) AgeDisplay() string {
	return AgeDisplay(p.AgeMonths)
}

func AgeDisplay(months int) string {
	if months < 12 {
		return fmt.Sprintf("%d months", months)
	}
	years, rest := months/12, months%12
	if rest > 0 {
		return fmt.Sprintf("%d years %d months", years, rest)
	}
	return fmt.Sprintf("%d years", years)
}

func (p *Pig) IsPiglet() bool {
	return p.AgeMonths < AdultAgeMonths
}
