// internal/services/pricing.go
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

// Pricing applies the delivery fee and minimum down-payment rules.
type Pricing struct {
	DeliveryFee         decimal.Decimal
	MinDownPaymentRatio decimal.Decimal
}

func NewPricing(cfg config.BusinessConfig) Pricing {
	return Pricing{
		DeliveryFee:         cfg.DeliveryFee,
		MinDownPaymentRatio: cfg.MinDownPaymentRatio,
	}
}

func (p Pricing) Fee(option models.DeliveryOption) decimal.Decimal {
	if option == models.DeliveryHome {
		return p.DeliveryFee
	}
	return decimal.Zero
}

func (p Pricing) Total(price decimal.Decimal, option models.DeliveryOption) decimal.Decimal {
	return price.Add(p.Fee(option))
}

func (p Pricing) MinimumDownPayment(price decimal.Decimal, option models.DeliveryOption) decimal.Decimal {
	return p.Total(price, option).Mul(p.MinDownPaymentRatio).Round(2)
}

func (p Pricing) ratioPercent() string {
	return p.MinDownPaymentRatio.Mul(decimal.NewFromInt(100)).String()
}

func (p Pricing) feeNote(option models.DeliveryOption) string {
	if option == models.DeliveryHome {
		return fmt.Sprintf(" (including ₱%s delivery fee)", p.DeliveryFee.String())
	}
	return ""
}

// CheckDownPayment rejects an order whose down payment is under the minimum.
func (p Pricing) CheckDownPayment(price, downPayment decimal.Decimal, option models.DeliveryOption) error {
	minimum := p.MinimumDownPayment(price, option)
	if downPayment.LessThan(minimum) {
		return fmt.Errorf("%w: Minimum %s%% down payment required (₱%s)%s. You entered ₱%s. You can pay any amount equal to or higher than the minimum.",
			ErrValidation, p.ratioPercent(), minimum.StringFixed(2), p.feeNote(option), downPayment.StringFixed(2))
	}
	return nil
}

// CheckAcceptable is the accept-time variant of CheckDownPayment.
func (p Pricing) CheckAcceptable(r *models.Reservation) error {
	minimum := p.MinimumDownPayment(r.Pig.Price, r.DeliveryOption)
	if r.DownPayment.LessThan(minimum) {
		return fmt.Errorf("%w: Cannot accept reservation for %s: Payment of ₱%s is insufficient. Minimum %s%% down payment required: ₱%s%s.",
			ErrValidation, r.Fullname, r.DownPayment.StringFixed(2), p.ratioPercent(), minimum.StringFixed(2), p.feeNote(r.DeliveryOption))
	}
	return nil
}

// RequiredPayment is what staff expect up front for a pending order.
func (p Pricing) RequiredPayment(r *models.Reservation) decimal.Decimal {
	if !r.DownPayment.IsPositive() {
		return decimal.Zero
	}
	return p.MinimumDownPayment(r.Pig.Price, r.DeliveryOption)
}
