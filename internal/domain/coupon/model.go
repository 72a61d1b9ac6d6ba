package coupon

import (
	"time"

	"github.com/meterbill/meterbill/internal/types"
)

// Coupon represents a fixed-amount discount that can be applied to a
// customer's invoices
type Coupon struct {
	ID string `db:"id" json:"id"`

	Name string `db:"name" json:"name"`

	Code string `db:"code" json:"code"`

	// AmountCents is the discount in the currency's minor unit
	AmountCents int64 `db:"amount_cents" json:"amount_cents"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `db:"currency" json:"currency"`

	// ExpirationDate is the last day the coupon can be applied, nil for no
	// expiration
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date"`

	types.BaseModel
}

// IsActive reports whether the coupon can still be applied. A terminated or
// expired coupon behaves as if it does not exist.
func (c *Coupon) IsActive() bool {
	if c.Status != types.StatusActive {
		return false
	}
	if c.ExpirationDate != nil && time.Now().UTC().After(*c.ExpirationDate) {
		return false
	}
	return true
}
