package appliedcoupon

import (
	"context"

	"github.com/meterbill/meterbill/internal/types"
)

// AppliedCoupon is one active application of a coupon to a customer. At most
// one active application exists per (customer, coupon) pair.
type AppliedCoupon struct {
	ID string `db:"id" json:"id"`

	CouponID string `db:"coupon_id" json:"coupon_id"`

	CustomerID string `db:"customer_id" json:"customer_id"`

	// AmountCents is the applied discount, either the coupon's own amount
	// or the override supplied at application time
	AmountCents int64 `db:"amount_cents" json:"amount_cents"`

	// Currency of the applied amount
	Currency string `db:"currency" json:"currency"`

	types.BaseModel
}

// New builds an applied coupon record
func New(ctx context.Context, couponID, customerID string, amountCents int64, currency string) *AppliedCoupon {
	return &AppliedCoupon{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_APPLIED_COUPON),
		CouponID:    couponID,
		CustomerID:  customerID,
		AmountCents: amountCents,
		Currency:    currency,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}
