package invoice

import (
	"context"

	"github.com/meterbill/meterbill/internal/types"
)

// Invoice is the billable total for one subscription period: the sum of
// rated fees, reduced by applied coupons, floored at zero.
type Invoice struct {
	ID string `db:"id" json:"id"`

	// Number is the human facing invoice number ex INV-XYZ12A8Q
	Number string `db:"number" json:"number"`

	CustomerID string `db:"customer_id" json:"customer_id"`

	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `db:"currency" json:"currency"`

	// FeesAmountCents is the sum of rated fee amounts
	FeesAmountCents int64 `db:"fees_amount_cents" json:"fees_amount_cents"`

	// CouponsAmountCents is the discount actually deducted, capped at the
	// fees total
	CouponsAmountCents int64 `db:"coupons_amount_cents" json:"coupons_amount_cents"`

	// TotalAmountCents = FeesAmountCents - CouponsAmountCents, never below 0
	TotalAmountCents int64 `db:"total_amount_cents" json:"total_amount_cents"`

	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`

	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`

	types.BaseModel
}

// New builds a draft invoice with generated identifiers
func New(ctx context.Context, customerID, subscriptionID, currency string) *Invoice {
	return &Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		Number:         types.GenerateShortIDWithPrefix("INV-"),
		CustomerID:     customerID,
		SubscriptionID: subscriptionID,
		Currency:       currency,
		InvoiceStatus:  types.InvoiceStatusDraft,
		PaymentStatus:  types.PaymentStatusPending,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// Finalize locks the invoice for payment dispatch
func (i *Invoice) Finalize() {
	i.InvoiceStatus = types.InvoiceStatusFinalized
}
