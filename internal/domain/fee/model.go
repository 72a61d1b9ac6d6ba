package fee

import (
	"github.com/shopspring/decimal"

	"github.com/meterbill/meterbill/internal/types"
)

// Fee is the result of rating one usage aggregate against one charge.
// AmountCents is always a non-negative integer in the charge's currency and
// equals the exact sum of the breakdown line amounts.
type Fee struct {
	ID string `json:"id"`

	ChargeID string `json:"charge_id"`

	// ChargeVersion pins the charge configuration the fee was rated under
	ChargeVersion int `json:"charge_version"`

	SubscriptionID string `json:"subscription_id"`

	// Currency 3 digit ISO currency code in lowercase, inherited from the
	// charge and never mixed mid-computation
	Currency string `json:"currency"`

	// Units is the rated quantity
	Units decimal.Decimal `json:"units"`

	// EventCount is the number of events behind the rated quantity
	EventCount int `json:"event_count"`

	// AmountCents is the fee total in the currency's minor unit
	AmountCents int64 `json:"amount_cents"`

	// GroupingValues is the grouping-key tuple this fee was rated for,
	// empty for ungrouped usage
	GroupingValues []string `json:"grouping_values,omitempty"`

	// Breakdown lists each tier/package/offset contribution for audit.
	// The sum of line amounts equals AmountCents exactly.
	Breakdown []LineItem `json:"breakdown"`
}

// LineItem is one tier, package or offset contribution within a fee
type LineItem struct {
	Description string          `json:"description"`
	Units       decimal.Decimal `json:"units"`
	AmountCents int64           `json:"amount_cents"`
}

// New builds a fee shell with a generated id
func New(chargeID string, chargeVersion int, subscriptionID, currency string) *Fee {
	return &Fee{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		ChargeID:       chargeID,
		ChargeVersion:  chargeVersion,
		SubscriptionID: subscriptionID,
		Currency:       currency,
		Units:          decimal.Zero,
	}
}

// AddLine appends a breakdown line and keeps the total in sync
func (f *Fee) AddLine(description string, units decimal.Decimal, amountCents int64) {
	f.Breakdown = append(f.Breakdown, LineItem{
		Description: description,
		Units:       units,
		AmountCents: amountCents,
	})
	f.AmountCents += amountCents
}
