package subscription

import (
	"time"

	"github.com/meterbill/meterbill/internal/types"
)

// Subscription attaches a customer to a plan for recurring billing
type Subscription struct {
	ID string `db:"id" json:"id"`

	CustomerID string `db:"customer_id" json:"customer_id"`

	PlanID string `db:"plan_id" json:"plan_id"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `db:"currency" json:"currency"`

	// SubscriptionStatus is active until the subscription is terminated
	SubscriptionStatus types.Status `db:"subscription_status" json:"subscription_status"`

	StartedAt time.Time `db:"started_at" json:"started_at"`

	TerminatedAt *time.Time `db:"terminated_at" json:"terminated_at"`

	types.BaseModel
}

// IsActive reports whether the subscription can accrue usage
func (s *Subscription) IsActive() bool {
	return s.SubscriptionStatus == types.StatusActive
}
