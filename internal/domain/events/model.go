package events

import (
	"time"

	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
	"github.com/meterbill/meterbill/internal/validator"
)

// Event represents one raw usage record scoped to a subscription and metric.
// Events are consumed as an ordered, finite sequence bounded to one billing
// period plus the look-back needed for recurring carry-over.
type Event struct {
	// Unique identifier for the event
	ID string `json:"id" validate:"required"`

	// Tenant identifier
	TenantID string `json:"tenant_id" validate:"required"`

	// SubscriptionID scopes the event to one subscription
	SubscriptionID string `json:"subscription_id" validate:"required"`

	// Code identifies the billable metric this event feeds
	Code string `json:"code" validate:"required"`

	// ItemID is the distinct item identifier for unique-count metrics
	ItemID string `json:"item_id,omitempty"`

	// Operation marks add/remove activity for unique-count metrics.
	// Empty defaults to add.
	Operation types.EventOperation `json:"operation,omitempty"`

	// Properties carry grouping-key values and summed fields
	Properties map[string]string `json:"properties"`

	// Timestamp is when the usage occurred
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// NewEvent creates a new event with defaults
func NewEvent(
	code, tenantID, subscriptionID string,
	properties map[string]string,
	timestamp time.Time,
	itemID string,
) *Event {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	} else {
		timestamp = timestamp.UTC()
	}

	return &Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		TenantID:       tenantID,
		SubscriptionID: subscriptionID,
		Code:           code,
		ItemID:         itemID,
		Properties:     properties,
		Timestamp:      timestamp,
	}
}

// Validate validates the event
func (e *Event) Validate() error {
	if e.Operation != "" &&
		e.Operation != types.EventOperationAdd &&
		e.Operation != types.EventOperationRemove {
		return ierr.NewError("invalid event operation").
			WithHint("Operation must be add or remove").
			WithReportableDetails(map[string]any{
				"operation": e.Operation,
			}).
			Mark(ierr.ErrValidation)
	}

	return validator.ValidateRequest(e)
}

// IsRemove reports whether this event ends an item's activity
func (e *Event) IsRemove() bool {
	return e.Operation == types.EventOperationRemove
}
