package meter

import (
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// Meter is a billable metric: it names the event stream and the way raw
// events reduce to a billable quantity.
type Meter struct {
	ID string `db:"id" json:"id"`

	// Code matches the Code on incoming events
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// Aggregation reduces events to a quantity
	Aggregation types.AggregationType `db:"aggregation" json:"aggregation"`

	// Field is the event property read by SUM, or the item identifier
	// source for COUNT_UNIQUE when events carry it as a property
	Field string `db:"field" json:"field"`

	// Recurring metrics keep their distinct-item state across billing
	// periods instead of resetting to zero
	Recurring bool `db:"recurring" json:"recurring"`

	types.BaseModel
}

// Validate checks the meter configuration
func (m *Meter) Validate() error {
	if m.Code == "" {
		return ierr.NewError("meter code is required").
			WithHint("Meter code is required").
			Mark(ierr.ErrValidation)
	}
	if !m.Aggregation.Validate() {
		return ierr.NewError("invalid aggregation type").
			WithHint("Please provide a valid aggregation type").
			WithReportableDetails(map[string]any{
				"aggregation": m.Aggregation,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.Aggregation == types.AggregationSum && m.Field == "" {
		return ierr.NewError("field is required for SUM aggregation").
			WithHint("SUM aggregation requires a field to sum over").
			Mark(ierr.ErrValidation)
	}
	return nil
}
