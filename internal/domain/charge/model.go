package charge

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meterbill/meterbill/internal/types"
)

// Charge is a pricing rule attached to a plan. The Model tag selects the
// rating algorithm and the shape of Properties. A charge referenced by an
// active subscription period is immutable; changing it requires a new
// Version.
type Charge struct {
	ID string `db:"id" json:"id"`

	// PlanID is the id of the plan this charge belongs to
	PlanID string `db:"plan_id" json:"plan_id"`

	// MeterID is the id of the billable metric this charge rates
	MeterID string `db:"meter_id" json:"meter_id"`

	// Model is the charge model tag ex standard, graduated, volume
	Model types.ChargeModel `db:"model" json:"model"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp.
	// Inherited from the plan and never mixed mid-computation.
	Currency string `db:"currency" json:"currency"`

	// Properties is the model specific configuration. It must validate
	// under the model's validator before the charge is usable for rating.
	Properties JSONBProperties `db:"properties,jsonb" json:"properties"`

	// GroupingKeys partition usage into independent billable sub-streams
	GroupingKeys []string `db:"grouping_keys,jsonb" json:"grouping_keys"`

	// Version increments whenever the charge configuration changes
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// JSONBProperties is the jsonb column type for charge properties
type JSONBProperties Properties

// Properties is a variant over the five charge models. Exactly one of the
// fields is set, matching the charge's Model tag.
type Properties struct {
	Standard   *StandardProperties   `json:"standard,omitempty"`
	Graduated  *GraduatedProperties  `json:"graduated,omitempty"`
	Volume     *VolumeProperties     `json:"volume,omitempty"`
	Package    *PackageProperties    `json:"package,omitempty"`
	Percentage *PercentageProperties `json:"percentage,omitempty"`
}

// StandardProperties prices every unit at a single amount
type StandardProperties struct {
	// Amount per unit in main currency units (e.g., dollars, not cents)
	Amount decimal.Decimal `json:"amount"`
}

// GraduatedProperties prices quantity tier by tier, cumulatively
type GraduatedProperties struct {
	Ranges []ChargeRange `json:"ranges"`
}

// VolumeProperties prices the whole quantity at the single matching tier
type VolumeProperties struct {
	Ranges []ChargeRange `json:"ranges"`
}

// PackageProperties prices usage per bundle of PackageSize units after
// FreeUnits are exhausted
type PackageProperties struct {
	Amount      decimal.Decimal `json:"amount"`
	FreeUnits   int64           `json:"free_units"`
	PackageSize int64           `json:"package_size"`
}

// PercentageProperties prices usage as a rate over the aggregated value
// plus a fixed amount per event
type PercentageProperties struct {
	// Rate is a percentage, ex 2.5 means 2.5%
	Rate decimal.Decimal `json:"rate"`

	// FixedAmount is charged per billable event on top of the rate
	FixedAmount decimal.Decimal `json:"fixed_amount"`

	// FreeUnitsPerEvents is subtracted from the event count before the
	// fixed amount applies
	FreeUnitsPerEvents int64 `json:"free_units_per_events"`

	// FreeUnitsPerTotalAggregation is subtracted from the aggregated value
	// before the rate applies
	FreeUnitsPerTotalAggregation decimal.Decimal `json:"free_units_per_total_aggregation"`
}

// ChargeRange is a contiguous quantity interval [FromValue, ToValue) with
// its own per-unit and flat pricing. ToValue is nil for the open-ended last
// range.
type ChargeRange struct {
	FromValue     decimal.Decimal  `json:"from_value"`
	ToValue       *decimal.Decimal `json:"to_value"`
	PerUnitAmount decimal.Decimal  `json:"per_unit_amount"`
	FlatAmount    decimal.Decimal  `json:"flat_amount"`
}

// Contains reports whether quantity falls inside the range
func (r ChargeRange) Contains(quantity decimal.Decimal) bool {
	if quantity.LessThan(r.FromValue) {
		return false
	}
	if r.ToValue == nil {
		return true
	}
	return quantity.LessThan(*r.ToValue)
}

// Width returns the number of units the range can absorb. The open-ended
// range has no width and absorbs any remainder.
func (r ChargeRange) Width() (decimal.Decimal, bool) {
	if r.ToValue == nil {
		return decimal.Zero, false
	}
	return r.ToValue.Sub(r.FromValue), true
}

// NewVersion returns a copy of the charge with an incremented version.
// Used when a charge referenced by an active period needs mutation.
func (c *Charge) NewVersion() *Charge {
	next := *c
	next.Version = c.Version + 1
	return &next
}

// Scanner/Valuer implementations for JSONBProperties
func (j *JSONBProperties) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for jsonb properties")
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONBProperties) Value() (driver.Value, error) {
	return json.Marshal(j)
}
