package charge

import (
	"github.com/shopspring/decimal"

	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// Per-model field order used when flattening error codes into the charge's
// own error bag. Order is part of the reported surface.
var validatorFieldOrder = map[types.ChargeModel][]string{
	types.ChargeModelStandard:   {"amount"},
	types.ChargeModelGraduated:  {"amount", "ranges"},
	types.ChargeModelVolume:     {"amount", "ranges"},
	types.ChargeModelPackage:    {"amount", "free_units", "package_size"},
	types.ChargeModelPercentage: {"rate", "fixed_amount", "free_units_per_events", "free_units_per_total_aggregation"},
}

// ValidateProperties selects exactly one validator by model tag and runs it.
// An unrecognized model tag is a configuration error and fails fast; it is
// never reported as a validation failure. Validators are pure and never
// re-check the tag themselves.
func ValidateProperties(model types.ChargeModel, props Properties) (types.ValidationResult, error) {
	if err := model.Validate(); err != nil {
		return types.ValidationResult{}, err
	}

	switch model {
	case types.ChargeModelStandard:
		return validateStandard(props.Standard), nil
	case types.ChargeModelGraduated:
		return validateGraduated(props.Graduated), nil
	case types.ChargeModelVolume:
		return validateVolume(props.Volume), nil
	case types.ChargeModelPackage:
		return validatePackage(props.Package), nil
	case types.ChargeModelPercentage:
		return validatePercentage(props.Percentage), nil
	default:
		// unreachable given model.Validate above, kept for exhaustiveness
		return types.ValidationResult{}, ierr.NewError("unhandled charge model").
			WithHintf("No validator registered for model %s", model).
			Mark(ierr.ErrSystem)
	}
}

// ValidateProperties validates the charge's properties under its model and
// returns the flattened, de-duplicated error codes the entity layer merges
// into its own error bag under the `properties` key.
func (c *Charge) ValidateProperties() (types.ValidationResult, []string, error) {
	result, err := ValidateProperties(c.Model, Properties(c.Properties))
	if err != nil {
		return types.ValidationResult{}, nil, err
	}
	if result.Valid {
		return result, nil, nil
	}
	return result, result.FlattenedCodes(validatorFieldOrder[c.Model]), nil
}

func validateStandard(props *StandardProperties) types.ValidationResult {
	result := types.NewValidationResult()
	if props == nil || props.Amount.IsNegative() {
		result.AddError("amount", types.ErrCodeInvalidAmount)
	}
	return result
}

func validateGraduated(props *GraduatedProperties) types.ValidationResult {
	result := types.NewValidationResult()
	if props == nil {
		result.AddError("ranges", types.ErrCodeInvalidGraduatedRanges)
		return result
	}

	validateRangeAmounts(props.Ranges, &result)
	if !rangesAreContiguous(props.Ranges) {
		result.AddError("ranges", types.ErrCodeInvalidGraduatedRanges)
	}
	return result
}

func validateVolume(props *VolumeProperties) types.ValidationResult {
	result := types.NewValidationResult()
	if props == nil {
		result.AddError("ranges", types.ErrCodeInvalidRanges)
		return result
	}

	validateRangeAmounts(props.Ranges, &result)
	if !rangesAreContiguous(props.Ranges) {
		result.AddError("ranges", types.ErrCodeInvalidRanges)
	}
	return result
}

func validatePackage(props *PackageProperties) types.ValidationResult {
	result := types.NewValidationResult()
	if props == nil {
		result.AddError("amount", types.ErrCodeInvalidAmount)
		result.AddError("free_units", types.ErrCodeInvalidFreeUnits)
		result.AddError("package_size", types.ErrCodeInvalidPackageSize)
		return result
	}

	if props.Amount.IsNegative() {
		result.AddError("amount", types.ErrCodeInvalidAmount)
	}
	if props.FreeUnits < 0 {
		result.AddError("free_units", types.ErrCodeInvalidFreeUnits)
	}
	if props.PackageSize <= 0 {
		result.AddError("package_size", types.ErrCodeInvalidPackageSize)
	}
	return result
}

func validatePercentage(props *PercentageProperties) types.ValidationResult {
	result := types.NewValidationResult()
	if props == nil {
		result.AddError("rate", types.ErrCodeInvalidRate)
		result.AddError("fixed_amount", types.ErrCodeInvalidFixedAmount)
		result.AddError("free_units_per_events", types.ErrCodeInvalidFreeUnitsPerEvents)
		result.AddError("free_units_per_total_aggregation", types.ErrCodeInvalidFreeUnitsPerTotalAggregation)
		return result
	}

	if props.Rate.IsNegative() {
		result.AddError("rate", types.ErrCodeInvalidRate)
	}
	if props.FixedAmount.IsNegative() {
		result.AddError("fixed_amount", types.ErrCodeInvalidFixedAmount)
	}
	if props.FreeUnitsPerEvents < 0 {
		result.AddError("free_units_per_events", types.ErrCodeInvalidFreeUnitsPerEvents)
	}
	if props.FreeUnitsPerTotalAggregation.IsNegative() {
		result.AddError("free_units_per_total_aggregation", types.ErrCodeInvalidFreeUnitsPerTotalAggregation)
	}
	return result
}

// validateRangeAmounts flags negative per-unit or flat amounts
func validateRangeAmounts(ranges []ChargeRange, result *types.ValidationResult) {
	for _, r := range ranges {
		if r.PerUnitAmount.IsNegative() || r.FlatAmount.IsNegative() {
			result.AddError("amount", types.ErrCodeInvalidAmount)
			return
		}
	}
}

// rangesAreContiguous enforces the structural invariant shared by graduated
// and volume models: ranges non-empty, ascending, first range starting at 0,
// each bounded range [from, to) with to > from, next from equal to previous
// to, and at most one open-ended range which must be last.
func rangesAreContiguous(ranges []ChargeRange) bool {
	if len(ranges) == 0 {
		return false
	}

	if !ranges[0].FromValue.Equal(decimal.Zero) {
		return false
	}

	for i, r := range ranges {
		last := i == len(ranges)-1

		if r.ToValue == nil {
			// open-ended range must be the last one
			if !last {
				return false
			}
			continue
		}

		if !r.ToValue.GreaterThan(r.FromValue) {
			return false
		}

		if !last && !ranges[i+1].FromValue.Equal(*r.ToValue) {
			return false
		}
	}

	return true
}
