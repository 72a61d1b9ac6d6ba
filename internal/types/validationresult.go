package types

import "github.com/samber/lo"

// Charge property validation error codes. These strings are a compatibility
// surface consumed by upstream error reporting and must not change.
const (
	ErrCodeInvalidAmount                       = "invalid_amount"
	ErrCodeInvalidGraduatedRanges              = "invalid_graduated_ranges"
	ErrCodeInvalidRanges                       = "invalid_ranges"
	ErrCodeInvalidFreeUnits                    = "invalid_free_units"
	ErrCodeInvalidPackageSize                  = "invalid_package_size"
	ErrCodeInvalidRate                         = "invalid_rate"
	ErrCodeInvalidFixedAmount                  = "invalid_fixed_amount"
	ErrCodeInvalidFreeUnitsPerEvents           = "invalid_free_units_per_events"
	ErrCodeInvalidFreeUnitsPerTotalAggregation = "invalid_free_units_per_total_aggregation"
)

// ValidationResult is the outcome of validating charge properties against
// their model. Errors maps a field name to an ordered list of error codes.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// NewValidationResult returns a passing result
func NewValidationResult() ValidationResult {
	return ValidationResult{Valid: true, Errors: map[string][]string{}}
}

// AddError records an error code for a field and marks the result invalid
func (r *ValidationResult) AddError(field, code string) {
	if r.Errors == nil {
		r.Errors = map[string][]string{}
	}
	r.Valid = false
	r.Errors[field] = append(r.Errors[field], code)
}

// Merge folds another result into this one
func (r *ValidationResult) Merge(other ValidationResult) {
	if other.Valid {
		return
	}
	for field, codes := range other.Errors {
		for _, code := range codes {
			r.AddError(field, code)
		}
	}
}

// FlattenedCodes returns every error code across all fields as a single
// de-duplicated list, preserving first-seen order for each code. The owning
// entity merges this list into its own error bag under one key.
func (r ValidationResult) FlattenedCodes(fieldOrder []string) []string {
	codes := make([]string, 0)
	seen := make(map[string]struct{})
	for _, field := range fieldOrder {
		for _, code := range r.Errors[field] {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	// fields not listed in fieldOrder still contribute, in map order
	remaining := lo.OmitByKeys(r.Errors, fieldOrder)
	for _, fieldCodes := range remaining {
		for _, code := range fieldCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}
