package types

import (
	"github.com/samber/lo"

	ierr "github.com/meterbill/meterbill/internal/errors"
)

// ChargeModel determines the pricing algorithm used to rate usage
type ChargeModel string

const (
	ChargeModelStandard   ChargeModel = "standard"
	ChargeModelGraduated  ChargeModel = "graduated"
	ChargeModelVolume     ChargeModel = "volume"
	ChargeModelPackage    ChargeModel = "package"
	ChargeModelPercentage ChargeModel = "percentage"
)

func (m ChargeModel) String() string {
	return string(m)
}

// Validate fails fast on an unrecognized model tag. This is a configuration
// error, not a validation failure of the charge properties.
func (m ChargeModel) Validate() error {
	allowed := []ChargeModel{
		ChargeModelStandard,
		ChargeModelGraduated,
		ChargeModelVolume,
		ChargeModelPackage,
		ChargeModelPercentage,
	}

	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid charge model").
			WithHint("Please provide a valid charge model").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"model":   m,
			}).
			Mark(ierr.ErrSystem)
	}

	return nil
}
