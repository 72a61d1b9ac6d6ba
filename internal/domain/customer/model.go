package customer

import (
	"github.com/meterbill/meterbill/internal/types"
)

// Customer represents a billable account
type Customer struct {
	ID string `db:"id" json:"id"`

	Name string `db:"name" json:"name"`

	// ExternalID is the identifier of the customer in the external system
	ExternalID string `db:"external_id" json:"external_id"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur, gbp
	Currency string `db:"currency" json:"currency"`

	types.BaseModel
}
