package appliedcoupon

import "context"

// Repository is the persistence boundary for applied coupons
type Repository interface {
	Create(ctx context.Context, appliedCoupon *AppliedCoupon) error
	Get(ctx context.Context, id string) (*AppliedCoupon, error)

	// GetActiveByCustomerAndCoupon returns the active application for the
	// pair, or a not found error
	GetActiveByCustomerAndCoupon(ctx context.Context, customerID, couponID string) (*AppliedCoupon, error)

	// ListActiveByCustomer returns every active application for a customer
	ListActiveByCustomer(ctx context.Context, customerID string) ([]*AppliedCoupon, error)
}
