package types

// CouponApplicationErrorCode is the single business-rule code surfaced when
// a coupon cannot be applied to a customer. Preconditions are evaluated in a
// fixed order and the first failure wins, so exactly one code is returned.
type CouponApplicationErrorCode string

const (
	CouponErrNotFound             CouponApplicationErrorCode = "not_found"
	CouponErrNoActiveSubscription CouponApplicationErrorCode = "no_active_subscription"
	CouponErrAlreadyApplied       CouponApplicationErrorCode = "coupon_already_applied"
	CouponErrCurrenciesDoNotMatch CouponApplicationErrorCode = "currencies_does_not_match"
)

func (c CouponApplicationErrorCode) String() string {
	return string(c)
}
