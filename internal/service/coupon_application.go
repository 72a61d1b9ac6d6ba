package service

import (
	"context"

	"github.com/meterbill/meterbill/internal/domain/appliedcoupon"
	"github.com/meterbill/meterbill/internal/domain/coupon"
	"github.com/meterbill/meterbill/internal/domain/customer"
	"github.com/meterbill/meterbill/internal/domain/subscription"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/types"
)

// ApplyCouponRequest carries the application parameters. AmountCents and
// Currency optionally override the coupon's own amount at application time;
// this is a deliberate allow-override policy.
type ApplyCouponRequest struct {
	CustomerID  string
	CouponID    string
	AmountCents *int64
	Currency    *string
}

// ApplyCouponResult is a tagged business-rule result: Success with the
// created application, or exactly one error code. Business-rule failures
// are never raised as errors.
type ApplyCouponResult struct {
	Success       bool
	ErrorCode     types.CouponApplicationErrorCode
	AppliedCoupon *appliedcoupon.AppliedCoupon
}

func failure(code types.CouponApplicationErrorCode) ApplyCouponResult {
	return ApplyCouponResult{ErrorCode: code}
}

// CouponApplicationService checks coupon eligibility and records successful
// applications
type CouponApplicationService interface {
	ApplyCoupon(ctx context.Context, req ApplyCouponRequest) (ApplyCouponResult, error)
}

type couponApplicationService struct {
	customerRepo      customer.Repository
	couponRepo        coupon.Repository
	subscriptionRepo  subscription.Repository
	appliedCouponRepo appliedcoupon.Repository
	logger            *logger.Logger
}

// NewCouponApplicationService creates a new coupon application service
func NewCouponApplicationService(
	customerRepo customer.Repository,
	couponRepo coupon.Repository,
	subscriptionRepo subscription.Repository,
	appliedCouponRepo appliedcoupon.Repository,
	logger *logger.Logger,
) CouponApplicationService {
	return &couponApplicationService{
		customerRepo:      customerRepo,
		couponRepo:        couponRepo,
		subscriptionRepo:  subscriptionRepo,
		appliedCouponRepo: appliedCouponRepo,
		logger:            logger,
	}
}

// ApplyCoupon evaluates the eligibility preconditions in a fixed order and
// short-circuits on the first failure, so exactly one code is surfaced when
// several conditions fail at once. The returned error is reserved for
// infrastructure failures; business outcomes live in the result.
func (s *couponApplicationService) ApplyCoupon(ctx context.Context, req ApplyCouponRequest) (ApplyCouponResult, error) {
	cust, err := s.customerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return failure(types.CouponErrNotFound), nil
		}
		return ApplyCouponResult{}, err
	}

	cpn, err := s.couponRepo.Get(ctx, req.CouponID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return failure(types.CouponErrNotFound), nil
		}
		return ApplyCouponResult{}, err
	}
	// an inactive coupon behaves as if it does not exist
	if !cpn.IsActive() {
		return failure(types.CouponErrNotFound), nil
	}

	subs, err := s.subscriptionRepo.ListActiveByCustomer(ctx, cust.ID)
	if err != nil {
		return ApplyCouponResult{}, err
	}
	if len(subs) == 0 {
		return failure(types.CouponErrNoActiveSubscription), nil
	}

	existing, err := s.appliedCouponRepo.GetActiveByCustomerAndCoupon(ctx, cust.ID, cpn.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return ApplyCouponResult{}, err
	}
	if existing != nil {
		return failure(types.CouponErrAlreadyApplied), nil
	}

	appliedAmount := cpn.AmountCents
	appliedCurrency := cpn.Currency
	if req.AmountCents != nil {
		appliedAmount = *req.AmountCents
	}
	if req.Currency != nil {
		appliedCurrency = *req.Currency
	}

	if appliedCurrency != cust.Currency {
		return failure(types.CouponErrCurrenciesDoNotMatch), nil
	}

	applied := appliedcoupon.New(ctx, cpn.ID, cust.ID, appliedAmount, appliedCurrency)
	if err := s.appliedCouponRepo.Create(ctx, applied); err != nil {
		return ApplyCouponResult{}, err
	}

	s.logger.Infow("applied coupon to customer",
		"coupon_id", cpn.ID,
		"customer_id", cust.ID,
		"amount_cents", appliedAmount,
		"currency", appliedCurrency)

	return ApplyCouponResult{Success: true, AppliedCoupon: applied}, nil
}
