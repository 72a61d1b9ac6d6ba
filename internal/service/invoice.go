package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/domain/appliedcoupon"
	"github.com/meterbill/meterbill/internal/domain/fee"
	"github.com/meterbill/meterbill/internal/domain/invoice"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
)

// InvoiceService assembles rated fees and coupon adjustments into invoices
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error)
}

// CreateInvoiceRequest carries everything needed to total one invoice
type CreateInvoiceRequest struct {
	CustomerID     string
	SubscriptionID string
	Currency       string
	Fees           []*fee.Fee
	AppliedCoupons []*appliedcoupon.AppliedCoupon
}

type invoiceService struct {
	invoiceRepo invoice.Repository
	logger      *logger.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo invoice.Repository, logger *logger.Logger) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// CreateInvoice totals the fees, deducts applied coupons matching the
// invoice currency, floors the total at zero and persists a finalized
// invoice ready for payment dispatch.
func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error) {
	for _, f := range req.Fees {
		if f.Currency != req.Currency {
			return nil, ierr.NewError("fee currency mismatch").
				WithHintf("Fee %s is in %s but the invoice is in %s", f.ID, f.Currency, req.Currency).
				Mark(ierr.ErrSystem)
		}
	}

	feesTotal := lo.SumBy(req.Fees, func(f *fee.Fee) int64 {
		return f.AmountCents
	})

	couponsTotal := lo.SumBy(req.AppliedCoupons, func(ac *appliedcoupon.AppliedCoupon) int64 {
		if ac.Currency != req.Currency {
			return 0
		}
		return ac.AmountCents
	})
	if couponsTotal > feesTotal {
		couponsTotal = feesTotal
	}

	inv := invoice.New(ctx, req.CustomerID, req.SubscriptionID, req.Currency)
	inv.FeesAmountCents = feesTotal
	inv.CouponsAmountCents = couponsTotal
	inv.TotalAmountCents = feesTotal - couponsTotal
	inv.Finalize()

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"fees_amount_cents", inv.FeesAmountCents,
		"coupons_amount_cents", inv.CouponsAmountCents,
		"total_amount_cents", inv.TotalAmountCents)

	return inv, nil
}
