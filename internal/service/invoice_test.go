package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/meterbill/meterbill/internal/domain/appliedcoupon"
	"github.com/meterbill/meterbill/internal/domain/fee"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/testutil"
	"github.com/meterbill/meterbill/internal/types"
)

type InvoiceServiceSuite struct {
	suite.Suite
	ctx            context.Context
	invoiceService InvoiceService
	invoiceRepo    *testutil.InMemoryInvoiceStore
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.invoiceRepo = testutil.NewInMemoryInvoiceStore()
	s.invoiceService = NewInvoiceService(s.invoiceRepo, logger.NewNopLogger())
}

func (s *InvoiceServiceSuite) usdFee(amountCents int64) *fee.Fee {
	f := fee.New("charge-1", 1, "sub-1", "usd")
	f.AmountCents = amountCents
	return f
}

func (s *InvoiceServiceSuite) usdCoupon(amountCents int64) *appliedcoupon.AppliedCoupon {
	return appliedcoupon.New(s.ctx, "coupon-1", "cust-1", amountCents, "usd")
}

func (s *InvoiceServiceSuite) TestCreateInvoiceTotals() {
	inv, err := s.invoiceService.CreateInvoice(s.ctx, CreateInvoiceRequest{
		CustomerID:     "cust-1",
		SubscriptionID: "sub-1",
		Currency:       "usd",
		Fees:           []*fee.Fee{s.usdFee(1500), s.usdFee(500)},
		AppliedCoupons: []*appliedcoupon.AppliedCoupon{s.usdCoupon(300)},
	})
	s.NoError(err)
	s.Equal(int64(2000), inv.FeesAmountCents)
	s.Equal(int64(300), inv.CouponsAmountCents)
	s.Equal(int64(1700), inv.TotalAmountCents)
	s.Equal(types.InvoiceStatusFinalized, inv.InvoiceStatus)
	s.Equal(types.PaymentStatusPending, inv.PaymentStatus)
	s.NotEmpty(inv.Number)

	stored, err := s.invoiceRepo.Get(s.ctx, inv.ID)
	s.NoError(err)
	s.Equal(inv.TotalAmountCents, stored.TotalAmountCents)
}

func (s *InvoiceServiceSuite) TestCouponsAreCappedAtFeesTotal() {
	inv, err := s.invoiceService.CreateInvoice(s.ctx, CreateInvoiceRequest{
		CustomerID:     "cust-1",
		SubscriptionID: "sub-1",
		Currency:       "usd",
		Fees:           []*fee.Fee{s.usdFee(1000)},
		AppliedCoupons: []*appliedcoupon.AppliedCoupon{s.usdCoupon(2500)},
	})
	s.NoError(err)
	s.Equal(int64(1000), inv.CouponsAmountCents)
	s.Equal(int64(0), inv.TotalAmountCents)
}

func (s *InvoiceServiceSuite) TestForeignCurrencyCouponsAreIgnored() {
	eurCoupon := appliedcoupon.New(s.ctx, "coupon-2", "cust-1", 500, "eur")

	inv, err := s.invoiceService.CreateInvoice(s.ctx, CreateInvoiceRequest{
		CustomerID:     "cust-1",
		SubscriptionID: "sub-1",
		Currency:       "usd",
		Fees:           []*fee.Fee{s.usdFee(1000)},
		AppliedCoupons: []*appliedcoupon.AppliedCoupon{s.usdCoupon(200), eurCoupon},
	})
	s.NoError(err)
	s.Equal(int64(200), inv.CouponsAmountCents)
	s.Equal(int64(800), inv.TotalAmountCents)
}

func (s *InvoiceServiceSuite) TestNoFeesProducesZeroInvoice() {
	inv, err := s.invoiceService.CreateInvoice(s.ctx, CreateInvoiceRequest{
		CustomerID:     "cust-1",
		SubscriptionID: "sub-1",
		Currency:       "usd",
		AppliedCoupons: []*appliedcoupon.AppliedCoupon{s.usdCoupon(500)},
	})
	s.NoError(err)
	s.Equal(int64(0), inv.FeesAmountCents)
	s.Equal(int64(0), inv.CouponsAmountCents)
	s.Equal(int64(0), inv.TotalAmountCents)
}

func (s *InvoiceServiceSuite) TestMixedFeeCurrencyIsRejected() {
	eurFee := fee.New("charge-2", 1, "sub-1", "eur")
	eurFee.AmountCents = 100

	_, err := s.invoiceService.CreateInvoice(s.ctx, CreateInvoiceRequest{
		CustomerID:     "cust-1",
		SubscriptionID: "sub-1",
		Currency:       "usd",
		Fees:           []*fee.Fee{s.usdFee(1000), eurFee},
	})
	s.Error(err)
}
