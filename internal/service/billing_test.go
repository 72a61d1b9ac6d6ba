package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/meterbill/meterbill/internal/aggregation"
	"github.com/meterbill/meterbill/internal/cache"
	"github.com/meterbill/meterbill/internal/config"
	"github.com/meterbill/meterbill/internal/domain/charge"
	"github.com/meterbill/meterbill/internal/domain/events"
	"github.com/meterbill/meterbill/internal/domain/meter"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/testutil"
	"github.com/meterbill/meterbill/internal/types"
)

type BillingServiceSuite struct {
	suite.Suite
	ctx            context.Context
	billingService BillingService
	eventRepo      *testutil.InMemoryEventStore
	period         BillingPeriod
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.eventRepo = testutil.NewInMemoryEventStore()

	log := logger.NewNopLogger()
	rating := NewRatingService(config.GetDefaultConfig(), cache.NewInMemoryCache(), log)
	s.billingService = NewBillingService(s.eventRepo, aggregation.NewAggregator(log), rating, log)

	s.period = BillingPeriod{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *BillingServiceSuite) insertUniqueEvent(itemID string, ts time.Time, props map[string]string) {
	ev := events.NewEvent("user_seats", types.DefaultTenantID, "sub-1", props, ts, itemID)
	s.NoError(s.eventRepo.Insert(s.ctx, ev))
}

func (s *BillingServiceSuite) standardCharge(amount string, groupingKeys []string) *charge.Charge {
	return &charge.Charge{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		PlanID:   "plan-1",
		MeterID:  "meter-1",
		Model:    types.ChargeModelStandard,
		Currency: "usd",
		Properties: charge.JSONBProperties{
			Standard: &charge.StandardProperties{Amount: decimal.RequireFromString(amount)},
		},
		GroupingKeys: groupingKeys,
		Version:      1,
		BaseModel:    types.GetDefaultBaseModel(s.ctx),
	}
}

func (s *BillingServiceSuite) uniqueCountMeter() *meter.Meter {
	return &meter.Meter{
		ID:          "meter-1",
		Code:        "user_seats",
		Name:        "User seats",
		Aggregation: types.AggregationCountUnique,
		Recurring:   true,
		BaseModel:   types.GetDefaultBaseModel(s.ctx),
	}
}

// Three events for two distinct items under three grouping keys. The
// duplicate item is only billed once even though its two events disagree on
// one grouping value, so the total comes to 2 units at one dollar each.
func (s *BillingServiceSuite) TestUniqueCountWithGroupingKeys() {
	s.insertUniqueEvent("001", s.period.Start.Add(time.Hour),
		map[string]string{"key_1": "2024", "key_2": "jan", "key_3": "08"})
	s.insertUniqueEvent("001", s.period.Start.Add(2*time.Hour),
		map[string]string{"key_1": "2024", "key_2": "jan", "key_3": "09"})
	s.insertUniqueEvent("002", s.period.Start.Add(3*time.Hour),
		map[string]string{"key_1": "2024", "key_2": "jan", "key_3": "06"})

	c := s.standardCharge("1", []string{"key_1", "key_2", "key_3"})

	result, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, s.uniqueCountMeter(), s.period, nil)
	s.NoError(err)

	var totalCents int64
	var totalUnits decimal.Decimal
	for _, f := range result.Fees {
		totalCents += f.AmountCents
		totalUnits = totalUnits.Add(f.Units)
		s.Equal("sub-1", f.SubscriptionID)
	}
	s.True(totalUnits.Equal(decimal.NewFromInt(2)))
	s.Equal(int64(200), totalCents)
}

func (s *BillingServiceSuite) TestRecurringStateFlowsBetweenPeriods() {
	s.insertUniqueEvent("seat-a", s.period.Start.Add(time.Hour), nil)
	s.insertUniqueEvent("seat-b", s.period.Start.Add(2*time.Hour), nil)

	c := s.standardCharge("1", nil)
	m := s.uniqueCountMeter()

	p1, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, m, s.period, nil)
	s.NoError(err)
	s.Len(p1.Fees, 1)
	s.Equal(int64(200), p1.Fees[0].AmountCents)

	// the next period has no events, the carried items still bill
	nextPeriod := BillingPeriod{
		Start: s.period.End,
		End:   s.period.End.AddDate(0, 1, 0),
	}
	p2, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, m, nextPeriod, p1.NextState)
	s.NoError(err)
	s.Len(p2.Fees, 1)
	s.Equal(int64(200), p2.Fees[0].AmountCents)
	s.True(p2.Fees[0].Units.Equal(decimal.NewFromInt(2)))
}

func (s *BillingServiceSuite) TestCountAggregation() {
	m := &meter.Meter{
		ID:          "meter-1",
		Code:        "api_calls",
		Name:        "API calls",
		Aggregation: types.AggregationCount,
		BaseModel:   types.GetDefaultBaseModel(s.ctx),
	}

	for i := 0; i < 5; i++ {
		ev := events.NewEvent("api_calls", types.DefaultTenantID, "sub-1", nil,
			s.period.Start.Add(time.Duration(i)*time.Hour), "")
		s.NoError(s.eventRepo.Insert(s.ctx, ev))
	}

	c := s.standardCharge("0.25", nil)

	result, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, m, s.period, nil)
	s.NoError(err)
	s.Len(result.Fees, 1)
	s.Equal(int64(125), result.Fees[0].AmountCents)
}

func (s *BillingServiceSuite) TestInvalidChargeIsRejectedBeforeRating() {
	c := &charge.Charge{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		Model:    types.ChargeModelStandard,
		Currency: "usd",
		Properties: charge.JSONBProperties{
			Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(-1)},
		},
		Version:   1,
		BaseModel: types.GetDefaultBaseModel(s.ctx),
	}

	_, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, s.uniqueCountMeter(), s.period, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestNoEventsProducesNoFees() {
	c := s.standardCharge("1", nil)
	m := &meter.Meter{
		ID:          "meter-1",
		Code:        "api_calls",
		Aggregation: types.AggregationCount,
		BaseModel:   types.GetDefaultBaseModel(s.ctx),
	}

	result, err := s.billingService.ProcessChargeUsage(s.ctx, "sub-1", c, m, s.period, nil)
	s.NoError(err)
	s.Empty(result.Fees)
	s.Empty(result.NextState.CarriedOverItemIDs)
}
