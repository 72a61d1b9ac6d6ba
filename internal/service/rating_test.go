package service

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/meterbill/meterbill/internal/aggregation"
	"github.com/meterbill/meterbill/internal/cache"
	"github.com/meterbill/meterbill/internal/config"
	"github.com/meterbill/meterbill/internal/domain/charge"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/testutil"
	"github.com/meterbill/meterbill/internal/types"
)

type RatingServiceSuite struct {
	suite.Suite
	ctx           context.Context
	ratingService RatingService
	feeCache      cache.Cache
}

func TestRatingService(t *testing.T) {
	suite.Run(t, new(RatingServiceSuite))
}

func (s *RatingServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.feeCache = cache.NewInMemoryCache()
	s.ratingService = NewRatingService(config.GetDefaultConfig(), s.feeCache, logger.NewNopLogger())
}

func (s *RatingServiceSuite) newCharge(model types.ChargeModel, props charge.Properties) *charge.Charge {
	return &charge.Charge{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
		PlanID:     "plan-1",
		MeterID:    "meter-1",
		Model:      model,
		Currency:   "usd",
		Properties: charge.JSONBProperties(props),
		Version:    1,
		BaseModel:  types.GetDefaultBaseModel(s.ctx),
	}
}

func (s *RatingServiceSuite) aggregate(quantity string, eventCount int) *aggregation.UsageAggregate {
	return &aggregation.UsageAggregate{
		Quantity:    decimal.RequireFromString(quantity),
		EventCount:  eventCount,
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *RatingServiceSuite) TestRateStandard() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.RequireFromString("0.03")},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("150", 150))
	s.NoError(err)
	s.Equal(int64(450), f.AmountCents)
	s.Len(f.Breakdown, 1)
	s.Equal("standard", f.Breakdown[0].Description)
}

func (s *RatingServiceSuite) TestRateStandardRoundsHalfUp() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.RequireFromString("0.005")},
	})

	// 3 * 0.005 = 0.015 -> 1.5 cents -> 2 cents
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("3", 3))
	s.NoError(err)
	s.Equal(int64(2), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateStandardZeroQuantity() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.RequireFromString("1")},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("0", 0))
	s.NoError(err)
	s.Equal(int64(0), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateGraduated() {
	c := s.newCharge(types.ChargeModelGraduated, charge.Properties{
		Graduated: &charge.GraduatedProperties{
			Ranges: []charge.ChargeRange{
				{
					FromValue:     decimal.Zero,
					ToValue:       lo.ToPtr(decimal.NewFromInt(100)),
					PerUnitAmount: decimal.RequireFromString("0.10"),
					FlatAmount:    decimal.NewFromInt(5),
				},
				{
					FromValue:     decimal.NewFromInt(100),
					ToValue:       lo.ToPtr(decimal.NewFromInt(200)),
					PerUnitAmount: decimal.RequireFromString("0.05"),
					FlatAmount:    decimal.Zero,
				},
				{
					FromValue:     decimal.NewFromInt(200),
					PerUnitAmount: decimal.RequireFromString("0.01"),
					FlatAmount:    decimal.Zero,
				},
			},
		},
	})

	// 250 units: 100 at 0.10 + 5 flat, 100 at 0.05, 50 at 0.01
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("250", 250))
	s.NoError(err)
	s.Len(f.Breakdown, 3)
	s.Equal("tier 1", f.Breakdown[0].Description)
	s.Equal(int64(1500), f.Breakdown[0].AmountCents)
	s.Equal(int64(500), f.Breakdown[1].AmountCents)
	s.Equal(int64(50), f.Breakdown[2].AmountCents)
	s.Equal(int64(2050), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateGraduatedStopsAtConsumedTier() {
	c := s.newCharge(types.ChargeModelGraduated, charge.Properties{
		Graduated: &charge.GraduatedProperties{
			Ranges: []charge.ChargeRange{
				{
					FromValue:     decimal.Zero,
					ToValue:       lo.ToPtr(decimal.NewFromInt(100)),
					PerUnitAmount: decimal.RequireFromString("0.10"),
					FlatAmount:    decimal.Zero,
				},
				{
					FromValue:     decimal.NewFromInt(100),
					PerUnitAmount: decimal.RequireFromString("0.05"),
					FlatAmount:    decimal.NewFromInt(10),
				},
			},
		},
	})

	// quantity never reaches the second tier, so its flat amount is not billed
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("50", 50))
	s.NoError(err)
	s.Len(f.Breakdown, 1)
	s.Equal(int64(500), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateGraduatedAmountIsBreakdownSum() {
	c := s.newCharge(types.ChargeModelGraduated, charge.Properties{
		Graduated: &charge.GraduatedProperties{
			Ranges: []charge.ChargeRange{
				{
					FromValue:     decimal.Zero,
					ToValue:       lo.ToPtr(decimal.NewFromInt(10)),
					PerUnitAmount: decimal.RequireFromString("0.333"),
					FlatAmount:    decimal.Zero,
				},
				{
					FromValue:     decimal.NewFromInt(10),
					PerUnitAmount: decimal.RequireFromString("0.111"),
					FlatAmount:    decimal.Zero,
				},
			},
		},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("25", 25))
	s.NoError(err)

	var sum int64
	for _, line := range f.Breakdown {
		sum += line.AmountCents
	}
	s.Equal(sum, f.AmountCents)
}

func (s *RatingServiceSuite) TestRateGraduatedIsMonotone() {
	c := s.newCharge(types.ChargeModelGraduated, charge.Properties{
		Graduated: &charge.GraduatedProperties{
			Ranges: []charge.ChargeRange{
				{
					FromValue:     decimal.Zero,
					ToValue:       lo.ToPtr(decimal.NewFromInt(100)),
					PerUnitAmount: decimal.RequireFromString("0.10"),
					FlatAmount:    decimal.NewFromInt(2),
				},
				{
					FromValue:     decimal.NewFromInt(100),
					PerUnitAmount: decimal.RequireFromString("0.05"),
					FlatAmount:    decimal.NewFromInt(1),
				},
			},
		},
	})

	var prev int64
	for _, quantity := range []string{"0", "1", "50", "99", "100", "101", "500", "5000"} {
		f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate(quantity, 1))
		s.NoError(err)
		s.GreaterOrEqual(f.AmountCents, prev, "quantity %s", quantity)
		prev = f.AmountCents
	}
}

func (s *RatingServiceSuite) TestRateVolume() {
	ranges := []charge.ChargeRange{
		{
			FromValue:     decimal.Zero,
			ToValue:       lo.ToPtr(decimal.NewFromInt(100)),
			PerUnitAmount: decimal.RequireFromString("0.10"),
			FlatAmount:    decimal.NewFromInt(1),
		},
		{
			FromValue:     decimal.NewFromInt(100),
			PerUnitAmount: decimal.RequireFromString("0.05"),
			FlatAmount:    decimal.Zero,
		},
	}
	c := s.newCharge(types.ChargeModelVolume, charge.Properties{
		Volume: &charge.VolumeProperties{Ranges: ranges},
	})

	// the whole quantity is priced at its containing tier
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("50", 50))
	s.NoError(err)
	s.Len(f.Breakdown, 1)
	s.Equal("tier 1", f.Breakdown[0].Description)
	s.Equal(int64(600), f.AmountCents)

	f, err = s.ratingService.RateUsage(s.ctx, c, s.aggregate("150", 150))
	s.NoError(err)
	s.Len(f.Breakdown, 1)
	s.Equal("tier 2", f.Breakdown[0].Description)
	s.Equal(int64(750), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateVolumeBoundaryBelongsToUpperTier() {
	c := s.newCharge(types.ChargeModelVolume, charge.Properties{
		Volume: &charge.VolumeProperties{
			Ranges: []charge.ChargeRange{
				{
					FromValue:     decimal.Zero,
					ToValue:       lo.ToPtr(decimal.NewFromInt(100)),
					PerUnitAmount: decimal.NewFromInt(2),
					FlatAmount:    decimal.Zero,
				},
				{
					FromValue:     decimal.NewFromInt(100),
					PerUnitAmount: decimal.NewFromInt(1),
					FlatAmount:    decimal.Zero,
				},
			},
		},
	})

	// ranges are half-open, quantity 100 falls in the second tier
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("100", 100))
	s.NoError(err)
	s.Equal(int64(10000), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePackage() {
	c := s.newCharge(types.ChargeModelPackage, charge.Properties{
		Package: &charge.PackageProperties{
			Amount:      decimal.NewFromInt(5),
			FreeUnits:   100,
			PackageSize: 1000,
		},
	})

	// 2500 units: 100 free, 2400 billable -> 3 packages of 1000
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("2500", 2500))
	s.NoError(err)
	s.Len(f.Breakdown, 2)
	s.Equal("free units", f.Breakdown[0].Description)
	s.Equal(int64(0), f.Breakdown[0].AmountCents)
	s.Equal("packages", f.Breakdown[1].Description)
	s.Equal(int64(1500), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePackageWithinFreeUnits() {
	c := s.newCharge(types.ChargeModelPackage, charge.Properties{
		Package: &charge.PackageProperties{
			Amount:      decimal.NewFromInt(5),
			FreeUnits:   100,
			PackageSize: 1000,
		},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("80", 80))
	s.NoError(err)
	s.Equal(int64(0), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePackageBoundaryBillsOnePackage() {
	c := s.newCharge(types.ChargeModelPackage, charge.Properties{
		Package: &charge.PackageProperties{
			Amount:      decimal.NewFromInt(5),
			FreeUnits:   100,
			PackageSize: 1000,
		},
	})

	// exactly free units plus one package size bills a single package
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("1100", 1100))
	s.NoError(err)
	s.Equal(int64(500), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePackagePartialPackageBillsWhole() {
	c := s.newCharge(types.ChargeModelPackage, charge.Properties{
		Package: &charge.PackageProperties{
			Amount:      decimal.NewFromInt(5),
			FreeUnits:   0,
			PackageSize: 1000,
		},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("1", 1))
	s.NoError(err)
	s.Equal(int64(500), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePercentage() {
	c := s.newCharge(types.ChargeModelPercentage, charge.Properties{
		Percentage: &charge.PercentageProperties{
			Rate:                         decimal.RequireFromString("2.5"),
			FixedAmount:                  decimal.RequireFromString("0.10"),
			FreeUnitsPerEvents:           2,
			FreeUnitsPerTotalAggregation: decimal.NewFromInt(100),
		},
	})

	// 500 aggregated over 10 events: rate on 400, fixed amount on 8 events
	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("500", 10))
	s.NoError(err)
	s.Len(f.Breakdown, 2)
	s.Equal("rate", f.Breakdown[0].Description)
	s.Equal(int64(1000), f.Breakdown[0].AmountCents)
	s.Equal("fixed amount", f.Breakdown[1].Description)
	s.Equal(int64(80), f.Breakdown[1].AmountCents)
	s.Equal(int64(1080), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePercentageFreeUnitsFloorAtZero() {
	c := s.newCharge(types.ChargeModelPercentage, charge.Properties{
		Percentage: &charge.PercentageProperties{
			Rate:                         decimal.NewFromInt(10),
			FreeUnitsPerEvents:           50,
			FreeUnitsPerTotalAggregation: decimal.NewFromInt(1000),
		},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("500", 10))
	s.NoError(err)
	s.Equal(int64(0), f.AmountCents)
}

func (s *RatingServiceSuite) TestRatePercentageNoFixedAmountLine() {
	c := s.newCharge(types.ChargeModelPercentage, charge.Properties{
		Percentage: &charge.PercentageProperties{
			Rate: decimal.NewFromInt(10),
		},
	})

	f, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("100", 5))
	s.NoError(err)
	s.Len(f.Breakdown, 1)
	s.Equal(int64(1000), f.AmountCents)
}

func (s *RatingServiceSuite) TestRateNegativeQuantityFailsFast() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(1)},
	})

	_, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("-1", 1))
	s.Error(err)
	s.True(ierr.IsSystem(err))
}

func (s *RatingServiceSuite) TestRateMissingPropertiesFailsFast() {
	c := s.newCharge(types.ChargeModelGraduated, charge.Properties{})

	_, err := s.ratingService.RateUsage(s.ctx, c, s.aggregate("10", 10))
	s.Error(err)
	s.True(ierr.IsSystem(err))
}

func (s *RatingServiceSuite) TestRateUsageIsMemoized() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(1)},
	})
	agg := s.aggregate("10", 10)

	first, err := s.ratingService.RateUsage(s.ctx, c, agg)
	s.NoError(err)

	second, err := s.ratingService.RateUsage(s.ctx, c, agg)
	s.NoError(err)

	// same rated content, stable fee identity across the cache hit
	s.Equal(first.ID, second.ID)
	s.Equal(first.AmountCents, second.AmountCents)

	// cache hits return a copy, stamping one result must not leak into the next
	second.SubscriptionID = "sub-stamped"
	third, err := s.ratingService.RateUsage(s.ctx, c, agg)
	s.NoError(err)
	s.Empty(third.SubscriptionID)
}

func (s *RatingServiceSuite) TestRateUsageCacheMissOnNewVersion() {
	c := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(1)},
	})
	agg := s.aggregate("10", 10)

	first, err := s.ratingService.RateUsage(s.ctx, c, agg)
	s.NoError(err)

	next := c.NewVersion()
	next.Properties.Standard = &charge.StandardProperties{Amount: decimal.NewFromInt(2)}

	second, err := s.ratingService.RateUsage(s.ctx, next, agg)
	s.NoError(err)
	s.NotEqual(first.ID, second.ID)
	s.Equal(int64(2000), second.AmountCents)
}

func (s *RatingServiceSuite) TestRateAllPreservesOrder() {
	units := make([]RatingUnit, 0, 10)
	for i := 1; i <= 10; i++ {
		c := s.newCharge(types.ChargeModelStandard, charge.Properties{
			Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(int64(i))},
		})
		units = append(units, RatingUnit{Charge: c, Aggregate: s.aggregate("1", 1)})
	}

	fees, err := s.ratingService.RateAll(s.ctx, units)
	s.NoError(err)
	s.Len(fees, 10)
	for i, f := range fees {
		s.Equal(int64((i+1)*100), f.AmountCents)
	}
}

func (s *RatingServiceSuite) TestRateAllPropagatesErrors() {
	good := s.newCharge(types.ChargeModelStandard, charge.Properties{
		Standard: &charge.StandardProperties{Amount: decimal.NewFromInt(1)},
	})
	bad := s.newCharge(types.ChargeModelVolume, charge.Properties{})

	_, err := s.ratingService.RateAll(s.ctx, []RatingUnit{
		{Charge: good, Aggregate: s.aggregate("1", 1)},
		{Charge: bad, Aggregate: s.aggregate("1", 1)},
	})
	s.Error(err)
}
