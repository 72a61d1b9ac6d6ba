package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/meterbill/meterbill/internal/aggregation"
	"github.com/meterbill/meterbill/internal/cache"
	"github.com/meterbill/meterbill/internal/config"
	"github.com/meterbill/meterbill/internal/domain/charge"
	"github.com/meterbill/meterbill/internal/domain/fee"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/types"
)

// maxRatingWorkers bounds the pool used by RateAll
const maxRatingWorkers = 8

// RatingUnit is one independent (charge, aggregate) pair to rate
type RatingUnit struct {
	Charge    *charge.Charge
	Aggregate *aggregation.UsageAggregate
}

// RatingService rates usage aggregates against validated charges. Rating is
// deterministic and pure given its inputs, which makes fees memoizable by
// (charge id, charge version, aggregate fingerprint) and independent units
// safe to rate in parallel.
type RatingService interface {
	RateUsage(ctx context.Context, c *charge.Charge, agg *aggregation.UsageAggregate) (*fee.Fee, error)
	RateAll(ctx context.Context, units []RatingUnit) ([]*fee.Fee, error)
}

type ratingService struct {
	cfg      *config.Configuration
	feeCache cache.Cache
	logger   *logger.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(cfg *config.Configuration, feeCache cache.Cache, logger *logger.Logger) RatingService {
	return &ratingService{
		cfg:      cfg,
		feeCache: feeCache,
		logger:   logger,
	}
}

// RateUsage applies the charge's model-specific pricing algorithm to one
// usage aggregate and produces a fee. The charge's properties must already
// validate under its model; numeric invariant violations here indicate a
// programming contract breach and surface as system errors rather than
// being clamped.
func (s *ratingService) RateUsage(ctx context.Context, c *charge.Charge, agg *aggregation.UsageAggregate) (*fee.Fee, error) {
	if agg.Quantity.IsNegative() {
		return nil, ierr.NewError("negative usage quantity").
			WithHintf("Aggregate quantity %s violates the rating contract", agg.Quantity).
			Mark(ierr.ErrSystem)
	}

	cacheKey := cache.GenerateKey(cache.PrefixFee, c.ID, c.Version, agg.Fingerprint())
	if s.cfg.Rating.CacheEnabled {
		if cached, ok := s.feeCache.Get(ctx, cacheKey); ok {
			if f, ok := cached.(*fee.Fee); ok {
				// copy so callers can stamp ownership fields without
				// mutating the cached value
				clone := *f
				return &clone, nil
			}
		}
	}

	f := fee.New(c.ID, c.Version, "", c.Currency)
	f.Units = agg.Quantity
	f.EventCount = agg.EventCount
	f.GroupingValues = agg.GroupingValues

	props := charge.Properties(c.Properties)

	var err error
	switch c.Model {
	case types.ChargeModelStandard:
		err = s.rateStandard(f, props.Standard, agg)
	case types.ChargeModelGraduated:
		err = s.rateGraduated(f, props.Graduated, agg)
	case types.ChargeModelVolume:
		err = s.rateVolume(f, props.Volume, agg)
	case types.ChargeModelPackage:
		err = s.ratePackage(f, props.Package, agg)
	case types.ChargeModelPercentage:
		err = s.ratePercentage(f, props.Percentage, agg)
	default:
		err = ierr.NewError("invalid charge model").
			WithHintf("No rating algorithm registered for model %s", c.Model).
			Mark(ierr.ErrSystem)
	}
	if err != nil {
		return nil, err
	}

	if f.AmountCents < 0 {
		return nil, ierr.NewError("negative fee amount").
			WithHintf("Rated amount %d cents violates the rating contract", f.AmountCents).
			Mark(ierr.ErrSystem)
	}

	if s.cfg.Rating.CacheEnabled {
		s.feeCache.Set(ctx, cacheKey, f, s.cfg.Rating.CacheTTL)
	}

	return f, nil
}

// RateAll rates independent units concurrently. Units share no mutable
// state, so ordering within the pool does not affect results; output order
// matches input order.
func (s *ratingService) RateAll(ctx context.Context, units []RatingUnit) ([]*fee.Fee, error) {
	fees := make([]*fee.Fee, len(units))

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(maxRatingWorkers)
	for i, unit := range units {
		i, unit := i, unit
		p.Go(func(ctx context.Context) error {
			f, err := s.RateUsage(ctx, unit.Charge, unit.Aggregate)
			if err != nil {
				return err
			}
			fees[i] = f
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *ratingService) rateStandard(f *fee.Fee, props *charge.StandardProperties, agg *aggregation.UsageAggregate) error {
	if props == nil {
		return missingProperties(types.ChargeModelStandard)
	}

	amount := props.Amount.Mul(agg.Quantity)
	f.AddLine("standard", agg.Quantity, types.AmountToCents(amount, f.Currency))
	return nil
}

// rateGraduated consumes the quantity tier by tier starting from the lowest
// range. A tier contributes its flat amount only when its quota was touched.
func (s *ratingService) rateGraduated(f *fee.Fee, props *charge.GraduatedProperties, agg *aggregation.UsageAggregate) error {
	if props == nil {
		return missingProperties(types.ChargeModelGraduated)
	}

	remaining := agg.Quantity
	for i, r := range props.Ranges {
		tierQuantity := remaining
		if width, bounded := r.Width(); bounded && tierQuantity.GreaterThan(width) {
			tierQuantity = width
		}

		if tierQuantity.IsPositive() {
			amount := r.PerUnitAmount.Mul(tierQuantity).Add(r.FlatAmount)
			f.AddLine(
				fmt.Sprintf("tier %d", i+1),
				tierQuantity,
				types.AmountToCents(amount, f.Currency),
			)
		}

		remaining = remaining.Sub(tierQuantity)
		if !remaining.IsPositive() {
			break
		}
	}

	return nil
}

// rateVolume prices the whole quantity at the single range containing it
func (s *ratingService) rateVolume(f *fee.Fee, props *charge.VolumeProperties, agg *aggregation.UsageAggregate) error {
	if props == nil {
		return missingProperties(types.ChargeModelVolume)
	}

	selected := len(props.Ranges) - 1
	for i, r := range props.Ranges {
		if r.Contains(agg.Quantity) {
			selected = i
			break
		}
	}

	r := props.Ranges[selected]
	amount := r.PerUnitAmount.Mul(agg.Quantity).Add(r.FlatAmount)
	f.AddLine(
		fmt.Sprintf("tier %d", selected+1),
		agg.Quantity,
		types.AmountToCents(amount, f.Currency),
	)
	return nil
}

// ratePackage bills ceil((units - free_units) / package_size) packages
func (s *ratingService) ratePackage(f *fee.Fee, props *charge.PackageProperties, agg *aggregation.UsageAggregate) error {
	if props == nil {
		return missingProperties(types.ChargeModelPackage)
	}

	freeUnits := decimal.NewFromInt(props.FreeUnits)
	billable := agg.Quantity.Sub(freeUnits)
	if billable.IsNegative() {
		billable = decimal.Zero
	}

	if props.FreeUnits > 0 {
		applied := decimal.Min(agg.Quantity, freeUnits)
		f.AddLine("free units", applied, 0)
	}

	packages := billable.Div(decimal.NewFromInt(props.PackageSize)).Ceil()
	amount := props.Amount.Mul(packages)
	f.AddLine("packages", billable, types.AmountToCents(amount, f.Currency))
	return nil
}

// ratePercentage charges a rate over the aggregated value plus a fixed
// amount per event, after free-unit offsets, both floored at zero
func (s *ratingService) ratePercentage(f *fee.Fee, props *charge.PercentageProperties, agg *aggregation.UsageAggregate) error {
	if props == nil {
		return missingProperties(types.ChargeModelPercentage)
	}

	billableUnits := agg.Quantity.Sub(props.FreeUnitsPerTotalAggregation)
	if billableUnits.IsNegative() {
		billableUnits = decimal.Zero
	}

	billableEvents := int64(agg.EventCount) - props.FreeUnitsPerEvents
	if billableEvents < 0 {
		billableEvents = 0
	}

	rateAmount := billableUnits.Mul(props.Rate).Div(decimal.NewFromInt(100))
	f.AddLine("rate", billableUnits, types.AmountToCents(rateAmount, f.Currency))

	if !props.FixedAmount.IsZero() {
		fixedAmount := props.FixedAmount.Mul(decimal.NewFromInt(billableEvents))
		f.AddLine(
			"fixed amount",
			decimal.NewFromInt(billableEvents),
			types.AmountToCents(fixedAmount, f.Currency),
		)
	}

	return nil
}

func missingProperties(model types.ChargeModel) error {
	return ierr.NewError("missing charge properties").
		WithHintf("Charge declares model %s but carries no matching properties", model).
		Mark(ierr.ErrSystem)
}
