package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/aggregation"
	"github.com/meterbill/meterbill/internal/domain/charge"
	"github.com/meterbill/meterbill/internal/domain/events"
	"github.com/meterbill/meterbill/internal/domain/fee"
	"github.com/meterbill/meterbill/internal/domain/meter"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
)

// BillingPeriod bounds one rating run
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// ChargeUsageResult is the outcome of rating one charge for one period:
// the fees per grouping partition and the terminal aggregation state to
// seed the next period for recurring metrics.
type ChargeUsageResult struct {
	Fees       []*fee.Fee
	Aggregates map[string]*aggregation.UsageAggregate
	NextState  *aggregation.PriorPeriodState
}

// BillingService runs the usage pipeline for one (subscription, charge,
// period) unit: fetch events, aggregate per grouping partition, rate each
// partition against the charge.
type BillingService interface {
	ProcessChargeUsage(
		ctx context.Context,
		subscriptionID string,
		c *charge.Charge,
		m *meter.Meter,
		period BillingPeriod,
		priorState *aggregation.PriorPeriodState,
	) (*ChargeUsageResult, error)
}

type billingService struct {
	eventRepo  events.Repository
	aggregator *aggregation.Aggregator
	rating     RatingService
	logger     *logger.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(
	eventRepo events.Repository,
	aggregator *aggregation.Aggregator,
	rating RatingService,
	logger *logger.Logger,
) BillingService {
	return &billingService{
		eventRepo:  eventRepo,
		aggregator: aggregator,
		rating:     rating,
		logger:     logger,
	}
}

func (s *billingService) ProcessChargeUsage(
	ctx context.Context,
	subscriptionID string,
	c *charge.Charge,
	m *meter.Meter,
	period BillingPeriod,
	priorState *aggregation.PriorPeriodState,
) (*ChargeUsageResult, error) {
	// a charge must validate under its model before it is usable for rating
	result, _, err := c.ValidateProperties()
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, ierr.NewError("charge properties are invalid").
			WithHintf("Charge %s does not validate under model %s", c.ID, c.Model).
			WithReportableDetails(map[string]any{
				"errors": result.Errors,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	evs, err := s.eventRepo.Find(ctx, events.FindParams{
		SubscriptionID: subscriptionID,
		Code:           m.Code,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
	})
	if err != nil {
		return nil, err
	}

	aggregates, err := s.aggregator.Aggregate(ctx, evs, aggregation.Params{
		Type:         m.Aggregation,
		Recurring:    m.Recurring,
		Field:        m.Field,
		GroupingKeys: c.GroupingKeys,
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
		PriorState:   priorState,
	})
	if err != nil {
		return nil, err
	}

	// rate partitions in a stable order so fees come out deterministic
	keys := lo.Keys(aggregates)
	sort.Strings(keys)

	units := make([]RatingUnit, 0, len(aggregates))
	for _, key := range keys {
		units = append(units, RatingUnit{Charge: c, Aggregate: aggregates[key]})
	}

	fees, err := s.rating.RateAll(ctx, units)
	if err != nil {
		return nil, err
	}

	for _, f := range fees {
		f.SubscriptionID = subscriptionID
	}

	nextState := &aggregation.PriorPeriodState{
		CarriedOverItemIDs: make(map[string][]string),
	}
	for key, agg := range aggregates {
		if len(agg.CarriedOverItemIDs) > 0 {
			nextState.CarriedOverItemIDs[key] = agg.CarriedOverItemIDs
		}
	}

	s.logger.Debugw("processed charge usage",
		"subscription_id", subscriptionID,
		"charge_id", c.ID,
		"partitions", len(aggregates),
		"fees", len(fees))

	return &ChargeUsageResult{
		Fees:       fees,
		Aggregates: aggregates,
		NextState:  nextState,
	}, nil
}
