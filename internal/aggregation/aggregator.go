package aggregation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meterbill/meterbill/internal/domain/events"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/types"
)

// Aggregator reduces an ordered event stream for one billing period into
// per-partition usage aggregates. It is pure given its inputs: all state
// crossing period boundaries arrives through Params.PriorState.
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a new usage aggregator
func NewAggregator(logger *logger.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate partitions events by their grouping-key tuple and reduces each
// partition with the configured aggregation. Events timestamped outside the
// period are excluded and never retroactively applied. The result maps
// partition key to aggregate; for recurring unique-count metrics every
// partition with carried-over state appears even when the period has no
// events.
func (a *Aggregator) Aggregate(ctx context.Context, evs []*events.Event, params Params) (map[string]*UsageAggregate, error) {
	if !params.Type.Validate() {
		return nil, ierr.NewError("invalid aggregation type").
			WithHint("Please provide a valid aggregation type").
			WithReportableDetails(map[string]any{
				"type": params.Type,
			}).
			Mark(ierr.ErrSystem)
	}

	switch params.Type {
	case types.AggregationCount:
		return a.aggregateCount(ctx, evs, params), nil
	case types.AggregationSum:
		return a.aggregateSum(ctx, evs, params), nil
	case types.AggregationCountUnique:
		return a.aggregateCountUnique(ctx, evs, params), nil
	default:
		// unreachable given the Validate above, kept for exhaustiveness
		return nil, ierr.NewError("unhandled aggregation type").
			WithHintf("No aggregator registered for type %s", params.Type).
			Mark(ierr.ErrSystem)
	}
}

func (a *Aggregator) aggregateCount(ctx context.Context, evs []*events.Event, params Params) map[string]*UsageAggregate {
	result := make(map[string]*UsageAggregate)

	for _, ev := range evs {
		if !a.inPeriod(ctx, ev, params) {
			continue
		}

		agg := a.partitionFor(result, ev, params)
		agg.EventCount++
		agg.Quantity = agg.Quantity.Add(decimal.NewFromInt(1))
	}

	return result
}

func (a *Aggregator) aggregateSum(ctx context.Context, evs []*events.Event, params Params) map[string]*UsageAggregate {
	result := make(map[string]*UsageAggregate)

	for _, ev := range evs {
		if !a.inPeriod(ctx, ev, params) {
			continue
		}

		value, err := decimal.NewFromString(ev.Properties[params.Field])
		if err != nil {
			a.logger.Warnw("skipping event with non numeric sum field",
				"event_id", ev.ID,
				"field", params.Field,
				"value", ev.Properties[params.Field])
			continue
		}

		agg := a.partitionFor(result, ev, params)
		agg.EventCount++
		agg.Quantity = agg.Quantity.Add(value)
	}

	return result
}

// aggregateCountUnique tracks the set of distinct item ids active at period
// end. Deduplication is first-event-wins across partitions: an item already
// active, carried over or added earlier in the period, is not re-counted
// when it reappears under a different grouping tuple. A remove operation
// ends the item's activity wherever it lives.
func (a *Aggregator) aggregateCountUnique(ctx context.Context, evs []*events.Event, params Params) map[string]*UsageAggregate {
	result := make(map[string]*UsageAggregate)

	// active maps item id to the partition key it is counted under
	active := make(map[string]string)

	if params.Recurring && params.PriorState != nil {
		for key, itemIDs := range params.PriorState.CarriedOverItemIDs {
			// materialize the partition so continuity holds even when the
			// period has no events for it
			a.partitionForKey(result, key, params)
			for _, itemID := range itemIDs {
				if _, ok := active[itemID]; ok {
					continue
				}
				active[itemID] = key
			}
		}
	}

	for _, ev := range evs {
		if !a.inPeriod(ctx, ev, params) {
			continue
		}

		values := a.groupingValues(ev, params)
		key := PartitionKey(values)
		agg := a.partitionFor(result, ev, params)
		agg.EventCount++

		itemID := ev.ItemID
		if itemID == "" {
			a.logger.Warnw("skipping unique-count event without item id",
				"event_id", ev.ID)
			continue
		}

		if ev.IsRemove() {
			delete(active, itemID)
			continue
		}

		if _, ok := active[itemID]; ok {
			continue
		}
		active[itemID] = key
	}

	// settle per-partition sets and quantities
	perPartition := make(map[string][]string)
	for itemID, key := range active {
		perPartition[key] = append(perPartition[key], itemID)
	}

	for key, itemIDs := range perPartition {
		sort.Strings(itemIDs)
		agg := a.partitionForKey(result, key, params)
		agg.CarriedOverItemIDs = itemIDs
		agg.Quantity = decimal.NewFromInt(int64(len(itemIDs)))
	}

	return result
}

// inPeriod excludes events outside [PeriodStart, PeriodEnd). Out-of-order
// events arriving with a timestamp before period start belong to a closed
// period and are not retroactively applied.
func (a *Aggregator) inPeriod(ctx context.Context, ev *events.Event, params Params) bool {
	if ev.Timestamp.Before(params.PeriodStart) || !ev.Timestamp.Before(params.PeriodEnd) {
		a.logger.Debugw("excluding out-of-period event",
			"event_id", ev.ID,
			"timestamp", ev.Timestamp,
			"period_start", params.PeriodStart,
			"period_end", params.PeriodEnd)
		return false
	}
	return true
}

// groupingValues extracts the ordered grouping tuple from an event. Absent
// keys map to an empty value so the event lands in a sentinel partition
// instead of being dropped.
func (a *Aggregator) groupingValues(ev *events.Event, params Params) []string {
	if len(params.GroupingKeys) == 0 {
		return nil
	}

	values := make([]string, len(params.GroupingKeys))
	for i, key := range params.GroupingKeys {
		values[i] = ev.Properties[key]
	}
	return values
}

func (a *Aggregator) partitionFor(result map[string]*UsageAggregate, ev *events.Event, params Params) *UsageAggregate {
	values := a.groupingValues(ev, params)
	return a.partition(result, PartitionKey(values), values, params)
}

func (a *Aggregator) partitionForKey(result map[string]*UsageAggregate, key string, params Params) *UsageAggregate {
	values := splitPartitionKey(key, len(params.GroupingKeys))
	return a.partition(result, key, values, params)
}

func (a *Aggregator) partition(result map[string]*UsageAggregate, key string, values []string, params Params) *UsageAggregate {
	if agg, ok := result[key]; ok {
		return agg
	}

	agg := &UsageAggregate{
		Quantity:       decimal.Zero,
		GroupingValues: values,
		PeriodStart:    params.PeriodStart,
		PeriodEnd:      params.PeriodEnd,
	}
	result[key] = agg
	return agg
}
