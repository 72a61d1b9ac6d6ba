package aggregation

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterbill/meterbill/internal/types"
)

// partitionSeparator joins grouping values into a partition key. Unit
// separator avoids collisions with values containing ':' or ','.
const partitionSeparator = "\x1f"

// UngroupedPartition is the sentinel key for usage without grouping values
const UngroupedPartition = ""

// Params configures one aggregation run for a (subscription, metric, period)
type Params struct {
	// Type reduces events to a quantity
	Type types.AggregationType

	// Recurring seeds unique-count state from the prior period
	Recurring bool

	// Field is the event property summed by SUM
	Field string

	// GroupingKeys partition events into independent billable sub-streams.
	// Absent keys map to an empty partition value, never dropping the event.
	GroupingKeys []string

	PeriodStart time.Time
	PeriodEnd   time.Time

	// PriorState is the previous period's terminal state for recurring
	// unique-count metrics. Explicit input, never looked up implicitly.
	PriorState *PriorPeriodState
}

// PriorPeriodState is the terminal state of the previous billing period:
// the distinct item ids still active at period start, per partition key.
type PriorPeriodState struct {
	CarriedOverItemIDs map[string][]string
}

// UsageAggregate is the reduced quantity for one billing period and one
// grouping tuple, ready for rating. It is an intermediate, recomputable
// from events plus the prior period state.
type UsageAggregate struct {
	// Quantity is the billable quantity at period end
	Quantity decimal.Decimal

	// EventCount is the number of in-period events in this partition
	EventCount int

	// GroupingValues is the ordered tuple of grouping-key values, one per
	// configured grouping key, empty strings for absent keys
	GroupingValues []string

	PeriodStart time.Time
	PeriodEnd   time.Time

	// CarriedOverItemIDs is the distinct item set still active at period
	// end. It seeds the next period for recurring unique-count metrics.
	CarriedOverItemIDs []string
}

// PartitionKey joins grouping values into a stable partition key
func PartitionKey(values []string) string {
	return strings.Join(values, partitionSeparator)
}

// splitPartitionKey recovers the grouping tuple from a partition key,
// padding with empty values up to the configured key count
func splitPartitionKey(key string, keyCount int) []string {
	if keyCount == 0 {
		return nil
	}
	values := strings.Split(key, partitionSeparator)
	for len(values) < keyCount {
		values = append(values, "")
	}
	return values
}

// Fingerprint returns a stable digest of the aggregate, used as part of the
// rating memoization key.
func (a *UsageAggregate) Fingerprint() string {
	var b strings.Builder
	b.WriteString(a.Quantity.String())
	b.WriteString("|")
	b.WriteString(strconv.Itoa(a.EventCount))
	b.WriteString("|")
	b.WriteString(PartitionKey(a.GroupingValues))
	b.WriteString("|")
	b.WriteString(a.PeriodStart.UTC().Format(time.RFC3339Nano))
	b.WriteString("|")
	b.WriteString(a.PeriodEnd.UTC().Format(time.RFC3339Nano))
	for _, id := range a.CarriedOverItemIDs {
		b.WriteString("|")
		b.WriteString(id)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:8])
}
