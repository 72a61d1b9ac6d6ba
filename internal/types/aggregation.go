package types

// AggregationType is the way raw events reduce to a billable quantity
type AggregationType string

const (
	AggregationCount       AggregationType = "COUNT"
	AggregationSum         AggregationType = "SUM"
	AggregationCountUnique AggregationType = "COUNT_UNIQUE"
)

func (t AggregationType) Validate() bool {
	switch t {
	case AggregationCount, AggregationSum, AggregationCountUnique:
		return true
	default:
		return false
	}
}

// RequiresField returns true when the aggregation reads a property from the
// event (the summed value or the deduplicated item identifier).
func (t AggregationType) RequiresField() bool {
	switch t {
	case AggregationSum, AggregationCountUnique:
		return true
	default:
		return false
	}
}

// EventOperation marks whether a unique-count event starts or ends the
// activity of an item. Events without an operation default to add.
type EventOperation string

const (
	EventOperationAdd    EventOperation = "add"
	EventOperationRemove EventOperation = "remove"
)
