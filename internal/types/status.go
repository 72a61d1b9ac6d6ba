package types

// Status is a type for the lifecycle status of a resource.
// Terminated is a terminal state used by coupons and subscriptions.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
	StatusDeleted    Status = "deleted"
)
