package events

import (
	"context"
	"time"
)

// FindParams scopes an event query to one (subscription, metric, period).
// The persistence layer returns events ordered by timestamp ascending.
type FindParams struct {
	SubscriptionID string
	Code           string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Repository is the persistence boundary for raw usage events
type Repository interface {
	Insert(ctx context.Context, event *Event) error
	Find(ctx context.Context, params FindParams) ([]*Event, error)
}
