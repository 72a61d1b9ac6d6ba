package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/meterbill/meterbill/internal/domain/events"
	ierr "github.com/meterbill/meterbill/internal/errors"
)

// InMemoryEventStore implements events.Repository
type InMemoryEventStore struct {
	*InMemoryStore[*events.Event]
}

// NewInMemoryEventStore creates a new in-memory event store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		InMemoryStore: NewInMemoryStore[*events.Event](),
	}
}

func copyEvent(e *events.Event) *events.Event {
	if e == nil {
		return nil
	}

	copied := &events.Event{
		ID:             e.ID,
		TenantID:       e.TenantID,
		SubscriptionID: e.SubscriptionID,
		Code:           e.Code,
		ItemID:         e.ItemID,
		Operation:      e.Operation,
		Properties:     lo.Assign(map[string]string{}, e.Properties),
		Timestamp:      e.Timestamp,
	}

	return copied
}

func (s *InMemoryEventStore) Insert(ctx context.Context, e *events.Event) error {
	if e == nil {
		return ierr.NewError("event cannot be nil").
			WithHint("Event cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, e.ID, copyEvent(e))
}

// Find returns the events for one (subscription, metric, period) ordered by
// timestamp ascending, matching the contract of the production query.
func (s *InMemoryEventStore) Find(ctx context.Context, params events.FindParams) ([]*events.Event, error) {
	items, err := s.InMemoryStore.List(ctx, params, eventFilterFn, eventSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(e *events.Event, _ int) *events.Event {
		return copyEvent(e)
	}), nil
}

func eventFilterFn(ctx context.Context, e *events.Event, filter interface{}) bool {
	params, ok := filter.(events.FindParams)
	if !ok {
		return false
	}

	if e.SubscriptionID != params.SubscriptionID {
		return false
	}
	if e.Code != params.Code {
		return false
	}
	if e.Timestamp.Before(params.PeriodStart) {
		return false
	}
	if !e.Timestamp.Before(params.PeriodEnd) {
		return false
	}
	return true
}

func eventSortFn(i, j *events.Event) bool {
	return i.Timestamp.Before(j.Timestamp)
}
