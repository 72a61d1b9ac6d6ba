package testutil

import (
	"context"

	"github.com/meterbill/meterbill/internal/domain/meter"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// InMemoryMeterStore implements meter.Repository
type InMemoryMeterStore struct {
	*InMemoryStore[*meter.Meter]
}

// NewInMemoryMeterStore creates a new in-memory meter store
func NewInMemoryMeterStore() *InMemoryMeterStore {
	return &InMemoryMeterStore{
		InMemoryStore: NewInMemoryStore[*meter.Meter](),
	}
}

func copyMeter(m *meter.Meter) *meter.Meter {
	if m == nil {
		return nil
	}

	copied := &meter.Meter{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Aggregation: m.Aggregation,
		Field:       m.Field,
		Recurring:   m.Recurring,
		BaseModel: types.BaseModel{
			TenantID:  m.TenantID,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			CreatedBy: m.CreatedBy,
			UpdatedBy: m.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryMeterStore) Create(ctx context.Context, m *meter.Meter) error {
	if m == nil {
		return ierr.NewError("meter cannot be nil").
			WithHint("Meter cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, m.ID, copyMeter(m))
}

func (s *InMemoryMeterStore) Get(ctx context.Context, id string) (*meter.Meter, error) {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("meter not found").
			WithHint("Meter not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyMeter(m), nil
}

func (s *InMemoryMeterStore) GetByCode(ctx context.Context, code string) (*meter.Meter, error) {
	items, err := s.InMemoryStore.List(ctx, code, meterCodeFilterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("meter not found").
			WithHint("Meter not found").
			WithReportableDetails(map[string]interface{}{
				"code": code,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyMeter(items[0]), nil
}

func meterCodeFilterFn(ctx context.Context, m *meter.Meter, filter interface{}) bool {
	code, ok := filter.(string)
	if !ok {
		return false
	}
	return m.Code == code && m.Status == types.StatusActive
}
