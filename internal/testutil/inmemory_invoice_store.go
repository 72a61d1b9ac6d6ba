package testutil

import (
	"context"

	"github.com/meterbill/meterbill/internal/domain/invoice"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}

	copied := &invoice.Invoice{
		ID:                 inv.ID,
		Number:             inv.Number,
		CustomerID:         inv.CustomerID,
		SubscriptionID:     inv.SubscriptionID,
		Currency:           inv.Currency,
		FeesAmountCents:    inv.FeesAmountCents,
		CouponsAmountCents: inv.CouponsAmountCents,
		TotalAmountCents:   inv.TotalAmountCents,
		InvoiceStatus:      inv.InvoiceStatus,
		PaymentStatus:      inv.PaymentStatus,
		BaseModel: types.BaseModel{
			TenantID:  inv.TenantID,
			Status:    inv.Status,
			CreatedAt: inv.CreatedAt,
			UpdatedAt: inv.UpdatedAt,
			CreatedBy: inv.CreatedBy,
			UpdatedBy: inv.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}
