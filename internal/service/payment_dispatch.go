package service

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/meterbill/meterbill/internal/config"
	"github.com/meterbill/meterbill/internal/domain/invoice"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/idempotency"
	"github.com/meterbill/meterbill/internal/logger"
	"github.com/meterbill/meterbill/internal/types"
)

// ProviderGateway hands a finalized invoice to the external payment
// provider. Implementations mark connection-class failures with
// ErrHTTPClient so the dispatcher can classify them as transient; every
// other error is terminal.
type ProviderGateway interface {
	CreatePayment(ctx context.Context, inv *invoice.Invoice) error
}

// PaymentDispatchService triggers provider payments for finalized invoices.
// The trigger is assumed at-least-once, so dispatch is idempotent: one
// in-flight attempt per invoice, duplicates coalesced, transient failures
// retried with exponential backoff up to the configured attempt ceiling.
type PaymentDispatchService interface {
	Dispatch(ctx context.Context, invoiceID string) error
}

type paymentDispatchService struct {
	cfg         *config.Configuration
	invoiceRepo invoice.Repository
	gateway     ProviderGateway
	registry    *idempotency.Registry
	generator   *idempotency.Generator
	logger      *logger.Logger
}

// NewPaymentDispatchService creates a new payment dispatch service
func NewPaymentDispatchService(
	cfg *config.Configuration,
	invoiceRepo invoice.Repository,
	gateway ProviderGateway,
	registry *idempotency.Registry,
	logger *logger.Logger,
) PaymentDispatchService {
	return &paymentDispatchService{
		cfg:         cfg,
		invoiceRepo: invoiceRepo,
		gateway:     gateway,
		registry:    registry,
		generator:   idempotency.NewGenerator(),
		logger:      logger,
	}
}

// Dispatch hands the invoice to the provider. Re-submission while a prior
// attempt is executing or after completion is suppressed, never queued.
// Transient failures retry within this call only; they never block rating
// or aggregation, which perform no I/O. Terminal failures mark the invoice
// payment as failed and propagate so the enclosing work item is visible to
// operators.
func (s *paymentDispatchService) Dispatch(ctx context.Context, invoiceID string) error {
	inv, err := s.invoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return err
	}

	if inv.InvoiceStatus != types.InvoiceStatusFinalized {
		return ierr.NewError("invoice is not finalized").
			WithHintf("Invoice %s must be finalized before payment dispatch", invoiceID).
			Mark(ierr.ErrInvalidOperation)
	}

	token := s.generator.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
		"invoice_id": inv.ID,
	})

	if !s.registry.Acquire(token) {
		s.logger.Infow("suppressing duplicate payment dispatch",
			"invoice_id", inv.ID,
			"token", token)
		return nil
	}

	operation := func() error {
		if err := s.gateway.CreatePayment(ctx, inv); err != nil {
			if ierr.IsHTTPClient(err) {
				// transient connectivity failure, retry
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.Payment.InitialInterval
	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(s.cfg.Payment.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		s.registry.Release(token)

		inv.PaymentStatus = types.PaymentStatusFailed
		if updateErr := s.invoiceRepo.Update(ctx, inv); updateErr != nil {
			s.logger.Errorw("failed to mark invoice payment as failed",
				"invoice_id", inv.ID,
				"error", updateErr)
		}

		return ierr.WithError(err).
			WithHintf("Payment dispatch failed for invoice %s", inv.ID).
			Mark(ierr.ErrInvalidOperation)
	}

	s.registry.Complete(token)

	inv.PaymentStatus = types.PaymentStatusSucceeded
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return err
	}

	s.logger.Infow("dispatched payment to provider",
		"invoice_id", inv.ID,
		"amount_cents", inv.TotalAmountCents,
		"currency", inv.Currency)

	return nil
}
