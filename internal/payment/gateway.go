// Package payment talks to the external payment provider over HTTP. It
// satisfies the dispatcher's gateway contract: connectivity failures are
// surfaced as transient, provider rejections as terminal.
package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meterbill/meterbill/internal/domain/invoice"
	ierr "github.com/meterbill/meterbill/internal/errors"
	"github.com/meterbill/meterbill/internal/httpclient"
	"github.com/meterbill/meterbill/internal/logger"
)

// createPaymentPayload is the provider's payment creation request body
type createPaymentPayload struct {
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CustomerID  string `json:"customer_id"`
}

// HTTPGateway submits payments to the provider's REST API
type HTTPGateway struct {
	client   httpclient.Client
	endpoint string
	apiKey   string
	logger   *logger.Logger
}

// NewHTTPGateway creates a new HTTP payment gateway
func NewHTTPGateway(client httpclient.Client, endpoint, apiKey string, logger *logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// CreatePayment submits one payment for a finalized invoice. Errors from
// the transport keep their transient marking; provider rejections come back
// unmarked and are therefore terminal for the dispatcher.
func (g *HTTPGateway) CreatePayment(ctx context.Context, inv *invoice.Invoice) error {
	body, err := json.Marshal(createPaymentPayload{
		Reference:   inv.Number,
		AmountCents: inv.TotalAmountCents,
		Currency:    inv.Currency,
		CustomerID:  inv.CustomerID,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode payment payload").
			Mark(ierr.ErrSystem)
	}

	resp, err := g.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    g.endpoint + "/payments",
		Headers: map[string]string{
			"Authorization": "Bearer " + g.apiKey,
		},
		Body: body,
	})
	if err != nil {
		return err
	}

	g.logger.Debugw("provider accepted payment",
		"invoice_number", inv.Number,
		"status_code", resp.StatusCode)

	return nil
}
