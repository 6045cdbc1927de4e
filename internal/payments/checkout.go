package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

// Provider identifies a payment provider.
type Provider string

const (
	ProviderPayPal      Provider = "paypal"
	ProviderNowPayments Provider = "nowpayments"
	ProviderStripe      Provider = "stripe"
)

// CheckoutRequest contains everything needed to start a payment flow.
type CheckoutRequest struct {
	Provider    Provider
	Identity    entitlement.Identity
	Email       string
	Amount      float64
	Currency    string
	Description string
}

// CheckoutResult carries the provider redirect for a created invoice.
type CheckoutResult struct {
	CheckoutURL string
	Reference   string
	ProviderID  string
}

// ProviderClient creates an invoice with one provider. callbackRef is the
// PaymentReference the provider must echo back in its notifications.
type ProviderClient interface {
	CreateInvoice(ctx context.Context, callbackRef string, req CheckoutRequest) (url, providerID string, err error)
}

// CheckoutService mints payment references, registers them with the
// reconciler, and dispatches invoice creation to the right provider.
type CheckoutService struct {
	logger     logging.Logger
	reconciler *Reconciler
	clients    map[Provider]ProviderClient
}

// NewCheckoutService creates a checkout service. Providers without a
// configured client are rejected at checkout time.
func NewCheckoutService(logger logging.Logger, reconciler *Reconciler, clients map[Provider]ProviderClient) *CheckoutService {
	return &CheckoutService{logger: logger, reconciler: reconciler, clients: clients}
}

// AvailableProviders lists the providers with a configured client.
func (s *CheckoutService) AvailableProviders() []Provider {
	out := make([]Provider, 0, len(s.clients))
	for p := range s.clients {
		out = append(out, p)
	}
	return out
}

// CreateCheckout starts a payment flow. The reference is registered with
// the reconciler before the provider call so that even an immediately
// delivered webhook can resolve it.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	client, ok := s.clients[req.Provider]
	if !ok {
		return nil, fmt.Errorf("payment provider %q not configured", req.Provider)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount %v", req.Amount)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	reference := uuid.New().String()
	s.reconciler.Register(reference, req.Identity, time.Now())

	url, providerID, err := client.CreateInvoice(ctx, reference, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s invoice: %w", req.Provider, err)
	}

	s.logger.WithFields(logging.Fields{
		"provider":    req.Provider,
		"identity":    req.Identity,
		"reference":   reference,
		"provider_id": providerID,
		"amount":      req.Amount,
		"currency":    req.Currency,
	}).Info("Checkout created")

	return &CheckoutResult{CheckoutURL: url, Reference: reference, ProviderID: providerID}, nil
}
