package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

// StripeConfig for creating a Stripe client.
type StripeConfig struct {
	SecretKey     string // STRIPE_SECRET_KEY
	WebhookSecret string // STRIPE_WEBHOOK_SECRET
	SuccessURL    string
	CancelURL     string
	Logger        logging.Logger
}

// StripeClient creates one-time Checkout Sessions. The PaymentReference
// travels in the session metadata and client_reference_id, and comes
// back in the checkout.session.completed webhook.
type StripeClient struct {
	cfg    StripeConfig
	logger logging.Logger
}

// NewStripeClient creates a new Stripe client.
func NewStripeClient(cfg StripeConfig) *StripeClient {
	// The stripe-go library uses a global API key
	stripe.Key = cfg.SecretKey

	return &StripeClient{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// CreateInvoice implements ProviderClient.
func (c *StripeClient) CreateInvoice(ctx context.Context, callbackRef string, req CheckoutRequest) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(callbackRef),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(int64(req.Amount * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		Metadata: map[string]string{
			"reference": callbackRef,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	c.logger.WithFields(logging.Fields{
		"session_id": sess.ID,
		"reference":  callbackRef,
	}).Info("Created Stripe checkout session")

	return sess.URL, sess.ID, nil
}

// VerifyAndParseWebhook verifies the webhook signature and parses the event.
func (c *StripeClient) VerifyAndParseWebhook(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, c.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return &event, nil
}

// CheckoutSessionFromEvent extracts the checkout session from a
// checkout.session.completed event.
func (c *StripeClient) CheckoutSessionFromEvent(event *stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Type != "checkout.session.completed" {
		return nil, fmt.Errorf("event type %s is not checkout.session.completed", event.Type)
	}

	var sess stripe.CheckoutSession
	if err := sess.UnmarshalJSON(event.Data.Raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	return &sess, nil
}

// ReferenceFromSession returns the payment reference carried by a
// checkout session, preferring metadata over client_reference_id.
func ReferenceFromSession(sess *stripe.CheckoutSession) string {
	if sess.Metadata != nil && sess.Metadata["reference"] != "" {
		return sess.Metadata["reference"]
	}
	return sess.ClientReferenceID
}
