package payments

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

// PayPalConfig for creating a PayPal client.
type PayPalConfig struct {
	ClientID  string // PAYPAL_CLIENT_ID
	Secret    string // PAYPAL_SECRET
	BaseURL   string // api-m.paypal.com or api-m.sandbox.paypal.com
	ReturnURL string // where PayPal redirects after approval
	CancelURL string
	Logger    logging.Logger
}

// PayPalClient creates checkout orders via the PayPal REST API. The
// PaymentReference travels in the order's custom_id and comes back in
// both the approval redirect and the capture webhook.
type PayPalClient struct {
	http   *resty.Client
	cfg    PayPalConfig
	logger logging.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalClient creates a PayPal client.
func NewPayPalClient(cfg PayPalConfig) *PayPalClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-m.paypal.com"
	}
	return &PayPalClient{
		http:   resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(30 * time.Second),
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateInvoice implements ProviderClient.
func (c *PayPalClient) CreateInvoice(ctx context.Context, callbackRef string, req CheckoutRequest) (string, string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", "", err
	}

	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"custom_id":   callbackRef,
				"description": req.Description,
				"amount": map[string]string{
					"currency_code": req.Currency,
					"value":         strconv.FormatFloat(req.Amount, 'f', 2, 64),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": c.cfg.ReturnURL,
			"cancel_url": c.cfg.CancelURL,
		},
	}

	var order paypalOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&order).
		Post("/v2/checkout/orders")
	if err != nil {
		return "", "", fmt.Errorf("paypal order request failed: %w", err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("paypal order returned %s: %s", resp.Status(), resp.String())
	}

	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href, order.ID, nil
		}
	}
	return "", "", fmt.Errorf("paypal order %s has no approval link", order.ID)
}

// token returns a cached OAuth token, refreshing when expired.
func (c *PayPalClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	var tok paypalTokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.Secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("paypal token returned %s: %s", resp.Status(), resp.String())
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("paypal token response missing access_token")
	}

	c.accessToken = tok.AccessToken
	// Refresh a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}
