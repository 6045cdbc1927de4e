package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

// NowPaymentsConfig for creating a NowPayments client.
type NowPaymentsConfig struct {
	APIKey     string // NOWPAYMENTS_API_KEY
	IPNSecret  string // NOWPAYMENTS_IPN_SECRET, verifies webhook signatures
	BaseURL    string
	SuccessURL string
	CancelURL  string
	Logger     logging.Logger
}

// NowPaymentsClient creates crypto invoices via the NowPayments API.
// The PaymentReference travels as the invoice order_id and comes back
// in the IPN webhook payload.
type NowPaymentsClient struct {
	http      *resty.Client
	cfg       NowPaymentsConfig
	ipnSecret string
	logger    logging.Logger
}

// NewNowPaymentsClient creates a NowPayments client.
func NewNowPaymentsClient(cfg NowPaymentsConfig) *NowPaymentsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.nowpayments.io"
	}
	return &NowPaymentsClient{
		http:      resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(30 * time.Second),
		cfg:       cfg,
		ipnSecret: cfg.IPNSecret,
		logger:    cfg.Logger,
	}
}

type nowPaymentsInvoiceResponse struct {
	ID         json.Number `json:"id"`
	InvoiceURL string      `json:"invoice_url"`
	OrderID    string      `json:"order_id"`
}

// CreateInvoice implements ProviderClient.
func (c *NowPaymentsClient) CreateInvoice(ctx context.Context, callbackRef string, req CheckoutRequest) (string, string, error) {
	body := map[string]interface{}{
		"price_amount":      req.Amount,
		"price_currency":    req.Currency,
		"order_id":          callbackRef,
		"order_description": req.Description,
		"success_url":       c.cfg.SuccessURL,
		"cancel_url":        c.cfg.CancelURL,
	}

	var invoice nowPaymentsInvoiceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.cfg.APIKey).
		SetBody(body).
		SetResult(&invoice).
		Post("/v1/invoice")
	if err != nil {
		return "", "", fmt.Errorf("nowpayments invoice request failed: %w", err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("nowpayments invoice returned %s: %s", resp.Status(), resp.String())
	}
	if invoice.InvoiceURL == "" {
		return "", "", fmt.Errorf("nowpayments invoice response missing invoice_url")
	}
	return invoice.InvoiceURL, invoice.ID.String(), nil
}

// VerifyIPNSignature checks the x-nowpayments-sig header against an
// HMAC-SHA512 of the payload with keys sorted, which is how NowPayments
// signs IPN callbacks.
func (c *NowPaymentsClient) VerifyIPNSignature(payload []byte, signature string) bool {
	if c.ipnSecret == "" || signature == "" {
		return false
	}
	sorted, err := sortedJSON(payload)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.ipnSecret))
	mac.Write(sorted)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// sortedJSON re-encodes a JSON object with its keys in sorted order.
func sortedJSON(payload []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, len(payload))
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, key...)
		ordered = append(ordered, ':')
		ordered = append(ordered, obj[k]...)
	}
	ordered = append(ordered, '}')
	return ordered, nil
}
