// Package smartvendoo defines the request and response types exposed by
// the Smartvendoo HTTP API.
package smartvendoo

import "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"

// ErrorResponse is the generic error shape
type ErrorResponse struct {
	Error string `json:"error"`
}

// DenialResponse is returned with HTTP 403 when the entitlement engine
// denies a request. Reason is "banned" or "trials_exhausted".
type DenialResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// GenerateResponse is returned after a successful generation call
type GenerateResponse struct {
	Result          string `json:"result"`
	Service         string `json:"service"`
	TrialsRemaining int    `json:"trials_remaining"`
	Paid            bool   `json:"paid"`
}

// TrialsResponse reports remaining trials per service for an identity
type TrialsResponse struct {
	Trials map[string]int `json:"trials"`
	Paid   bool           `json:"paid"`
}

// CheckoutRequest starts a payment flow for the given identity
type CheckoutRequest struct {
	Email    string  `json:"email"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// CheckoutResponse carries the provider redirect for a created invoice
type CheckoutResponse struct {
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
	InvoiceURL  string `json:"invoice_url,omitempty"`
	Reference   string `json:"reference"`
}

// PaymentCallbackRequest is posted by the client after a provider redirect
type PaymentCallbackRequest struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount,omitempty"`
}

// PaymentCallbackResponse acknowledges a confirmed payment
type PaymentCallbackResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// AdminLoginRequest authenticates the configured admin account
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the admin session token
type AdminLoginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// AdminStatsResponse wraps the aggregate stats shape
type AdminStatsResponse struct {
	Stats models.AdminStats `json:"stats"`
}

// AdminIdentitiesResponse lists all tracked identities
type AdminIdentitiesResponse struct {
	Identities []models.IdentityState `json:"identities"`
	Count      int                    `json:"count"`
}

// AdminIdentityRequest targets one identity for ban/unban/delete
type AdminIdentityRequest struct {
	Identity string `json:"identity"`
}

// StatusResponse is a minimal success acknowledgement
type StatusResponse struct {
	Status string `json:"status"`
}
