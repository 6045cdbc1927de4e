package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/payments"
	api "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/api/smartvendoo"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/config"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/middleware"
)

// CreateCheckoutHandler returns a checkout handler bound to one provider.
func CreateCheckoutHandler(provider payments.Provider) middleware.HandlerFunc {
	return func(c middleware.Context) {
		var req api.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
			return
		}
		if req.Amount <= 0 {
			req.Amount = config.GetEnvFloat("SUBSCRIPTION_PRICE", 25.0)
		}

		id := resolveIdentity(c, req.Email)
		result, err := checkoutSvc.CreateCheckout(c.Request.Context(), payments.CheckoutRequest{
			Provider:    provider,
			Identity:    id,
			Email:       req.Email,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: "Smartvendoo subscription",
		})
		if err != nil {
			if metrics != nil {
				metrics.CheckoutsCreated.WithLabelValues(string(provider), "error").Inc()
			}
			logger.WithError(err).WithField("provider", provider).Error("Checkout creation failed")
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Failed to create payment"})
			return
		}

		if metrics != nil {
			metrics.CheckoutsCreated.WithLabelValues(string(provider), "success").Inc()
		}
		c.JSON(http.StatusOK, api.CheckoutResponse{
			Status:      "created",
			RedirectURL: result.CheckoutURL,
			InvoiceURL:  result.CheckoutURL,
			Reference:   result.Reference,
		})
	}
}

// PaymentCallback confirms a payment from the client's post-redirect
// callback. The provider webhook confirms the same reference through the
// same reconciler, so whichever lands first wins and the other is a no-op.
func PaymentCallback(c middleware.Context) {
	var req api.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reference == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing payment reference"})
		return
	}

	_, err := reconciler.Confirm(req.Reference, "", req.Amount, time.Now())
	if err != nil {
		if errors.Is(err, payments.ErrUnknownReference) {
			if metrics != nil {
				metrics.PaymentConfirmations.WithLabelValues("callback", "unknown_reference").Inc()
			}
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Unknown payment reference"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to confirm payment"})
		return
	}

	if metrics != nil {
		metrics.PaymentConfirmations.WithLabelValues("callback", "confirmed").Inc()
	}
	c.JSON(http.StatusOK, api.PaymentCallbackResponse{Status: "confirmed", Reference: req.Reference})
}
