package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/payments"
	api "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/api/smartvendoo"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/middleware"
)

// confirmFromWebhook runs one reference through the reconciler and maps
// the outcome to a webhook response. Providers retry on non-2xx, so an
// unknown reference is the only case worth a retry.
func confirmFromWebhook(c middleware.Context, provider, reference, eventID string, amount float64) {
	_, err := reconciler.Confirm(reference, eventID, amount, time.Now())
	if err != nil {
		if errors.Is(err, payments.ErrUnknownReference) {
			if metrics != nil {
				metrics.PaymentConfirmations.WithLabelValues(provider, "unknown_reference").Inc()
			}
			logger.WithFields(logging.Fields{
				"provider":  provider,
				"reference": reference,
				"event_id":  eventID,
			}).Warn("Webhook for unknown payment reference")
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Unknown payment reference"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to process webhook"})
		return
	}

	if metrics != nil {
		metrics.PaymentConfirmations.WithLabelValues(provider, "confirmed").Inc()
	}
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok"})
}

type nowPaymentsIPN struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PayAmount     float64     `json:"pay_amount"`
	PriceAmount   float64     `json:"price_amount"`
}

// NowPaymentsWebhook handles IPN callbacks. Only the terminal "finished"
// status confirms; intermediate statuses are acknowledged so the
// provider stops retrying them.
func NowPaymentsWebhook(c middleware.Context) {
	if nowpayments == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Provider not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Failed to read body"})
		return
	}

	if !nowpayments.VerifyIPNSignature(body, c.GetHeader("x-nowpayments-sig")) {
		logger.Warn("NowPayments IPN signature verification failed")
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid signature"})
		return
	}

	var ipn nowPaymentsIPN
	if err := json.Unmarshal(body, &ipn); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid payload"})
		return
	}

	if ipn.PaymentStatus != "finished" {
		logger.WithFields(logging.Fields{
			"status":    ipn.PaymentStatus,
			"reference": ipn.OrderID,
		}).Debug("Ignoring non-terminal NowPayments status")
		c.JSON(http.StatusOK, api.StatusResponse{Status: "ignored"})
		return
	}

	confirmFromWebhook(c, "nowpayments", ipn.OrderID, ipn.PaymentID.String(), ipn.PriceAmount)
}

// StripeWebhook handles checkout.session.completed events. All other
// event types are acknowledged and dropped.
func StripeWebhook(c middleware.Context) {
	if stripeCli == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Provider not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Failed to read body"})
		return
	}

	event, err := stripeCli.VerifyAndParseWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.WithError(err).Warn("Stripe webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid signature"})
		return
	}

	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, api.StatusResponse{Status: "ignored"})
		return
	}

	sess, err := stripeCli.CheckoutSessionFromEvent(event)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid event payload"})
		return
	}

	reference := payments.ReferenceFromSession(sess)
	if reference == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Event carries no reference"})
		return
	}

	confirmFromWebhook(c, "stripe", reference, event.ID, float64(sess.AmountTotal)/100)
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			Value string `json:"value"`
		} `json:"amount"`
	} `json:"resource"`
}

// PayPalWebhook handles capture notifications. The reference travels in
// the capture's custom_id.
func PayPalWebhook(c middleware.Context) {
	var event paypalWebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid payload"})
		return
	}

	if event.EventType != "PAYMENT.CAPTURE.COMPLETED" {
		c.JSON(http.StatusOK, api.StatusResponse{Status: "ignored"})
		return
	}
	if event.Resource.CustomID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Event carries no reference"})
		return
	}

	confirmFromWebhook(c, "paypal", event.Resource.CustomID, event.Resource.ID, 0)
}
