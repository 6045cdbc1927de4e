// Package handlers implements the Smartvendoo HTTP API: catalog-driven
// generation endpoints, payment checkout and confirmation, and the admin
// surface.
package handlers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/catalog"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/generator"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/payments"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

var (
	logger      logging.Logger
	cat         *catalog.Catalog
	engine      *entitlement.Engine
	gen         *generator.Generator
	reconciler  *payments.Reconciler
	checkoutSvc *payments.CheckoutService
	nowpayments *payments.NowPaymentsClient
	stripeCli   *payments.StripeClient
	metrics     *VendMetrics
)

// VendMetrics holds all Prometheus metrics for the API handlers.
type VendMetrics struct {
	GenerationRequests   *prometheus.CounterVec
	EntitlementDenials   *prometheus.CounterVec
	PaymentConfirmations *prometheus.CounterVec
	CheckoutsCreated     *prometheus.CounterVec
	GenerationDuration   *prometheus.HistogramVec
}

// Deps carries everything the handlers need.
type Deps struct {
	Logger     logging.Logger
	Catalog    *catalog.Catalog
	Engine     *entitlement.Engine
	Generator  *generator.Generator
	Reconciler *payments.Reconciler
	Checkout   *payments.CheckoutService

	// Concrete provider clients for webhook signature verification. Nil
	// when the provider is not configured.
	NowPayments *payments.NowPaymentsClient
	Stripe      *payments.StripeClient

	Metrics *VendMetrics
}

// Init initializes the handlers with their dependencies.
func Init(deps Deps) {
	logger = deps.Logger
	cat = deps.Catalog
	engine = deps.Engine
	gen = deps.Generator
	reconciler = deps.Reconciler
	checkoutSvc = deps.Checkout
	nowpayments = deps.NowPayments
	stripeCli = deps.Stripe
	metrics = deps.Metrics
}
