// Package payments turns provider checkout flows and their confirmation
// signals into subscription extensions. Every confirmation path, whether
// the client's post-redirect callback or a provider webhook, converges
// on Reconciler.Confirm, the only place extension logic lives.
package payments

import (
	"errors"
	"sync"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"
)

// ErrUnknownReference is returned when a confirmation carries a reference
// that was never registered by a checkout.
var ErrUnknownReference = errors.New("unknown payment reference")

// Reconciler maps payment references back to identities and applies
// subscription extensions idempotently. Payments are delivered
// at-least-once (client callback plus webhook, webhooks themselves
// retried), so each reference extends at most once within the dedup
// window.
type Reconciler struct {
	subs      *entitlement.SubscriptionStore
	logger    logging.Logger
	extension time.Duration

	// dedupWindow bounds how long applied references are remembered. A
	// duplicate arriving after the window may re-extend; that is a stated
	// tradeoff, sized to exceed any realistic duplicate-delivery delay.
	dedupWindow time.Duration
	pendingTTL  time.Duration

	mu      sync.Mutex
	pending map[string]pendingReference
	applied map[string]appliedEvent
}

type pendingReference struct {
	identity  entitlement.Identity
	createdAt time.Time
}

type appliedEvent struct {
	identity  entitlement.Identity
	eventID   string
	appliedAt time.Time
}

// NewReconciler creates a reconciler extending subscriptions by extension
// per confirmed payment and deduplicating within dedupWindow.
func NewReconciler(subs *entitlement.SubscriptionStore, logger logging.Logger, extension, dedupWindow time.Duration) *Reconciler {
	return &Reconciler{
		subs:        subs,
		logger:      logger,
		extension:   extension,
		dedupWindow: dedupWindow,
		pendingTTL:  24 * time.Hour,
		pending:     make(map[string]pendingReference),
		applied:     make(map[string]appliedEvent),
	}
}

// Extension returns the subscription duration granted per payment.
func (r *Reconciler) Extension() time.Duration {
	return r.extension
}

// Register binds a freshly minted reference to the identity that started
// the checkout. Called once per invoice, before the provider redirect.
func (r *Reconciler) Register(reference string, id entitlement.Identity, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
	r.pending[reference] = pendingReference{identity: id, createdAt: now}
}

// Confirm applies the payment behind reference: resolves the identity and
// extends its subscription. eventID is the provider's transaction id when
// one exists; it is recorded for audit but dedup is keyed on the
// reference itself, since one reference is one invoice is one payment.
// A duplicate within the window resolves the identity and does nothing
// else.
func (r *Reconciler) Confirm(reference, eventID string, amount float64, now time.Time) (entitlement.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)

	if prior, ok := r.applied[reference]; ok {
		r.logger.WithFields(logging.Fields{
			"reference": reference,
			"event_id":  eventID,
			"identity":  prior.identity,
		}).Debug("Duplicate payment confirmation ignored")
		return prior.identity, nil
	}

	ref, ok := r.pending[reference]
	if !ok {
		return "", ErrUnknownReference
	}

	delete(r.pending, reference)
	r.applied[reference] = appliedEvent{identity: ref.identity, eventID: eventID, appliedAt: now}

	paidUntil := r.subs.ExtendPaid(ref.identity, r.extension, now)

	r.logger.WithFields(logging.Fields{
		"reference":  reference,
		"event_id":   eventID,
		"identity":   ref.identity,
		"amount":     amount,
		"paid_until": paidUntil,
	}).Info("Payment confirmed, subscription extended")

	return ref.identity, nil
}

// AppliedEvents returns the dedup set for persistence.
func (r *Reconciler) AppliedEvents() []models.PaymentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.PaymentEvent, 0, len(r.applied))
	for reference, ev := range r.applied {
		out = append(out, models.PaymentEvent{
			Reference: reference,
			EventID:   ev.eventID,
			AppliedAt: ev.appliedAt,
		})
	}
	return out
}

// RestoreApplied reloads a persisted dedup set. Identities for restored
// events are unknown; duplicates of them still no-op.
func (r *Reconciler) RestoreApplied(events []models.PaymentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.applied[ev.Reference] = appliedEvent{eventID: ev.EventID, appliedAt: ev.AppliedAt}
	}
}

// sweepLocked drops applied entries older than the dedup window and
// pending references that never completed. Caller holds r.mu.
func (r *Reconciler) sweepLocked(now time.Time) {
	for reference, ev := range r.applied {
		if now.Sub(ev.appliedAt) > r.dedupWindow {
			delete(r.applied, reference)
		}
	}
	for reference, ref := range r.pending {
		if now.Sub(ref.createdAt) > r.pendingTTL {
			delete(r.pending, reference)
		}
	}
}
