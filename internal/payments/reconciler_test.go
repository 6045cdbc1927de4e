package payments

import (
	"io"
	"testing"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"
)

func testLogger() logging.Logger {
	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConfirmExtendsSubscription(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	id := entitlement.EmailIdentity("buyer@example.com")
	now := time.Now()
	rec.Register("ref-1", id, now)

	got, err := rec.Confirm("ref-1", "txn-1", 25.0, now)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if got != id {
		t.Fatalf("Confirm resolved %q, want %q", got, id)
	}
	if !subs.IsPaidActive(id, now) {
		t.Fatal("subscription not active after confirmation")
	}
	paidUntil, _ := subs.PaidUntil(id)
	want := now.Add(30 * 24 * time.Hour)
	if !paidUntil.Equal(want) {
		t.Fatalf("paidUntil = %v, want %v", paidUntil, want)
	}
}

func TestConfirmUnknownReference(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	if _, err := rec.Confirm("never-registered", "txn-1", 25.0, time.Now()); err != ErrUnknownReference {
		t.Fatalf("Confirm error = %v, want ErrUnknownReference", err)
	}
}

// Callback and webhook both confirm the same reference; only the first
// extends.
func TestConfirmIdempotentAcrossPaths(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	id := entitlement.EmailIdentity("buyer@example.com")
	now := time.Now()
	rec.Register("ref-1", id, now)

	if _, err := rec.Confirm("ref-1", "", 25.0, now); err != nil {
		t.Fatalf("callback Confirm failed: %v", err)
	}
	first, _ := subs.PaidUntil(id)

	// Webhook arrives later with the provider's transaction id.
	got, err := rec.Confirm("ref-1", "txn-webhook", 25.0, now.Add(5*time.Second))
	if err != nil {
		t.Fatalf("webhook Confirm failed: %v", err)
	}
	if got != id {
		t.Fatalf("duplicate Confirm resolved %q, want %q", got, id)
	}
	after, _ := subs.PaidUntil(id)
	if !after.Equal(first) {
		t.Fatalf("duplicate confirmation extended subscription: %v -> %v", first, after)
	}
}

func TestConfirmDistinctReferencesStack(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	id := entitlement.EmailIdentity("buyer@example.com")
	now := time.Now()
	rec.Register("ref-1", id, now)
	rec.Register("ref-2", id, now)

	if _, err := rec.Confirm("ref-1", "txn-1", 25.0, now); err != nil {
		t.Fatalf("first Confirm failed: %v", err)
	}
	if _, err := rec.Confirm("ref-2", "txn-2", 25.0, now); err != nil {
		t.Fatalf("second Confirm failed: %v", err)
	}

	paidUntil, _ := subs.PaidUntil(id)
	want := now.Add(60 * 24 * time.Hour)
	if !paidUntil.Equal(want) {
		t.Fatalf("two payments paidUntil = %v, want %v", paidUntil, want)
	}
}

// After the dedup window the reference is forgotten: a late duplicate is
// an unknown reference, not a silent re-extension.
func TestDedupWindowExpiry(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	id := entitlement.EmailIdentity("buyer@example.com")
	now := time.Now()
	rec.Register("ref-1", id, now)

	if _, err := rec.Confirm("ref-1", "txn-1", 25.0, now); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	late := now.Add(2 * time.Hour)
	if _, err := rec.Confirm("ref-1", "txn-1", 25.0, late); err != ErrUnknownReference {
		t.Fatalf("late duplicate error = %v, want ErrUnknownReference", err)
	}
}

func TestRestoreAppliedDedup(t *testing.T) {
	subs := entitlement.NewSubscriptionStore()
	rec := NewReconciler(subs, testLogger(), 30*24*time.Hour, time.Hour)

	now := time.Now()
	rec.RestoreApplied([]models.PaymentEvent{
		{Reference: "ref-restored", EventID: "txn-1", AppliedAt: now},
	})

	// A duplicate of a restored event no-ops even though its identity
	// is no longer known.
	got, err := rec.Confirm("ref-restored", "txn-1", 25.0, now)
	if err != nil {
		t.Fatalf("Confirm after restore failed: %v", err)
	}
	if got != "" {
		t.Fatalf("restored duplicate resolved %q, want empty identity", got)
	}
	if len(subs.Snapshot()) != 0 {
		t.Fatal("restored duplicate created subscription state")
	}
}
