package entitlement

import (
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(NewLedger(testAllowances()), NewSubscriptionStore())
}

func TestAuthorizeTrialPath(t *testing.T) {
	e := newTestEngine()
	id := EmailIdentity("user@example.com")
	now := time.Now()

	for i := 3; i > 0; i-- {
		d := e.Authorize(id, "copywriting", now)
		if !d.Allowed || !d.Metered {
			t.Fatalf("request %d: expected metered permit, got %+v", 4-i, d)
		}
		if d.TrialsRemaining != i-1 {
			t.Fatalf("request %d: expected %d remaining, got %d", 4-i, i-1, d.TrialsRemaining)
		}
	}

	d := e.Authorize(id, "copywriting", now)
	if d.Allowed || d.Reason != DenyTrialsExhausted {
		t.Fatalf("expected trials_exhausted denial, got %+v", d)
	}
}

func TestAuthorizePaidPathIsUnmetered(t *testing.T) {
	e := newTestEngine()
	id := EmailIdentity("user@example.com")
	now := time.Now()

	// Exhaust the trials first
	for i := 0; i < 3; i++ {
		e.Authorize(id, "copywriting", now)
	}
	if d := e.Authorize(id, "copywriting", now); d.Allowed {
		t.Fatalf("expected denial before payment, got %+v", d)
	}

	e.Subscriptions().ExtendPaid(id, 30*24*time.Hour, now)

	d := e.Authorize(id, "copywriting", now)
	if !d.Allowed || !d.Paid || d.Metered {
		t.Fatalf("expected unmetered paid permit, got %+v", d)
	}
	// Paid usage must not touch the ledger
	if d.TrialsRemaining != 0 {
		t.Fatalf("expected ledger unchanged at 0, got %d", d.TrialsRemaining)
	}
	if got := e.Ledger().TrialsRemaining(id, "freelance"); got != 3 {
		t.Fatalf("expected freelance allowance untouched, got %d", got)
	}
}

func TestAuthorizeBannedOverridesEverything(t *testing.T) {
	e := newTestEngine()
	id := EmailIdentity("user@example.com")
	now := time.Now()

	e.Subscriptions().ExtendPaid(id, 30*24*time.Hour, now)
	e.Ban(id)

	for _, service := range []string{"copywriting", "freelance", "business-plan"} {
		d := e.Authorize(id, service, now)
		if d.Allowed || d.Reason != DenyBanned {
			t.Fatalf("service %s: expected banned denial, got %+v", service, d)
		}
	}

	// Unban restores the prior (paid) entitlement exactly
	e.Unban(id)
	d := e.Authorize(id, "copywriting", now)
	if !d.Allowed || !d.Paid {
		t.Fatalf("expected paid permit after unban, got %+v", d)
	}
	if got := e.Ledger().TrialsRemaining(id, "copywriting"); got != 3 {
		t.Fatalf("ban/unban must not consume trials, got %d remaining", got)
	}
}

func TestDeleteIdentityResetsEverything(t *testing.T) {
	e := newTestEngine()
	id := EmailIdentity("user@example.com")
	now := time.Now()

	for i := 0; i < 3; i++ {
		e.Authorize(id, "copywriting", now)
	}
	e.Subscriptions().ExtendPaid(id, time.Hour, now)
	e.Ban(id)

	e.DeleteIdentity(id)

	d := e.Authorize(id, "copywriting", now)
	if !d.Allowed || !d.Metered || d.TrialsRemaining != 2 {
		t.Fatalf("expected fresh-identity behavior after delete, got %+v", d)
	}
}

func TestStatsCountsWithoutCreating(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	paid := EmailIdentity("paid@example.com")
	banned := EmailIdentity("banned@example.com")
	exhausted := EmailIdentity("exhausted@example.com")

	e.Subscriptions().ExtendPaid(paid, time.Hour, now)
	e.Ban(banned)
	for i := 0; i < 3; i++ {
		e.Authorize(exhausted, "copywriting", now)
	}

	stats := e.Stats(now)
	if stats.TotalIdentities != 3 {
		t.Fatalf("expected 3 identities, got %d", stats.TotalIdentities)
	}
	if stats.PaidActive != 1 {
		t.Fatalf("expected 1 paid, got %d", stats.PaidActive)
	}
	if stats.Banned != 1 {
		t.Fatalf("expected 1 banned, got %d", stats.Banned)
	}
	if stats.TrialExhausted["copywriting"] != 1 {
		t.Fatalf("expected 1 exhausted for copywriting, got %d", stats.TrialExhausted["copywriting"])
	}

	// Stats itself must not have created records
	again := e.Stats(now)
	if again.TotalIdentities != 3 {
		t.Fatalf("stats inflated the identity count: %d", again.TotalIdentities)
	}
}

func TestTrialsRemainingReadOnly(t *testing.T) {
	e := newTestEngine()
	id := AnonIdentity("203.0.113.7")

	remaining := e.TrialsRemaining(id, []string{"copywriting", "freelance"})
	if remaining["copywriting"] != 3 || remaining["freelance"] != 3 {
		t.Fatalf("unexpected remaining: %v", remaining)
	}
	if stats := e.Stats(time.Now()); stats.TotalIdentities != 0 {
		t.Fatalf("read created identities: %d", stats.TotalIdentities)
	}
}
