package entitlement

import (
	"sync"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"
)

// DenyReason distinguishes the two entitlement denials from generic errors.
type DenyReason string

const (
	DenyBanned          DenyReason = "banned"
	DenyTrialsExhausted DenyReason = "trials_exhausted"
)

// Decision is the outcome of one authorization attempt. When Allowed and
// Metered, a trial was consumed; a paid-window permit leaves the ledger
// untouched.
type Decision struct {
	Allowed         bool
	Reason          DenyReason
	Metered         bool
	Paid            bool
	TrialsRemaining int
}

// Engine combines the usage ledger and the subscription store into the
// single authorization primitive for the request path.
type Engine struct {
	ledger *Ledger
	subs   *SubscriptionStore

	// adminMu serializes compound admin mutations that touch both stores.
	adminMu sync.Mutex
}

// NewEngine creates an engine over the given stores.
func NewEngine(ledger *Ledger, subs *SubscriptionStore) *Engine {
	return &Engine{ledger: ledger, subs: subs}
}

// Ledger exposes the usage ledger for read paths and persistence.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Subscriptions exposes the subscription store for the payment path.
func (e *Engine) Subscriptions() *SubscriptionStore { return e.subs }

// Authorize decides whether id may invoke service now, consuming a trial
// when the paid window is not active. Authorization and commit are one
// step: the trial path goes through TryConsume only, so a permit can never
// be handed out without the counter moving in the same critical section.
// The caller performs the external generation call strictly after a
// permit; a failed generation does not refund the trial.
func (e *Engine) Authorize(id Identity, service string, now time.Time) Decision {
	if e.subs.IsBanned(id) {
		return Decision{Reason: DenyBanned}
	}

	if e.subs.IsPaidActive(id, now) {
		return Decision{
			Allowed:         true,
			Paid:            true,
			TrialsRemaining: e.ledger.TrialsRemaining(id, service),
		}
	}

	if e.ledger.TryConsume(id, service) {
		return Decision{
			Allowed:         true,
			Metered:         true,
			TrialsRemaining: e.ledger.TrialsRemaining(id, service),
		}
	}

	return Decision{Reason: DenyTrialsExhausted}
}

// TrialsRemaining reports remaining trials per catalog service for an
// identity. Pure read; never creates state.
func (e *Engine) TrialsRemaining(id Identity, services []string) map[string]int {
	out := make(map[string]int, len(services))
	for _, service := range services {
		out[service] = e.ledger.TrialsRemaining(id, service)
	}
	return out
}

// Ban flags the identity; every subsequent authorization is denied until
// Unban, regardless of trials or paid state.
func (e *Engine) Ban(id Identity) {
	e.subs.SetBanned(id, true)
}

// Unban clears the ban flag, restoring whatever entitlement the identity
// had before. Unknown identities are a no-op.
func (e *Engine) Unban(id Identity) {
	e.subs.SetBanned(id, false)
}

// DeleteIdentity removes both the subscription record and all trial
// counters for the identity, so it behaves as never seen again.
func (e *Engine) DeleteIdentity(id Identity) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	e.subs.Delete(id)
	e.ledger.Delete(id)
}

// Stats aggregates counts over existing records only. It deliberately
// bypasses every lazy-create path so that inspecting the system can never
// inflate it.
func (e *Engine) Stats(now time.Time) models.AdminStats {
	trials := e.ledger.Snapshot()
	subs := e.subs.Snapshot()

	identities := make(map[Identity]struct{}, len(trials)+len(subs))
	for id := range trials {
		identities[id] = struct{}{}
	}
	for id := range subs {
		identities[id] = struct{}{}
	}

	stats := models.AdminStats{
		TotalIdentities: len(identities),
		TrialExhausted:  make(map[string]int),
	}

	for _, st := range subs {
		if st.Banned {
			stats.Banned++
		}
		if !st.PaidUntil.IsZero() && now.Before(st.PaidUntil) {
			stats.PaidActive++
		}
	}

	for _, used := range trials {
		for service, n := range used {
			if n >= e.ledger.Allowance(service) {
				stats.TrialExhausted[service]++
			}
		}
	}

	return stats
}

// Identities returns the admin-facing view of every tracked identity.
func (e *Engine) Identities() []models.IdentityState {
	trials := e.ledger.Snapshot()
	subs := e.subs.Snapshot()

	ids := make(map[Identity]struct{}, len(trials)+len(subs))
	for id := range trials {
		ids[id] = struct{}{}
	}
	for id := range subs {
		ids[id] = struct{}{}
	}

	out := make([]models.IdentityState, 0, len(ids))
	for id := range ids {
		state := models.IdentityState{
			Identity: id.String(),
			Trials:   trials[id],
		}
		if state.Trials == nil {
			state.Trials = map[string]int{}
		}
		if sub, ok := subs[id]; ok {
			state.Banned = sub.Banned
			if !sub.PaidUntil.IsZero() {
				paidUntil := sub.PaidUntil
				state.PaidUntil = &paidUntil
			}
		}
		out = append(out, state)
	}
	return out
}
