package entitlement

import "sync"

// Ledger tracks, per identity and per service, how many free trials have
// been consumed. The per-service allowance is fixed at construction time
// from the service catalog.
//
// TryConsume is the only mutating entry point on the request path and is
// linearizable per identity: each identity owns its own lock, so
// concurrent requests for different identities never block each other.
type Ledger struct {
	allowances map[string]int

	mu      sync.RWMutex
	entries map[Identity]*ledgerEntry
}

type ledgerEntry struct {
	mu   sync.Mutex
	used map[string]int
}

// NewLedger creates a ledger with the given per-service trial allowances.
func NewLedger(allowances map[string]int) *Ledger {
	copied := make(map[string]int, len(allowances))
	for service, n := range allowances {
		copied[service] = n
	}
	return &Ledger{
		allowances: copied,
		entries:    make(map[Identity]*ledgerEntry),
	}
}

// Allowance returns the configured trial allowance for a service, 0 for
// services outside the catalog.
func (l *Ledger) Allowance(service string) int {
	return l.allowances[service]
}

// TrialsRemaining returns the allowance minus the consumed count, floored
// at 0. This is a pure read: an identity that has never consumed anything
// is reported at full allowance without creating state.
func (l *Ledger) TrialsRemaining(id Identity, service string) int {
	allowance, ok := l.allowances[service]
	if !ok {
		return 0
	}

	l.mu.RLock()
	entry := l.entries[id]
	l.mu.RUnlock()

	if entry == nil {
		return allowance
	}

	entry.mu.Lock()
	used := entry.used[service]
	entry.mu.Unlock()

	remaining := allowance - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TryConsume atomically checks that a trial remains for (id, service) and
// consumes it. Returns false, leaving state unchanged, when the allowance
// is exhausted or the service is unknown. The check and the increment
// happen under one lock so the counter can never exceed the allowance no
// matter how many callers race.
func (l *Ledger) TryConsume(id Identity, service string) bool {
	allowance, ok := l.allowances[service]
	if !ok {
		return false
	}

	entry := l.entry(id)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.used[service] >= allowance {
		return false
	}
	entry.used[service]++
	return true
}

// Delete removes all trial state for an identity. Subsequent reads behave
// as if the identity had never been seen.
func (l *Ledger) Delete(id Identity) {
	l.mu.Lock()
	delete(l.entries, id)
	l.mu.Unlock()
}

// Snapshot returns a deep copy of all consumed counters, for stats and
// persistence. Identities with no consumption are absent.
func (l *Ledger) Snapshot() map[Identity]map[string]int {
	l.mu.RLock()
	refs := make(map[Identity]*ledgerEntry, len(l.entries))
	for id, entry := range l.entries {
		refs[id] = entry
	}
	l.mu.RUnlock()

	out := make(map[Identity]map[string]int, len(refs))
	for id, entry := range refs {
		entry.mu.Lock()
		used := make(map[string]int, len(entry.used))
		for service, n := range entry.used {
			used[service] = n
		}
		entry.mu.Unlock()
		if len(used) > 0 {
			out[id] = used
		}
	}
	return out
}

// Restore replaces the ledger contents with previously snapshotted
// counters. Counters are clamped to the configured allowances.
func (l *Ledger) Restore(counters map[Identity]map[string]int) {
	entries := make(map[Identity]*ledgerEntry, len(counters))
	for id, used := range counters {
		entry := &ledgerEntry{used: make(map[string]int, len(used))}
		for service, n := range used {
			allowance, ok := l.allowances[service]
			if !ok {
				continue
			}
			if n > allowance {
				n = allowance
			}
			if n < 0 {
				n = 0
			}
			entry.used[service] = n
		}
		entries[id] = entry
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

func (l *Ledger) entry(id Identity) *ledgerEntry {
	l.mu.RLock()
	entry := l.entries[id]
	l.mu.RUnlock()
	if entry != nil {
		return entry
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if entry = l.entries[id]; entry == nil {
		entry = &ledgerEntry{used: make(map[string]int)}
		l.entries[id] = entry
	}
	return entry
}
