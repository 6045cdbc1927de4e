package entitlement

import (
	"sync"
	"time"
)

// SubscriptionStore tracks, per identity, the paid-access expiry and the
// ban flag. All mutations for a given identity are serialized on that
// identity's record; different identities never contend.
type SubscriptionStore struct {
	mu      sync.RWMutex
	records map[Identity]*subscriptionRecord
}

type subscriptionRecord struct {
	mu        sync.Mutex
	paidUntil time.Time // zero value means never paid
	banned    bool
}

// SubscriptionState is a plain-data copy of one record, for snapshots.
type SubscriptionState struct {
	PaidUntil time.Time
	Banned    bool
}

// NewSubscriptionStore creates an empty store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{records: make(map[Identity]*subscriptionRecord)}
}

// IsPaidActive reports whether the identity has a subscription window
// covering now. Pure read; unknown identities are simply not paid.
func (s *SubscriptionStore) IsPaidActive(id Identity, now time.Time) bool {
	rec := s.lookup(id)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return !rec.paidUntil.IsZero() && now.Before(rec.paidUntil)
}

// IsBanned reports the ban flag. Pure read.
func (s *SubscriptionStore) IsBanned(id Identity) bool {
	rec := s.lookup(id)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.banned
}

// PaidUntil returns the expiry instant and whether one is set.
func (s *SubscriptionStore) PaidUntil(id Identity) (time.Time, bool) {
	rec := s.lookup(id)
	if rec == nil {
		return time.Time{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.paidUntil, !rec.paidUntil.IsZero()
}

// ExtendPaid moves paidUntil forward by duration, stacking from whichever
// of now or the current expiry is later. A lapsed in-the-past expiry never
// shortens the new window. Returns the new expiry.
func (s *SubscriptionStore) ExtendPaid(id Identity, duration time.Duration, now time.Time) time.Time {
	rec := s.getOrCreate(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	base := now
	if rec.paidUntil.After(base) {
		base = rec.paidUntil
	}
	rec.paidUntil = base.Add(duration)
	return rec.paidUntil
}

// SetBanned sets or clears the ban flag. Clearing the flag for an unknown
// identity is a no-op rather than an error.
func (s *SubscriptionStore) SetBanned(id Identity, banned bool) {
	if !banned {
		rec := s.lookup(id)
		if rec == nil {
			return
		}
		rec.mu.Lock()
		rec.banned = false
		rec.mu.Unlock()
		return
	}

	rec := s.getOrCreate(id)
	rec.mu.Lock()
	rec.banned = true
	rec.mu.Unlock()
}

// Delete removes the record entirely.
func (s *SubscriptionStore) Delete(id Identity) {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
}

// Snapshot returns a plain-data copy of every record.
func (s *SubscriptionStore) Snapshot() map[Identity]SubscriptionState {
	s.mu.RLock()
	refs := make(map[Identity]*subscriptionRecord, len(s.records))
	for id, rec := range s.records {
		refs[id] = rec
	}
	s.mu.RUnlock()

	out := make(map[Identity]SubscriptionState, len(refs))
	for id, rec := range refs {
		rec.mu.Lock()
		out[id] = SubscriptionState{PaidUntil: rec.paidUntil, Banned: rec.banned}
		rec.mu.Unlock()
	}
	return out
}

// Restore replaces the store contents with previously snapshotted records.
func (s *SubscriptionStore) Restore(states map[Identity]SubscriptionState) {
	records := make(map[Identity]*subscriptionRecord, len(states))
	for id, st := range states {
		records[id] = &subscriptionRecord{paidUntil: st.PaidUntil, banned: st.Banned}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

func (s *SubscriptionStore) lookup(id Identity) *subscriptionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

func (s *SubscriptionStore) getOrCreate(id Identity) *subscriptionRecord {
	s.mu.RLock()
	rec := s.records[id]
	s.mu.RUnlock()
	if rec != nil {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec = s.records[id]; rec == nil {
		rec = &subscriptionRecord{}
		s.records[id] = rec
	}
	return rec
}
