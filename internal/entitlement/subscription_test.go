package entitlement

import (
	"testing"
	"time"
)

func TestIsPaidActive(t *testing.T) {
	s := NewSubscriptionStore()
	id := EmailIdentity("user@example.com")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	if s.IsPaidActive(id, now) {
		t.Fatal("unseen identity should not be paid")
	}

	s.ExtendPaid(id, 30*24*time.Hour, now)
	if !s.IsPaidActive(id, now) {
		t.Fatal("expected paid after extend")
	}
	if s.IsPaidActive(id, now.Add(31*24*time.Hour)) {
		t.Fatal("expected expired after window")
	}
}

func TestExtendPaidStacksFromLaterOfNowOrExpiry(t *testing.T) {
	s := NewSubscriptionStore()
	id := EmailIdentity("user@example.com")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour

	// First extension: from now
	got := s.ExtendPaid(id, month, now)
	if !got.Equal(now.Add(month)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(month), got)
	}

	// Second extension while active: stacks from the current expiry
	got = s.ExtendPaid(id, month, now.Add(24*time.Hour))
	if !got.Equal(now.Add(2 * month)) {
		t.Fatalf("expected stacked expiry %v, got %v", now.Add(2*month), got)
	}

	// Extension after lapse: stacks from now, not the stale expiry
	lapsed := now.Add(3 * month)
	got = s.ExtendPaid(id, month, lapsed)
	if !got.Equal(lapsed.Add(month)) {
		t.Fatalf("expected expiry from now %v, got %v", lapsed.Add(month), got)
	}
}

func TestSetBanned(t *testing.T) {
	s := NewSubscriptionStore()
	id := EmailIdentity("user@example.com")

	if s.IsBanned(id) {
		t.Fatal("unseen identity should not be banned")
	}

	s.SetBanned(id, true)
	if !s.IsBanned(id) {
		t.Fatal("expected banned")
	}

	s.SetBanned(id, false)
	if s.IsBanned(id) {
		t.Fatal("expected unbanned")
	}
}

func TestUnbanUnknownIdentityIsNoop(t *testing.T) {
	s := NewSubscriptionStore()
	s.SetBanned(EmailIdentity("ghost@example.com"), false)

	if snap := s.Snapshot(); len(snap) != 0 {
		t.Fatalf("unban of unknown identity created state: %v", snap)
	}
}

func TestSubscriptionDelete(t *testing.T) {
	s := NewSubscriptionStore()
	id := EmailIdentity("user@example.com")
	now := time.Now()

	s.ExtendPaid(id, time.Hour, now)
	s.SetBanned(id, true)
	s.Delete(id)

	if s.IsBanned(id) || s.IsPaidActive(id, now) {
		t.Fatal("expected all state gone after delete")
	}
}

func TestSubscriptionSnapshotRestore(t *testing.T) {
	s := NewSubscriptionStore()
	id := EmailIdentity("user@example.com")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	expiry := s.ExtendPaid(id, time.Hour, now)
	s.SetBanned(id, true)

	restored := NewSubscriptionStore()
	restored.Restore(s.Snapshot())

	if !restored.IsBanned(id) {
		t.Fatal("expected ban flag to survive restore")
	}
	got, ok := restored.PaidUntil(id)
	if !ok || !got.Equal(expiry) {
		t.Fatalf("expected paidUntil %v, got %v (set=%v)", expiry, got, ok)
	}
}
