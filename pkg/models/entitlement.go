package models

import "time"

// IdentityState is the admin-facing view of everything tracked for one
// identity: consumed trials per service, subscription window, ban flag.
type IdentityState struct {
	Identity  string         `json:"identity"`
	Trials    map[string]int `json:"trials"`
	PaidUntil *time.Time     `json:"paid_until,omitempty"`
	Banned    bool           `json:"banned"`
}

// AdminStats aggregates counts across all known identities. Computed from
// existing records only; producing it never creates state.
type AdminStats struct {
	TotalIdentities int            `json:"total_identities"`
	PaidActive      int            `json:"paid_active"`
	Banned          int            `json:"banned"`
	TrialExhausted  map[string]int `json:"trial_exhausted"`
}

// PaymentEvent records an applied payment confirmation for dedup and audit.
type PaymentEvent struct {
	Reference string    `json:"reference"`
	EventID   string    `json:"event_id,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}
