// Package snapshot persists the in-memory entitlement state to Postgres
// so trials, subscriptions and the payment dedup set survive restarts.
// The in-memory stores stay authoritative; the database only holds
// periodic snapshots.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"
)

// Store reads and writes entitlement snapshots.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore creates a snapshot store.
func NewStore(db *sql.DB, logger logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the snapshot tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS identities (
			identity   TEXT PRIMARY KEY,
			trials     JSONB NOT NULL DEFAULT '{}',
			paid_until TIMESTAMPTZ,
			banned     BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_events (
			reference  TEXT PRIMARY KEY,
			event_id   TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create snapshot schema: %w", err)
		}
	}
	return nil
}

// State is one full snapshot of the entitlement stores.
type State struct {
	Trials        map[entitlement.Identity]map[string]int
	Subscriptions map[entitlement.Identity]entitlement.SubscriptionState
	Events        []models.PaymentEvent
}

// Save replaces the persisted snapshot with the given state in one
// transaction.
func (s *Store) Save(ctx context.Context, state State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM identities`); err != nil {
		return fmt.Errorf("failed to clear identities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_events`); err != nil {
		return fmt.Errorf("failed to clear payment events: %w", err)
	}

	// Union of identities seen by either store.
	ids := make(map[entitlement.Identity]struct{}, len(state.Trials)+len(state.Subscriptions))
	for id := range state.Trials {
		ids[id] = struct{}{}
	}
	for id := range state.Subscriptions {
		ids[id] = struct{}{}
	}

	for id := range ids {
		trials := state.Trials[id]
		if trials == nil {
			trials = map[string]int{}
		}
		trialsJSON, err := json.Marshal(trials)
		if err != nil {
			return fmt.Errorf("failed to encode trials for %s: %w", id, err)
		}

		var paidUntil sql.NullTime
		var banned bool
		if sub, ok := state.Subscriptions[id]; ok {
			if !sub.PaidUntil.IsZero() {
				paidUntil = sql.NullTime{Time: sub.PaidUntil, Valid: true}
			}
			banned = sub.Banned
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identities (identity, trials, paid_until, banned, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			string(id), trialsJSON, paidUntil, banned, time.Now(),
		); err != nil {
			return fmt.Errorf("failed to insert identity %s: %w", id, err)
		}
	}

	for _, ev := range state.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payment_events (reference, event_id, applied_at) VALUES ($1, $2, $3) ON CONFLICT (reference) DO NOTHING`,
			ev.Reference, ev.EventID, ev.AppliedAt,
		); err != nil {
			return fmt.Errorf("failed to insert payment event %s: %w", ev.Reference, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot.
func (s *Store) Load(ctx context.Context) (State, error) {
	state := State{
		Trials:        make(map[entitlement.Identity]map[string]int),
		Subscriptions: make(map[entitlement.Identity]entitlement.SubscriptionState),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT identity, trials, paid_until, banned FROM identities`)
	if err != nil {
		return State{}, fmt.Errorf("failed to load identities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			identity   string
			trialsJSON []byte
			paidUntil  sql.NullTime
			banned     bool
		)
		if err := rows.Scan(&identity, &trialsJSON, &paidUntil, &banned); err != nil {
			return State{}, fmt.Errorf("failed to scan identity row: %w", err)
		}

		id := entitlement.Identity(identity)
		trials := map[string]int{}
		if len(trialsJSON) > 0 {
			if err := json.Unmarshal(trialsJSON, &trials); err != nil {
				s.logger.WithError(err).WithField("identity", identity).Warn("Skipping malformed trials blob")
				trials = map[string]int{}
			}
		}
		if len(trials) > 0 {
			state.Trials[id] = trials
		}

		sub := entitlement.SubscriptionState{Banned: banned}
		if paidUntil.Valid {
			sub.PaidUntil = paidUntil.Time
		}
		if sub.Banned || !sub.PaidUntil.IsZero() {
			state.Subscriptions[id] = sub
		}
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("failed to iterate identities: %w", err)
	}

	evRows, err := s.db.QueryContext(ctx, `SELECT reference, event_id, applied_at FROM payment_events`)
	if err != nil {
		return State{}, fmt.Errorf("failed to load payment events: %w", err)
	}
	defer evRows.Close()

	for evRows.Next() {
		var ev models.PaymentEvent
		if err := evRows.Scan(&ev.Reference, &ev.EventID, &ev.AppliedAt); err != nil {
			return State{}, fmt.Errorf("failed to scan payment event row: %w", err)
		}
		state.Events = append(state.Events, ev)
	}
	if err := evRows.Err(); err != nil {
		return State{}, fmt.Errorf("failed to iterate payment events: %w", err)
	}

	return state, nil
}
