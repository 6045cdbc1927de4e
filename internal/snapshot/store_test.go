package snapshot

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/models"
)

func testLogger() logging.Logger {
	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSaveWritesIdentitiesAndEvents(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, testLogger())

	paidUntil := time.Date(2026, time.September, 27, 12, 0, 0, 0, time.UTC)
	appliedAt := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM identities").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM payment_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO identities").
		WithArgs("email:buyer@example.com", []byte(`{"copywriting":2}`), sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payment_events").
		WithArgs("ref-1", "txn-1", appliedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	state := State{
		Trials: map[entitlement.Identity]map[string]int{
			"email:buyer@example.com": {"copywriting": 2},
		},
		Subscriptions: map[entitlement.Identity]entitlement.SubscriptionState{
			"email:buyer@example.com": {PaidUntil: paidUntil},
		},
		Events: []models.PaymentEvent{
			{Reference: "ref-1", EventID: "txn-1", AppliedAt: appliedAt},
		},
	}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, testLogger())

	paidUntil := time.Date(2026, time.September, 27, 12, 0, 0, 0, time.UTC)
	appliedAt := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT identity, trials, paid_until, banned FROM identities").
		WillReturnRows(sqlmock.NewRows([]string{"identity", "trials", "paid_until", "banned"}).
			AddRow("email:buyer@example.com", []byte(`{"copywriting":2}`), paidUntil, false).
			AddRow("anon:203.0.113.9", []byte(`{}`), nil, true))
	mock.ExpectQuery("SELECT reference, event_id, applied_at FROM payment_events").
		WillReturnRows(sqlmock.NewRows([]string{"reference", "event_id", "applied_at"}).
			AddRow("ref-1", "txn-1", appliedAt))

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := state.Trials["email:buyer@example.com"]["copywriting"]; got != 2 {
		t.Fatalf("trials = %d, want 2", got)
	}
	sub := state.Subscriptions["email:buyer@example.com"]
	if !sub.PaidUntil.Equal(paidUntil) {
		t.Fatalf("paidUntil = %v, want %v", sub.PaidUntil, paidUntil)
	}
	banned := state.Subscriptions["anon:203.0.113.9"]
	if !banned.Banned {
		t.Fatal("banned flag lost on load")
	}
	if len(state.Events) != 1 || state.Events[0].Reference != "ref-1" {
		t.Fatalf("unexpected events: %+v", state.Events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM identities").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := store.Save(context.Background(), State{}); err == nil {
		t.Fatal("expected Save to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
