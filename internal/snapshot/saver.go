package snapshot

import (
	"context"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/payments"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
)

// Saver periodically snapshots the entitlement stores to Postgres.
type Saver struct {
	store      *Store
	engine     *entitlement.Engine
	reconciler *payments.Reconciler
	logger     logging.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewSaver creates a background saver flushing every interval.
func NewSaver(store *Store, engine *entitlement.Engine, reconciler *payments.Reconciler, logger logging.Logger, interval time.Duration) *Saver {
	return &Saver{
		store:      store,
		engine:     engine,
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Restore loads the persisted snapshot into the live stores. Called once
// at startup, before the server accepts traffic.
func (s *Saver) Restore(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	s.engine.Ledger().Restore(state.Trials)
	s.engine.Subscriptions().Restore(state.Subscriptions)
	s.reconciler.RestoreApplied(state.Events)

	s.logger.WithFields(logging.Fields{
		"identities":     len(state.Trials),
		"subscriptions":  len(state.Subscriptions),
		"payment_events": len(state.Events),
	}).Info("Restored entitlement snapshot")
	return nil
}

// Start begins the periodic flush loop.
func (s *Saver) Start(ctx context.Context) {
	s.logger.WithField("interval", s.interval).Info("Starting snapshot saver")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case <-s.stopCh:
			s.flush()
			return
		case <-ticker.C:
			s.flush()
		}
	}
}

// Stop stops the flush loop after one final flush.
func (s *Saver) Stop() {
	s.logger.Info("Stopping snapshot saver")
	close(s.stopCh)
}

func (s *Saver) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	state := State{
		Trials:        s.engine.Ledger().Snapshot(),
		Subscriptions: s.engine.Subscriptions().Snapshot(),
		Events:        s.reconciler.AppliedEvents(),
	}
	if err := s.store.Save(ctx, state); err != nil {
		s.logger.WithError(err).Error("Failed to save entitlement snapshot")
	}
}
