package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"chak-property-server/models"
	"chak-property-server/mpesa"
	"chak-property-server/store"
	"chak-property-server/utils"
)

const (
	defaultSweepInterval = time.Minute
	defaultPendingTTL    = 15 * time.Minute
	replayBatchSize      = 100
)

// Sweeper is the reconciliation loop behind the webhook flow. Each pass first
// replays callbacks that arrived before their payment record was persisted,
// then expires records that have waited past the pending TTL without any
// callback at all.
type Sweeper struct {
	Store      store.PaymentStore
	Notifier   *utils.Notifier
	Interval   time.Duration
	PendingTTL time.Duration
}

func NewSweeper(st store.PaymentStore, notifier *utils.Notifier) *Sweeper {
	return &Sweeper{
		Store:      st,
		Notifier:   notifier,
		Interval:   defaultSweepInterval,
		PendingTTL: defaultPendingTTL,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("[sweeper] started, interval %s, pending TTL %s", s.Interval, s.PendingTTL)
	for {
		select {
		case <-ctx.Done():
			log.Println("[sweeper] stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one reconciliation pass.
func (s *Sweeper) Sweep() {
	s.replayCallbacks()

	cutoff := time.Now().Add(-s.PendingTTL)
	n, err := s.Store.ExpirePending(cutoff)
	if err != nil {
		log.Printf("[sweeper] failed to expire stale pending payments: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[sweeper] expired %d payment(s) pending since before %s", n, cutoff.Format(time.RFC3339))
	}
}

func (s *Sweeper) replayCallbacks() {
	logs, err := s.Store.UnprocessedCallbacks(replayBatchSize)
	if err != nil {
		log.Printf("[sweeper] failed to list unprocessed callbacks: %v", err)
		return
	}

	for _, entry := range logs {
		var envelope mpesa.CallbackEnvelope
		if err := json.Unmarshal([]byte(entry.Payload), &envelope); err != nil {
			// Unparseable payloads never become replayable; retire them.
			log.Printf("[sweeper] dropping malformed callback log %d: %v", entry.ID, err)
			if err := s.Store.MarkCallbackProcessed(entry.ID); err != nil {
				log.Printf("[sweeper] failed to mark callback %d processed: %v", entry.ID, err)
			}
			continue
		}
		cb := envelope.Body.STKCallback

		rec, applied, err := applyCallback(s.Store, &cb)
		if errors.Is(err, store.ErrPaymentNotFound) {
			// Still no record; keep the callback queued for the next pass.
			continue
		}
		if err != nil {
			log.Printf("[sweeper] failed to replay callback %d for %s: %v", entry.ID, cb.CheckoutRequestID, err)
			continue
		}

		if applied {
			log.Printf("[sweeper] replayed callback for %s, payment now %s", cb.CheckoutRequestID, rec.Status)
			if rec.Status == models.PaymentStatusCompleted && s.Notifier != nil {
				s.Notifier.PaymentCompleted(rec)
			}
		}
		if err := s.Store.MarkCallbackProcessed(entry.ID); err != nil {
			log.Printf("[sweeper] failed to mark callback %d processed: %v", entry.ID, err)
		}
	}
}
