package store

import (
	"sort"
	"sync"
	"time"

	"chak-property-server/models"
)

// MemoryStore keeps payment records in process memory. It backs local
// development and tests when no database is configured; records are lost on
// restart.
type MemoryStore struct {
	mu        sync.RWMutex
	payments  map[string]*models.PaymentRecord // keyed by checkout request id
	callbacks []*models.CallbackLog
	nextID    uint
	nextLogID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments: make(map[string]*models.PaymentRecord),
	}
}

func (s *MemoryStore) CreatePayment(rec *models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	clone := *rec
	s.payments[rec.CheckoutRequestID] = &clone
	return nil
}

func (s *MemoryStore) GetByCheckoutID(checkoutID string) (*models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.payments[checkoutID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) TransitionStatus(checkoutID string, upd TerminalUpdate) (*models.PaymentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[checkoutID]
	if !ok {
		return nil, false, ErrPaymentNotFound
	}
	if rec.Status != models.PaymentStatusPending {
		clone := *rec
		return &clone, false, nil
	}

	rec.Status = upd.Status
	rec.ResultCode = upd.ResultCode
	rec.ResultDesc = upd.ResultDesc
	if upd.MpesaReceiptNumber != "" {
		rec.MpesaReceiptNumber = upd.MpesaReceiptNumber
	}
	if upd.Amount > 0 {
		rec.Amount = upd.Amount
	}
	rec.CompletedAt = upd.CompletedAt
	rec.UpdatedAt = time.Now()

	clone := *rec
	return &clone, true, nil
}

func (s *MemoryStore) ListPayments(filter ListFilter) ([]models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []models.PaymentRecord
	for _, rec := range s.payments {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Month != "" && rec.Month != filter.Month {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *MemoryStore) ExpirePending(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.payments {
		if rec.Status == models.PaymentStatusPending && rec.CreatedAt.Before(cutoff) {
			rec.Status = models.PaymentStatusExpired
			rec.ResultDesc = "no gateway callback received before timeout"
			rec.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendCallbackLog(entry *models.CallbackLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	entry.ID = s.nextLogID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt

	clone := *entry
	s.callbacks = append(s.callbacks, &clone)
	return nil
}

func (s *MemoryStore) UnprocessedCallbacks(limit int) ([]models.CallbackLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var logs []models.CallbackLog
	for _, entry := range s.callbacks {
		if entry.Processed {
			continue
		}
		logs = append(logs, *entry)
		if len(logs) == limit {
			break
		}
	}
	return logs, nil
}

func (s *MemoryStore) MarkCallbackProcessed(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.callbacks {
		if entry.ID == id {
			now := time.Now()
			entry.Processed = true
			entry.ProcessedAt = &now
			entry.UpdatedAt = now
			return nil
		}
	}
	return nil
}
