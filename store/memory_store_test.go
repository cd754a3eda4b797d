package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chak-property-server/models"
)

func newPending(checkoutID string) *models.PaymentRecord {
	return &models.PaymentRecord{
		CheckoutRequestID: checkoutID,
		TenantID:          "T1",
		PropertyID:        "PROP1",
		Unit:              "A1",
		Month:             "2024-05",
		Amount:            1000,
		PhoneNumber:       "254712345678",
		Status:            models.PaymentStatusPending,
		PaymentType:       models.PaymentTypeRent,
		AccountReference:  "PROP1-A1-2024-05",
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()

	rec := newPending("ws_CO_1")
	require.NoError(t, s.CreatePayment(rec))
	require.NotZero(t, rec.ID)

	got, err := s.GetByCheckoutID("ws_CO_1")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, got.Status)
	require.Equal(t, int64(1000), got.Amount)

	_, err = s.GetByCheckoutID("ws_CO_missing")
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestMemoryStoreTransitionIsConditional(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.CreatePayment(newPending("ws_CO_1")))

	now := time.Now()
	upd := TerminalUpdate{
		Status:             models.PaymentStatusCompleted,
		MpesaReceiptNumber: "ABC123",
		Amount:             1000,
		CompletedAt:        &now,
	}

	rec, applied, err := s.TransitionStatus("ws_CO_1", upd)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, models.PaymentStatusCompleted, rec.Status)
	require.Equal(t, "ABC123", rec.MpesaReceiptNumber)

	// Duplicate delivery: the terminal state must not be overwritten.
	dup := TerminalUpdate{Status: models.PaymentStatusFailed, ResultCode: 1032, ResultDesc: "cancelled"}
	rec, applied, err = s.TransitionStatus("ws_CO_1", dup)
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, models.PaymentStatusCompleted, rec.Status)
	require.Equal(t, "ABC123", rec.MpesaReceiptNumber)

	_, _, err = s.TransitionStatus("ws_CO_missing", upd)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestMemoryStoreExpirePending(t *testing.T) {
	s := NewMemoryStore()

	stale := newPending("ws_CO_old")
	require.NoError(t, s.CreatePayment(stale))
	// Backdate the stored copy past the cutoff.
	s.payments["ws_CO_old"].CreatedAt = time.Now().Add(-30 * time.Minute)

	fresh := newPending("ws_CO_new")
	require.NoError(t, s.CreatePayment(fresh))

	done := newPending("ws_CO_done")
	require.NoError(t, s.CreatePayment(done))
	s.payments["ws_CO_done"].CreatedAt = time.Now().Add(-30 * time.Minute)
	s.payments["ws_CO_done"].Status = models.PaymentStatusCompleted

	n, err := s.ExpirePending(time.Now().Add(-15 * time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := s.GetByCheckoutID("ws_CO_old")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusExpired, got.Status)

	got, err = s.GetByCheckoutID("ws_CO_new")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, got.Status)

	got, err = s.GetByCheckoutID("ws_CO_done")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, got.Status)
}

func TestMemoryStoreListFilters(t *testing.T) {
	s := NewMemoryStore()

	a := newPending("ws_CO_a")
	require.NoError(t, s.CreatePayment(a))

	b := newPending("ws_CO_b")
	b.Month = "2024-06"
	require.NoError(t, s.CreatePayment(b))

	c := newPending("ws_CO_c")
	c.Status = models.PaymentStatusCompleted
	require.NoError(t, s.CreatePayment(c))

	all, err := s.ListPayments(ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	pending, err := s.ListPayments(ListFilter{Status: models.PaymentStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	june, err := s.ListPayments(ListFilter{Month: "2024-06"})
	require.NoError(t, err)
	require.Len(t, june, 1)
	require.Equal(t, "ws_CO_b", june[0].CheckoutRequestID)
}

func TestMemoryStoreCallbackLogs(t *testing.T) {
	s := NewMemoryStore()

	entry := &models.CallbackLog{CheckoutRequestID: "ws_CO_1", Payload: "{}"}
	require.NoError(t, s.AppendCallbackLog(entry))
	require.NotZero(t, entry.ID)

	logs, err := s.UnprocessedCallbacks(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	require.NoError(t, s.MarkCallbackProcessed(entry.ID))

	logs, err = s.UnprocessedCallbacks(10)
	require.NoError(t, err)
	require.Empty(t, logs)
}
