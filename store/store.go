package store

import (
	"errors"
	"time"

	"chak-property-server/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

// TerminalUpdate carries the fields written when a pending payment reaches a
// terminal state.
type TerminalUpdate struct {
	Status             string
	MpesaReceiptNumber string
	Amount             int64
	ResultCode         int
	ResultDesc         string
	CompletedAt        *time.Time
}

// ListFilter narrows ListPayments; zero values mean "any".
type ListFilter struct {
	Status string
	Month  string
}

// PaymentStore is the persistence boundary for the reconciliation flow. Two
// implementations exist: GormStore (MySQL) and MemoryStore (dev/tests). The
// implementation is chosen once at startup; business logic never branches on it.
type PaymentStore interface {
	CreatePayment(rec *models.PaymentRecord) error
	GetByCheckoutID(checkoutID string) (*models.PaymentRecord, error)

	// TransitionStatus applies upd only if the record is still pending, so
	// duplicate gateway callbacks cannot overwrite a terminal state. It returns
	// the record as stored after the attempt and whether this call performed
	// the transition.
	TransitionStatus(checkoutID string, upd TerminalUpdate) (*models.PaymentRecord, bool, error)

	ListPayments(filter ListFilter) ([]models.PaymentRecord, error)

	// ExpirePending marks records still pending and created before cutoff as
	// expired, returning how many were affected.
	ExpirePending(cutoff time.Time) (int64, error)

	AppendCallbackLog(entry *models.CallbackLog) error
	UnprocessedCallbacks(limit int) ([]models.CallbackLog, error)
	MarkCallbackProcessed(id uint) error
}
