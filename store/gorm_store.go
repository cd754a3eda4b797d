package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"chak-property-server/models"
)

// GormStore persists payment records through GORM. The unique index on
// checkout_request_id makes duplicate initiation writes fail loudly instead of
// silently forking records.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreatePayment(rec *models.PaymentRecord) error {
	return s.db.Create(rec).Error
}

func (s *GormStore) GetByCheckoutID(checkoutID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := s.db.Where("checkout_request_id = ?", checkoutID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) TransitionStatus(checkoutID string, upd TerminalUpdate) (*models.PaymentRecord, bool, error) {
	values := map[string]interface{}{
		"status":      upd.Status,
		"result_code": upd.ResultCode,
		"result_desc": upd.ResultDesc,
	}
	if upd.MpesaReceiptNumber != "" {
		values["mpesa_receipt_number"] = upd.MpesaReceiptNumber
	}
	if upd.Amount > 0 {
		values["amount"] = upd.Amount
	}
	if upd.CompletedAt != nil {
		values["completed_at"] = upd.CompletedAt
	}

	// Conditional update: only a pending record transitions, so a redelivered
	// callback is a no-op.
	res := s.db.Model(&models.PaymentRecord{}).
		Where("checkout_request_id = ? AND status = ?", checkoutID, models.PaymentStatusPending).
		Updates(values)
	if res.Error != nil {
		return nil, false, res.Error
	}

	rec, err := s.GetByCheckoutID(checkoutID)
	if err != nil {
		return nil, false, err
	}
	return rec, res.RowsAffected == 1, nil
}

func (s *GormStore) ListPayments(filter ListFilter) ([]models.PaymentRecord, error) {
	q := s.db.Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Month != "" {
		q = q.Where("month = ?", filter.Month)
	}

	var recs []models.PaymentRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *GormStore) ExpirePending(cutoff time.Time) (int64, error) {
	res := s.db.Model(&models.PaymentRecord{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":      models.PaymentStatusExpired,
			"result_desc": "no gateway callback received before timeout",
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) AppendCallbackLog(entry *models.CallbackLog) error {
	return s.db.Create(entry).Error
}

func (s *GormStore) UnprocessedCallbacks(limit int) ([]models.CallbackLog, error) {
	var logs []models.CallbackLog
	if err := s.db.Where("processed = ?", false).Order("created_at ASC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *GormStore) MarkCallbackProcessed(id uint) error {
	now := time.Now()
	return s.db.Model(&models.CallbackLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed":    true,
		"processed_at": &now,
	}).Error
}
