package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

const (
	PaymentTypeRent    = "rent"
	PaymentTypeDeposit = "deposit"
	PaymentTypeOther   = "other"
)

// PaymentRecord tracks one STK push attempt from initiation to its terminal state.
// CheckoutRequestID is the gateway correlation id joining the initiation, the
// asynchronous callback and the status poll.
type PaymentRecord struct {
	gorm.Model
	CheckoutRequestID  string     `gorm:"uniqueIndex;not null" json:"checkout_request_id"`
	MerchantRequestID  string     `json:"merchant_request_id"`
	TenantID           string     `json:"tenant_id"`
	PropertyID         string     `json:"property_id"`
	Unit               string     `json:"unit"`
	Month              string     `json:"month"`
	Amount             int64      `json:"amount"`
	PhoneNumber        string     `json:"phone_number"`
	Status             string     `gorm:"not null" json:"status"` // pending, completed, failed, expired
	PaymentType        string     `json:"payment_type"`           // rent, deposit, other
	AccountReference   string     `json:"account_reference"`
	MpesaReceiptNumber string     `json:"mpesa_receipt_number"`
	ResultCode         int        `json:"result_code"`
	ResultDesc         string     `json:"result_desc"`
	PushToken          string     `json:"-"`
	Email              string     `json:"-"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// TableName overrides the default table name
func (PaymentRecord) TableName() string {
	return "mpesa_payments"
}

// IsTerminal reports whether no further status transition can occur.
func (p *PaymentRecord) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusExpired
}
