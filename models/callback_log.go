package models

import "time"

// CallbackLog keeps every raw gateway callback for audit and replay. A callback
// that arrives before its payment record is persisted stays unprocessed until
// the sweeper replays it.
type CallbackLog struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CheckoutRequestID string     `gorm:"index" json:"checkout_request_id"`
	Payload           string     `gorm:"type:longtext" json:"payload"`
	ResultCode        int        `json:"result_code"`
	ResultDesc        string     `json:"result_desc"`
	Processed         bool       `gorm:"default:false" json:"processed"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName overrides the default table name
func (CallbackLog) TableName() string {
	return "callback_logs"
}
