package mpesa

import "fmt"

// CallbackEnvelope is the body daraja posts to the callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback reports the final outcome of one push attempt. ResultCode 0 is
// success; any other value is a failure described by ResultDesc.
type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem is one name/value pair from the success metadata list. Values
// arrive untyped: amounts and phone numbers as JSON numbers, receipts as
// strings.
type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

func (cb *STKCallback) Succeeded() bool {
	return cb.ResultCode == 0
}

func (cb *STKCallback) metaValue(name string) (interface{}, bool) {
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}

// ReceiptNumber returns the MpesaReceiptNumber entry, empty when absent.
func (cb *STKCallback) ReceiptNumber() string {
	v, ok := cb.metaValue("MpesaReceiptNumber")
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Amount returns the confirmed amount in whole KES, zero when absent.
func (cb *STKCallback) Amount() int64 {
	v, ok := cb.metaValue("Amount")
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// PayerPhone returns the payer's phone number, empty when absent. daraja sends
// it as a JSON number, so it needs re-stringifying.
func (cb *STKCallback) PayerPhone() string {
	v, ok := cb.metaValue("PhoneNumber")
	if !ok {
		return ""
	}
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return fmt.Sprintf("%.0f", n)
	default:
		return ""
	}
}
