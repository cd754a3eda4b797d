package mpesa

import "fmt"

// AuthError covers credential and token failures. StatusCode and Body hold the
// upstream diagnostics when a network exchange happened; both are zero when the
// credentials failed the placeholder check before any request was made.
type AuthError struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mpesa auth: %s (status %d): %s", e.Message, e.StatusCode, e.Body)
	}
	return "mpesa auth: " + e.Message
}

// GatewayError covers push-payment failures upstream: network errors, non-2xx
// responses and malformed bodies. Credentials are never included.
type GatewayError struct {
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mpesa gateway: %s (status %d): %s", e.Message, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("mpesa gateway: %s: %v", e.Message, e.Err)
	}
	return "mpesa gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
