package mpesa

import (
	"encoding/base64"
	"time"
)

// Password derives the daraja STK push password for the given instant. The
// timestamp is the 14-digit YYYYMMDDHHMMSS form and the password is
// base64(shortCode + passKey + timestamp), exactly as the gateway requires.
func Password(shortCode, passKey string, now time.Time) (password, timestamp string) {
	timestamp = now.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
	return password, timestamp
}
