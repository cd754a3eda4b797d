package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"

	"chak-property-server/models"
)

// SendReceiptEmail mails a payment receipt to the tenant. Best-effort: failures
// are logged and never surfaced to the payment flow.
func SendReceiptEmail(email string, rec *models.PaymentRecord) {
	if os.Getenv("SMTP_HOST") == "" {
		log.Printf("SMTP_HOST not set, skipping receipt email to %s", email)
		return
	}

	body := fmt.Sprintf(
		"Your payment of KES %d for %s was received.\nM-Pesa receipt: %s\nReference: %s",
		rec.Amount, rec.Month, rec.MpesaReceiptNumber, rec.AccountReference,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_SENDER"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Payment Received")
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(
		os.Getenv("SMTP_HOST"),
		465,
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
	)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send receipt email to %s: %v", email, err)
		return
	}

	log.Printf("Receipt email sent to %s", email)
}
