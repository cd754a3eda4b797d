package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"chak-property-server/models"
)

const defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// Notifier delivers best-effort completion notices to the tenant: an Expo push
// when the initiation carried a device token, a receipt email when it carried
// an address. Failures are logged, never propagated.
type Notifier struct {
	ExpoPushURL string
	client      *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{
		ExpoPushURL: defaultExpoPushURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// PaymentCompleted notifies the tenant that their payment went through.
func (n *Notifier) PaymentCompleted(rec *models.PaymentRecord) {
	if rec.PushToken != "" {
		n.sendPushNotification(rec.PushToken, "Payment Successful", "Your payment of KES "+strconv.FormatInt(rec.Amount, 10)+" was received.")
	}
	if rec.Email != "" {
		SendReceiptEmail(rec.Email, rec)
	}
}

func (n *Notifier) sendPushNotification(pushToken, title, message string) {
	notification := map[string]interface{}{
		"to":    pushToken,
		"sound": "default",
		"title": title,
		"body":  message,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Failed to marshal notification payload: %v", err)
		return
	}

	resp, err := n.client.Post(n.ExpoPushURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Failed to send push notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Failed to send push notification, status: %d, response: %s", resp.StatusCode, string(bodyBytes))
	} else {
		log.Printf("Push notification sent successfully to %s", pushToken)
	}
}
