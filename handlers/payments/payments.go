package payments

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chak-property-server/models"
	"chak-property-server/mpesa"
	"chak-property-server/store"
	"chak-property-server/utils"
)

// Handler owns the payment reconciliation endpoints: initiation, the gateway
// webhook, and the status poll.
type Handler struct {
	Store    store.PaymentStore
	Mpesa    *mpesa.Client
	Tokens   *mpesa.TokenProvider
	Notifier *utils.Notifier
}

func NewHandler(st store.PaymentStore, client *mpesa.Client, tokens *mpesa.TokenProvider, notifier *utils.Notifier) *Handler {
	return &Handler{Store: st, Mpesa: client, Tokens: tokens, Notifier: notifier}
}

// RegisterRoutes attaches the M-Pesa endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/pay", h.InitiatePayment)
	r.POST("/callback", h.HandleCallback)
	r.GET("/status/:checkoutId", h.GetPaymentStatus)
	r.GET("/test-auth", h.TestAuth)
}

type PayRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Amount      int64  `json:"amount"`
	TenantID    string `json:"tenantId"`
	PropertyID  string `json:"propertyId"`
	Unit        string `json:"unit"`
	Month       string `json:"month"`
	PaymentType string `json:"paymentType"`
	PushToken   string `json:"pushToken"`
	Email       string `json:"email"`
}

// InitiatePayment validates the request, asks the gateway to prompt the payer's
// phone and persists a pending record keyed by the returned CheckoutRequestID.
// Nothing is written when the gateway rejects the push.
func (h *Handler) InitiatePayment(c *gin.Context) {
	var req PayRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var missing []string
	if req.PhoneNumber == "" {
		missing = append(missing, "phoneNumber")
	}
	if req.Amount == 0 {
		missing = append(missing, "amount")
	}
	if req.TenantID == "" {
		missing = append(missing, "tenantId")
	}
	if req.Month == "" {
		missing = append(missing, "month")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: " + strings.Join(missing, ", ")})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
		return
	}

	phone, err := mpesa.NormalizePhone(req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number, check phone format (e.g. 0712345678)"})
		return
	}

	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentTypeRent
	}

	accountReference := strings.ToUpper(req.PropertyID + "-" + req.Unit + "-" + req.Month)
	description := "Rent Payment - " + req.Month
	if paymentType == models.PaymentTypeDeposit {
		description = "Deposit Payment"
	}

	resp, err := h.Mpesa.STKPush(c.Request.Context(), phone, req.Amount, accountReference, description)
	if err != nil {
		var authErr *mpesa.AuthError
		if errors.As(err, &authErr) {
			log.Printf("[pay] auth failure: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "M-Pesa authentication failed, check merchant credentials", "details": authErr.Message})
			return
		}
		log.Printf("[pay] gateway failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate M-Pesa payment", "details": err.Error()})
		return
	}

	rec := &models.PaymentRecord{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		TenantID:          req.TenantID,
		PropertyID:        req.PropertyID,
		Unit:              req.Unit,
		Month:             req.Month,
		Amount:            req.Amount,
		PhoneNumber:       phone,
		Status:            models.PaymentStatusPending,
		PaymentType:       paymentType,
		AccountReference:  accountReference,
		PushToken:         req.PushToken,
		Email:             req.Email,
	}
	if err := h.Store.CreatePayment(rec); err != nil {
		// The push went out; the record write is the part that failed. Surface
		// it distinctly so operators do not blame the gateway.
		log.Printf("[pay] failed to persist payment record for %s: %v", resp.CheckoutRequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment record", "details": err.Error()})
		return
	}

	message := resp.CustomerMessage
	if message == "" {
		message = "STK push sent, check your phone to complete the payment"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"checkoutId": resp.CheckoutRequestID,
		"paymentId":  rec.ID,
		"message":    message,
	})
}

// HandleCallback receives the asynchronous gateway result. It always answers
// 200: the gateway redelivers on anything else, and a redelivered callback is
// already harmless because the status transition is conditional. ResultCode 1
// in the acknowledgment only flags an internal processing error for
// diagnostics.
func (h *Handler) HandleCallback(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 65536)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[callback] failed to read body: %v", err)
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Failed to read callback"})
		return
	}

	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Printf("[callback] malformed payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Malformed callback payload"})
		return
	}
	cb := envelope.Body.STKCallback

	entry := &models.CallbackLog{
		CheckoutRequestID: cb.CheckoutRequestID,
		Payload:           string(body),
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	if err := h.Store.AppendCallbackLog(entry); err != nil {
		log.Printf("[callback] failed to persist callback log: %v", err)
	}

	rec, applied, err := applyCallback(h.Store, &cb)
	switch {
	case errors.Is(err, store.ErrPaymentNotFound):
		// The callback can beat the initiation write; the sweeper replays the
		// logged payload once the record lands.
		log.Printf("[callback] no payment record for %s yet, leaving callback queued", cb.CheckoutRequestID)
	case err != nil:
		log.Printf("[callback] failed to apply callback for %s: %v", cb.CheckoutRequestID, err)
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Processing error"})
		return
	case applied:
		log.Printf("[callback] payment %s -> %s", cb.CheckoutRequestID, rec.Status)
		if entry.ID != 0 {
			if err := h.Store.MarkCallbackProcessed(entry.ID); err != nil {
				log.Printf("[callback] failed to mark callback %d processed: %v", entry.ID, err)
			}
		}
		if rec.Status == models.PaymentStatusCompleted && h.Notifier != nil {
			h.Notifier.PaymentCompleted(rec)
		}
	default:
		log.Printf("[callback] duplicate callback for %s ignored, status already %s", cb.CheckoutRequestID, rec.Status)
		if entry.ID != 0 {
			if err := h.Store.MarkCallbackProcessed(entry.ID); err != nil {
				log.Printf("[callback] failed to mark callback %d processed: %v", entry.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// applyCallback performs the conditional pending -> terminal transition for one
// parsed callback. Shared with the sweeper's replay path.
func applyCallback(st store.PaymentStore, cb *mpesa.STKCallback) (*models.PaymentRecord, bool, error) {
	upd := store.TerminalUpdate{
		ResultCode: cb.ResultCode,
		ResultDesc: cb.ResultDesc,
	}
	if cb.Succeeded() {
		now := time.Now()
		upd.Status = models.PaymentStatusCompleted
		upd.MpesaReceiptNumber = cb.ReceiptNumber()
		upd.Amount = cb.Amount()
		upd.CompletedAt = &now
	} else {
		upd.Status = models.PaymentStatusFailed
	}

	return st.TransitionStatus(cb.CheckoutRequestID, upd)
}

// GetPaymentStatus is the poll target for the initiating client.
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	checkoutID := c.Param("checkoutId")

	rec, err := h.Store.GetByCheckoutID(checkoutID)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		log.Printf("[status] lookup failed for %s: %v", checkoutID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up payment"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// TestAuth is a diagnostic endpoint: it exercises the token exchange without
// touching any payment.
func (h *Handler) TestAuth(c *gin.Context) {
	token, err := h.Tokens.AccessToken(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to obtain access token",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "hasToken": token != ""})
}
