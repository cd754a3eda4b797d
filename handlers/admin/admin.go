package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chak-property-server/models"
	"chak-property-server/store"
)

// Handler exposes the read-only surface the dashboard's analytics consume.
type Handler struct {
	Store store.PaymentStore
}

func NewHandler(st store.PaymentStore) *Handler {
	return &Handler{Store: st}
}

// RegisterRoutes attaches the admin endpoints under the given (authenticated) group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/payments", h.ListPayments)
	r.GET("/summary", h.GetSummary)
}

// ListPayments returns payment records, newest first, optionally filtered by
// status and month.
func (h *Handler) ListPayments(c *gin.Context) {
	filter := store.ListFilter{
		Status: c.Query("status"),
		Month:  c.Query("month"),
	}

	recs, err := h.Store.ListPayments(filter)
	if err != nil {
		log.Printf("[admin] failed to list payments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": recs, "count": len(recs)})
}

// GetSummary aggregates counts and KES totals per status plus the collection
// rate (completed amount over all initiated amount), the dashboard's
// collection-rate input.
func (h *Handler) GetSummary(c *gin.Context) {
	month := c.Query("month")

	recs, err := h.Store.ListPayments(store.ListFilter{Month: month})
	if err != nil {
		log.Printf("[admin] failed to build summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}

	counts := map[string]int{}
	totals := map[string]int64{}
	var totalAmount int64
	for _, rec := range recs {
		counts[rec.Status]++
		totals[rec.Status] += rec.Amount
		totalAmount += rec.Amount
	}

	var collectionRate float64
	if totalAmount > 0 {
		collectionRate = float64(totals[models.PaymentStatusCompleted]) / float64(totalAmount)
	}

	c.JSON(http.StatusOK, gin.H{
		"month":           month,
		"counts":          counts,
		"totals":          totals,
		"total_amount":    totalAmount,
		"collection_rate": collectionRate,
	})
}
