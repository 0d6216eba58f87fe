package order

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/cache"
)

// PaymentPostback reçoit la notification de la passerelle après le parcours
// de paiement. Le statut transmis par le client n'est JAMAIS cru sur parole :
// la transaction est revérifiée auprès de la passerelle avant toute écriture.
// L'endpoint est idempotent, la passerelle rejoue ses notifications.
func (h *Handler) PaymentPostback(c *gin.Context) {
	var req struct {
		TransactionID   string `json:"transaction_id" binding:"required"`
		ReferenceNumber string `json:"reference_number" binding:"required"`
		Status          string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	// Dédoublonnage best-effort : le vrai garde-fou est le compare-and-set
	// sur le statut du paiement
	if !cache.MarkPostbackSeen(req.TransactionID, req.ReferenceNumber) {
		log.Printf("💳 Postback déjà traité pour %s, rejoué par la passerelle", req.TransactionID)
	}

	verification, err := h.Gateway.VerifyTransaction(c.Request.Context(),
		req.TransactionID, req.ReferenceNumber, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Svc.ApplyPaymentResult(c.Request.Context(),
		verification.TransactionID, verification.ReferenceNumber, verification.PaymentStatus); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": verification.TransactionID,
		"status":         verification.PaymentStatus,
	})
}
