package order

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/models"
)

// Checkout convertit le panier de l'utilisateur en commande.
// Pour un paiement par carte, la réponse contient l'URL de redirection vers
// la passerelle ; le statut final arrivera par postback.
func (h *Handler) Checkout(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ShippingAddress string `json:"shipping_address" binding:"required"`
		PaymentMethod   string `json:"payment_method" binding:"required"`
		PromoCode       string `json:"promo_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	detail, err := h.Svc.CreateOrder(c.Request.Context(), userID, req.ShippingAddress, req.PaymentMethod, req.PromoCode)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"order_id":    detail.Order.ID.String(),
		"order_code":  detail.Order.OrderCode,
		"total_price": detail.Order.TotalPrice,
		"status":      detail.Order.OrderStatus,
	}
	if detail.Shipping != nil && detail.Shipping.TrackingNumber != nil {
		resp["tracking_number"] = *detail.Shipping.TrackingNumber
	}

	// Paiement carte : redirection vers la page de la passerelle
	if req.PaymentMethod == models.MethodCard && h.Gateway != nil {
		email := c.GetString("email")
		redirect, err := h.Gateway.InitiatePayment(detail.Order, detail.Payment.TransactionID, email)
		if err != nil {
			log.Printf("⚠️ Redirection paiement non générée pour %s: %v", detail.Order.OrderCode, err)
		} else {
			resp["checkout_url"] = redirect.URL
			resp["transaction_id"] = detail.Payment.TransactionID
		}
	}

	c.JSON(http.StatusCreated, resp)
}
