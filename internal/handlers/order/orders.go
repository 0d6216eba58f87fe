package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
)

// GetMyOrders liste les commandes de l'utilisateur connecté
func (h *Handler) GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	list, err := h.Svc.ListOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// GetOrder retourne le détail d'une commande (lignes, livraison, paiement)
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	detail, err := h.Svc.GetOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CancelOrder annule une commande encore en pending ou processing
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.Svc.CancelOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée", "order_id": id.String()})
}

// GetTracking retourne l'état du colis auprès du transporteur
func (h *Handler) GetTracking(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	detail, err := h.Svc.GetOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	if detail.Shipping == nil || detail.Shipping.TrackingNumber == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pas encore de numéro de suivi pour cette commande"})
		return
	}

	if h.Courier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Suivi transporteur indisponible"})
		return
	}

	info, err := h.Courier.GetTrackingInfo(c.Request.Context(), *detail.Shipping.TrackingNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetWaybill retourne le bordereau d'expédition PDF du transporteur
func (h *Handler) GetWaybill(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	detail, err := h.Svc.GetOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	if detail.Shipping == nil || detail.Shipping.TrackingNumber == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pas encore de numéro de suivi pour cette commande"})
		return
	}
	if h.Courier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Transporteur indisponible"})
		return
	}

	pdf, err := h.Courier.GenerateWaybill(c.Request.Context(), *detail.Shipping.TrackingNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=waybill_"+detail.Order.OrderCode+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func parseOrderID(c *gin.Context) (gocql.UUID, bool) {
	raw, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return gocql.UUID{}, false
	}
	return gocql.UUID(raw), true
}

// sessionOrAbort : accès direct au keyspace orders pour les endpoints qui
// n'ont pas besoin de passer par le service
func sessionOrAbort(c *gin.Context) (*gocql.Session, bool) {
	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return nil, false
	}
	return session, true
}
