package order

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/orders"
)

// UpdateOrder permet à un admin de corriger les statuts d'une commande.
// Chaque champ fourni est mis à jour indépendamment, toute valeur hors
// vocabulaire rejette la requête en bloc.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req orders.UpdateFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if err := h.Svc.UpdateOrder(c.Request.Context(), id, req, c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande mise à jour", "order_id": id.String()})
}

// RunSweep déclenche manuellement un cycle d'auto-complétion (admin).
// Le cycle périodique tourne déjà en tâche de fond ; cet endpoint sert au
// support pour ne pas attendre le prochain tick.
func (h *Handler) RunSweep(c *gin.Context) {
	count, err := h.Svc.AutoCompleteOrders(c.Request.Context(), h.SweepGrace)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": count})
}
