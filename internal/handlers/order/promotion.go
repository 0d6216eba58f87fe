package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidatePromo vérifie un code promotionnel sans le consommer.
// La consommation réelle ne se fait qu'au checkout : ici le client connaît
// juste la remise qu'il obtiendrait.
func (h *Handler) ValidatePromo(c *gin.Context) {
	var req struct {
		Code   string  `json:"code" binding:"required"`
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	validation, err := h.Promos.Validate(c.Request.Context(), req.Code, c.GetString("user_id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, validation)
}
