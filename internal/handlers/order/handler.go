package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/courier"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/gateway"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/promotions"
)

// Handler regroupe les dépendances des endpoints commande
type Handler struct {
	Svc        *orders.Service
	Promos     *promotions.Evaluator
	Gateway    *gateway.Client
	Courier    *courier.Client
	SweepGrace time.Duration // délai de grâce du cycle manuel (admin)
}

func NewHandler(svc *orders.Service, promos *promotions.Evaluator, gw *gateway.Client, courierClient *courier.Client, sweepGrace time.Duration) *Handler {
	return &Handler{Svc: svc, Promos: promos, Gateway: gw, Courier: courierClient, SweepGrace: sweepGrace}
}

// respondError traduit la taxonomie d'erreurs interne en réponse HTTP.
// Les erreurs inattendues restent génériques côté client.
func respondError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ressource introuvable"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "La ressource a changé entre-temps, réessayez"})
	case errors.Is(err, orders.ErrOrderWrite):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
