package order

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

// GetInvoice génère la facture PDF d'une commande.
// Pour un virement en attente, un QR SEPA est embarqué dans la facture.
func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	detail, err := h.Svc.GetOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}

	qr := ""
	if detail.Payment != nil && detail.Payment.Method == models.MethodBankTransfer &&
		detail.Payment.Status != models.PaymentCompleted {
		qr, err = utils.GenerateSepaQR(
			os.Getenv("COMPANY_IBAN"),
			os.Getenv("COMPANY_BIC"),
			"Velora SRL",
			detail.Order.OrderCode,
			detail.Order.TotalPrice,
		)
		if err != nil {
			log.Printf("⚠️ QR SEPA non généré pour %s: %v", detail.Order.OrderCode, err)
		}
	}

	pdf, err := utils.RenderInvoicePDF(utils.GetFrontendInvoiceBaseURL(), detail.Order.OrderCode, qr)
	if err != nil {
		log.Printf("❌ Erreur génération facture pour %s: %v", detail.Order.OrderCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération facture"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=facture_"+detail.Order.OrderCode+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// SearchOrders recherche plein texte dans les commandes (admin)
func (h *Handler) SearchOrders(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q manquant"})
		return
	}

	results, err := services.SearchOrders(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
