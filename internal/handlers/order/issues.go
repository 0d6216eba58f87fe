package order

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/models"
)

// OpenIssue ouvre une réclamation sur une commande. Tant qu'une réclamation
// est ouverte, la commande est écartée de l'auto-complétion.
func (h *Handler) OpenIssue(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	// Vérifie l'existence et la propriété de la commande
	if _, err := h.Svc.GetOrder(c.Request.Context(), id, c.GetString("user_id"), c.GetString("role")); err != nil {
		respondError(c, err)
		return
	}

	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	issue := models.Issue{
		ID:        gocql.UUID(uuid.New()),
		OrderID:   id,
		UserID:    c.GetString("user_id"),
		Reason:    req.Reason,
		Status:    models.IssueOpen,
		CreatedAt: time.Now(),
	}

	err := session.Query(`INSERT INTO issues (order_id, issue_id, user_id, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		issue.OrderID, issue.ID, issue.UserID, issue.Reason, issue.Status, issue.CreatedAt).
		WithContext(c.Request.Context()).Exec()
	if err != nil {
		log.Printf("❌ Erreur création réclamation pour %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création réclamation"})
		return
	}

	log.Printf("✅ Réclamation ouverte sur la commande %s", id)
	c.JSON(http.StatusCreated, issue)
}

// ResolveIssue clôt une réclamation (admin) : resolved ou rejected
func (h *Handler) ResolveIssue(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	issueRaw, err := uuid.Parse(c.Param("issue_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID réclamation invalide"})
		return
	}
	issueID := gocql.UUID(issueRaw)

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if req.Status != models.IssueResolved && req.Status != models.IssueRejected {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Statut invalide",
			"valid_statuses": []string{models.IssueResolved, models.IssueRejected},
		})
		return
	}

	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	err = session.Query(`UPDATE issues SET status = ?, resolved_at = ? WHERE order_id = ? AND issue_id = ?`,
		req.Status, time.Now(), orderID, issueID).WithContext(c.Request.Context()).Exec()
	if err != nil {
		log.Printf("❌ Erreur clôture réclamation %s: %v", issueID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur clôture réclamation"})
		return
	}

	log.Printf("✅ Réclamation %s close: %s", issueID, req.Status)
	c.JSON(http.StatusOK, gin.H{"message": "Réclamation close", "status": req.Status})
}
