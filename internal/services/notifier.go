package services

import (
	"log"

	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// EmailNotifier envoie les e-mails de confirmation et de changement de statut.
// Toujours appelé hors du chemin critique, jamais bloquant pour le checkout.
type EmailNotifier struct{}

func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{}
}

func (n *EmailNotifier) OrderConfirmed(detail models.OrderDetail, email string) {
	html := utils.GenerateOrderConfirmationHTML(detail)
	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande "+detail.Order.OrderCode, html, nil); err != nil {
		log.Printf("⚠️ Erreur envoi email confirmation pour %s: %v", detail.Order.OrderCode, err)
	}
}

func (n *EmailNotifier) OrderStatusChanged(order models.Order, email, newStatus string) {
	if err := utils.SendOrderStatusEmail(order, email, newStatus); err != nil {
		log.Printf("⚠️ Erreur envoi email notification: %v", err)
	}
}
