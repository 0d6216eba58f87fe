package utils

import (
	"encoding/base64"
	"fmt"
	"os"

	"velora_back_end/internal/models"

	"github.com/skip2/go-qrcode"
)

// SendOrderStatusEmail notifie l'utilisateur d'un changement de statut
func SendOrderStatusEmail(order models.Order, userEmail, newStatus string) error {
	subject := getStatusEmailSubject(newStatus)
	html := generateStatusEmailHTML(order, newStatus)
	return SendConfirmationEmail(userEmail, subject, html, nil)
}

func getStatusEmailSubject(status string) string {
	switch status {
	case models.OrderProcessing:
		return "Votre paiement a été confirmé"
	case models.OrderShipped:
		return "Votre commande a été expédiée"
	case models.OrderDelivered:
		return "Votre commande a été livrée"
	case models.OrderCompleted:
		return "Votre commande est terminée"
	case models.OrderCancelled:
		return "Votre commande a été annulée"
	default:
		return "Mise à jour de votre commande"
	}
}

func getStatusMessage(status string) string {
	switch status {
	case models.OrderProcessing:
		return "Votre paiement a bien été reçu, nous préparons votre commande."
	case models.OrderShipped:
		return "Votre colis est en route !"
	case models.OrderDelivered:
		return "Votre colis a été livré. Un problème ? Ouvrez une réclamation depuis votre espace."
	case models.OrderCompleted:
		return "Votre commande est maintenant clôturée. Merci pour votre confiance !"
	case models.OrderCancelled:
		return "Votre commande a été annulée. Si un paiement avait été effectué, il sera remboursé."
	default:
		return "Le statut de votre commande a changé."
	}
}

func getStatusIcon(status string) string {
	switch status {
	case models.OrderProcessing:
		return "💳"
	case models.OrderShipped:
		return "🚚"
	case models.OrderDelivered:
		return "📦"
	case models.OrderCompleted:
		return "✅"
	case models.OrderCancelled:
		return "❌"
	default:
		return "ℹ️"
	}
}

func generateStatusEmailHTML(order models.Order, status string) string {
	trackingBlock := ""
	if status == models.OrderShipped {
		if qr, err := GenerateTrackingQR(order.OrderCode); err == nil {
			trackingBlock = fmt.Sprintf(`
		<p style="text-align: center;">
			<img src="%s" alt="QR de suivi" width="160" height="160" />
			<br/>Scannez pour suivre votre colis
		</p>`, qr)
		}
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">%s Commande %s</h2>
		<p>%s</p>
		%s
		<p style="color: #888; font-size: 12px;">L'équipe Velora</p>
	</div>
</body>
</html>`, getStatusIcon(status), order.OrderCode, getStatusMessage(status), trackingBlock)
}

// GenerateTrackingQR encode l'URL de suivi en QR base64 prêt pour <img src="...">
func GenerateTrackingQR(orderCode string) (string, error) {
	base := os.Getenv("FRONTEND_TRACKING_URL")
	if base == "" {
		base = "https://velora.be/tracking"
	}
	png, err := qrcode.Encode(base+"?order="+orderCode, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
