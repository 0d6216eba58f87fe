package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"velora_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// SendConfirmationEmail envoie un e-mail HTML, avec pièce jointe PDF optionnelle
func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	if err := msg.From("noreply@velora.be"); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("facture_velora.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(detail models.OrderDetail) string {
	itemsHTML := ""
	for _, item := range detail.Items {
		label := item.SKU
		if label == "" {
			label = item.ProductID.String()
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f€</td>
				<td>%.2f€</td>
			</tr>`, label, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	tracking := ""
	if detail.Shipping != nil && detail.Shipping.TrackingNumber != nil {
		tracking = fmt.Sprintf(`<p>Numéro de suivi : <strong>%s</strong></p>`, *detail.Shipping.TrackingNumber)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande <strong>%s</strong>. Voici le récapitulatif :</p>
		<table style="width: 100%%; border-collapse: collapse;" border="1" cellpadding="8">
			<tr style="background-color: #f0f0f0;">
				<th>Article</th><th>Quantité</th><th>Prix unitaire</th><th>Total</th>
			</tr>
			%s
		</table>
		<p style="text-align: right; font-size: 18px;"><strong>Total : %.2f€</strong></p>
		%s
		<p>Vous recevrez un e-mail à chaque changement de statut.</p>
		<p style="color: #888; font-size: 12px;">L'équipe Velora</p>
	</div>
</body>
</html>`, detail.Order.OrderCode, itemsHTML, detail.Order.TotalPrice, tracking)
}
