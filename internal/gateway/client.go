// Package gateway parle à la passerelle de paiement à redirection :
// construction de l'URL du checkout hébergé, et vérification serveur-à-serveur
// du statut réel d'une transaction (le statut rapporté par le client n'est
// jamais cru sur parole).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// Vocabulaire de statuts de la passerelle
const (
	GatewaySuccess = "S"
	GatewayFailed  = "F"
	GatewayPending = "P"
)

type Client struct {
	http *http.Client
	cfg  config.GatewayConfig
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// PaymentRedirect : ce que le front reçoit pour rediriger vers le checkout hébergé
type PaymentRedirect struct {
	URL           string `json:"url"`
	TransactionID string `json:"transaction_id"`
}

// InitiatePayment construit l'URL de redirection vers le checkout hébergé.
// L'URL de base vient de la configuration d'environnement : sandbox et
// production ne sont jamais déduites, toujours configurées explicitement.
func (c *Client) InitiatePayment(order models.Order, transactionID, payerEmail string) (*PaymentRedirect, error) {
	if c.cfg.MerchantID == "" {
		return nil, errs.NewValidation("merchant_id", "identifiant marchand non configuré")
	}
	base := c.cfg.BaseURL()
	if base == "" {
		return nil, errs.NewValidation("gateway_url", "URL de la passerelle non configurée pour l'environnement "+c.cfg.Environment)
	}

	q := url.Values{}
	q.Set("merchant_id", c.cfg.MerchantID)
	q.Set("transaction_id", transactionID)
	q.Set("amount", fmt.Sprintf("%.2f", order.TotalPrice))
	q.Set("currency", c.cfg.Currency)
	q.Set("description", "Commande "+order.OrderCode)
	if payerEmail != "" {
		q.Set("email", payerEmail)
	}

	redirect := strings.TrimRight(base, "/") + "/checkout?" + q.Encode()
	log.Printf("💳 Redirection paiement générée pour %s (%.2f %s)", order.OrderCode, order.TotalPrice, c.cfg.Currency)
	return &PaymentRedirect{URL: redirect, TransactionID: transactionID}, nil
}

// Verification : statut canonique d'une transaction, tel que rapporté par la
// passerelle elle-même
type Verification struct {
	TransactionID   string `json:"transaction_id"`
	ReferenceNumber string `json:"reference_number"`
	GatewayStatus   string `json:"status"`
	PaymentStatus   string `json:"-"` // statut interne après mapping
}

type inquiryResponse struct {
	TransactionID   string `json:"transaction_id"`
	ReferenceNumber string `json:"reference_number"`
	Status          string `json:"status"`
}

// VerifyTransaction interroge l'endpoint d'inquiry de la passerelle.
// clientStatus (le statut remonté par le postback) ne sert qu'au log : seul
// le statut renvoyé par la passerelle fait foi. L'appel est idempotent, la
// passerelle renvoie toujours le même statut pour une transaction terminée.
func (c *Client) VerifyTransaction(ctx context.Context, transactionID, referenceNumber, clientStatus string) (*Verification, error) {
	if transactionID == "" || referenceNumber == "" {
		return nil, errs.NewValidation("transaction", "identifiants de transaction manquants")
	}

	base := c.cfg.BaseURL()
	if base == "" {
		return nil, errs.NewValidation("gateway_url", "URL de la passerelle non configurée pour l'environnement "+c.cfg.Environment)
	}

	q := url.Values{}
	q.Set("merchant_id", c.cfg.MerchantID)
	q.Set("transaction_id", transactionID)
	q.Set("reference_number", referenceNumber)

	endpoint := strings.TrimRight(base, "/") + "/api/inquiry?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("construction requête inquiry: %w", err)
	}
	req.Header.Set("X-Merchant-Key", c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.NewNetwork("gateway", "inquiry", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetwork("gateway", "inquiry", err)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.NewPartner("gateway", "inquiry", resp.StatusCode,
			http.StatusText(resp.StatusCode), string(data))
	}

	var body inquiryResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, errs.NewPartner("gateway", "inquiry", resp.StatusCode,
			"réponse illisible de la passerelle", string(data))
	}

	if clientStatus != "" && clientStatus != body.Status {
		log.Printf("⚠️ Statut client %q ≠ statut passerelle %q pour tx %s — la passerelle fait foi",
			clientStatus, body.Status, transactionID)
	}

	v := &Verification{
		TransactionID:   body.TransactionID,
		ReferenceNumber: body.ReferenceNumber,
		GatewayStatus:   body.Status,
		PaymentStatus:   MapGatewayStatus(body.Status),
	}
	return v, nil
}

// MapGatewayStatus traduit le vocabulaire de la passerelle vers nos statuts
// de paiement internes
func MapGatewayStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case GatewaySuccess:
		return models.PaymentCompleted
	case GatewayFailed:
		return models.PaymentFailed
	case GatewayPending:
		return models.PaymentWaitingConfirmation
	default:
		return models.PaymentPending
	}
}
