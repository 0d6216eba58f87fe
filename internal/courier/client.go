package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// WaybillArchive stocke les bordereaux émis. Un bordereau est immuable une
// fois généré : s'il est déjà archivé, on ne rappelle jamais le transporteur.
type WaybillArchive interface {
	Get(ctx context.Context, trackingNumber string) ([]byte, error)
	Put(ctx context.Context, trackingNumber string, pdf []byte) error
}

// TrackingCache met en cache les infos de suivi (TTL court)
type TrackingCache interface {
	Get(trackingNumber string, dest interface{}) bool
	Set(trackingNumber string, info interface{})
}

// Client parle à l'API du transporteur à travers le garde de token.
// Retries : backoff exponentiel plafonné, uniquement sur les échecs
// transitoires (5xx / réseau). Les 4xx sont définitifs, jamais réessayés.
type Client struct {
	http        *http.Client
	baseURL     string
	env         string
	maxAttempts int
	guard       *TokenGuard

	sender   shipmentParty
	waybills WaybillArchive
	tracking TrackingCache
}

// NewClient construit le client transporteur
func NewClient(cfg config.CourierConfig, guard *TokenGuard) *Client {
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		env:         cfg.Environment,
		maxAttempts: cfg.MaxAttempts,
		guard:       guard,
		sender: shipmentParty{
			Name:  cfg.SenderName,
			Phone: cfg.SenderPhone,
			Email: cfg.SenderEmail,
			Address: wireAddress{
				Address1: cfg.SenderStreet,
				City:     cfg.SenderCity,
				State:    cfg.SenderState,
				Postcode: cfg.SenderPostcode,
				Country:  cfg.SenderCountry,
			},
		},
	}
}

// WithWaybillArchive branche l'archive de bordereaux (MinIO en prod)
func (c *Client) WithWaybillArchive(a WaybillArchive) *Client {
	c.waybills = a
	return c
}

// WithTrackingCache branche le cache de suivi (Redis en prod)
func (c *Client) WithTrackingCache(t TrackingCache) *Client {
	c.tracking = t
	return c
}

// DeliveryOrder : ce que l'assembleur de commandes transmet au transporteur
type DeliveryOrder struct {
	OrderCode     string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Country       string
	Address       models.Address
	TotalQuantity int
	PaymentMethod string
	AmountEUR     float64
}

// DeliveryResult : la réponse du transporteur après acceptation
type DeliveryResult struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// TrackingInfo : état courant d'un colis
type TrackingInfo struct {
	TrackingNumber string          `json:"tracking_number"`
	Status         string          `json:"status"`
	Events         []TrackingEvent `json:"events"`
}

type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

type shipmentParty struct {
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   string      `json:"email"`
	Address wireAddress `json:"address"`
}

type parcelInfo struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm int     `json:"length_cm"`
	WidthCm  int     `json:"width_cm"`
	HeightCm int     `json:"height_cm"`
}

type codInfo struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type createShipmentRequest struct {
	OrderCode    string        `json:"order_code"`
	From         shipmentParty `json:"from"`
	To           shipmentParty `json:"to"`
	Parcel       parcelInfo    `json:"parcel"`
	PickupAfter  string        `json:"pickup_after"`
	PickupBefore string        `json:"pickup_before"`
	COD          *codInfo      `json:"cod,omitempty"`
}

// CreateDeliveryOrder valide, normalise et soumet une livraison.
// Toute la validation échoue AVANT le moindre appel réseau.
func (c *Client) CreateDeliveryOrder(ctx context.Context, d DeliveryOrder) (*DeliveryResult, error) {
	if strings.TrimSpace(d.CustomerName) == "" {
		return nil, errs.NewValidation("name", "nom du destinataire manquant")
	}
	if strings.TrimSpace(d.CustomerEmail) == "" {
		return nil, errs.NewValidation("email", "email du destinataire manquant")
	}
	if _, err := mail.ParseAddress(d.CustomerEmail); err != nil {
		return nil, errs.NewValidation("email", "email du destinataire invalide")
	}
	if strings.TrimSpace(d.CustomerPhone) == "" {
		return nil, errs.NewValidation("phone", "téléphone du destinataire manquant")
	}

	phone, err := NormalizePhone(d.Country, d.CustomerPhone)
	if err != nil {
		return nil, err
	}
	addr, err := normalizeAddress(c.env, d.Address)
	if err != nil {
		return nil, err
	}

	pickup := time.Now().Add(24 * time.Hour)
	req := createShipmentRequest{
		OrderCode: d.OrderCode,
		From:      c.sender,
		To: shipmentParty{
			Name:    d.CustomerName,
			Phone:   phone,
			Email:   d.CustomerEmail,
			Address: addr,
		},
		Parcel: parcelInfo{
			WeightKg: parcelWeightKg(d.TotalQuantity),
			LengthCm: 40,
			WidthCm:  30,
			HeightCm: 20,
		},
		PickupAfter:  pickup.Format(time.RFC3339),
		PickupBefore: pickup.Add(8 * time.Hour).Format(time.RFC3339),
	}

	if d.PaymentMethod == models.MethodCOD {
		amount, currency := codForEnv(c.env, d.AmountEUR)
		req.COD = &codInfo{Amount: amount, Currency: currency}
	}

	var result DeliveryResult
	if err := c.withRetry(ctx, "create_shipment", func() error {
		return c.do(ctx, "create_shipment", http.MethodPost, "/v1/shipments", req, &result, nil)
	}); err != nil {
		return nil, err
	}

	log.Printf("📦 Livraison créée chez le transporteur: %s → %s", d.OrderCode, result.TrackingNumber)
	return &result, nil
}

// GetTrackingInfo retourne l'état du colis, servi depuis le cache si possible
func (c *Client) GetTrackingInfo(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	if trackingNumber == "" {
		return nil, errs.NewValidation("tracking_number", "numéro de suivi manquant")
	}

	if c.tracking != nil {
		var cached TrackingInfo
		if c.tracking.Get(trackingNumber, &cached) {
			return &cached, nil
		}
	}

	var info TrackingInfo
	path := fmt.Sprintf("/v1/shipments/%s/track", trackingNumber)
	if err := c.withRetry(ctx, "track", func() error {
		return c.do(ctx, "track", http.MethodGet, path, nil, &info, nil)
	}); err != nil {
		return nil, err
	}

	if c.tracking != nil {
		c.tracking.Set(trackingNumber, info)
	}
	return &info, nil
}

// GenerateWaybill retourne le bordereau PDF. Un bordereau déjà émis est
// immuable : il est servi depuis l'archive sans rappeler le transporteur.
func (c *Client) GenerateWaybill(ctx context.Context, trackingNumber string) ([]byte, error) {
	if trackingNumber == "" {
		return nil, errs.NewValidation("tracking_number", "numéro de suivi manquant")
	}

	if c.waybills != nil {
		if pdf, err := c.waybills.Get(ctx, trackingNumber); err == nil && len(pdf) > 0 {
			return pdf, nil
		}
	}

	var pdf []byte
	path := fmt.Sprintf("/v1/shipments/%s/waybill", trackingNumber)
	if err := c.withRetry(ctx, "waybill", func() error {
		return c.do(ctx, "waybill", http.MethodGet, path, nil, nil, &pdf)
	}); err != nil {
		return nil, err
	}

	if c.waybills != nil {
		if err := c.waybills.Put(ctx, trackingNumber, pdf); err != nil {
			log.Printf("⚠️ Erreur archivage bordereau %s: %v", trackingNumber, err)
		}
	}
	return pdf, nil
}

// CancelDelivery annule la livraison chez le transporteur
func (c *Client) CancelDelivery(ctx context.Context, trackingNumber string) error {
	if trackingNumber == "" {
		return errs.NewValidation("tracking_number", "numéro de suivi manquant")
	}
	path := fmt.Sprintf("/v1/shipments/%s/cancel", trackingNumber)
	return c.withRetry(ctx, "cancel", func() error {
		return c.do(ctx, "cancel", http.MethodPost, path, nil, nil, nil)
	})
}

// withRetry applique le backoff exponentiel plafonné aux seuls échecs
// transitoires ; tout le reste sort immédiatement en erreur définitive
func (c *Client) withRetry(ctx context.Context, op string, call func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := call()
		if err == nil {
			return nil
		}
		if !errs.IsTransient(err) {
			return backoff.Permanent(err)
		}
		log.Printf("⚠️ Transporteur %s: tentative %d échouée: %v", op, attempt, err)
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 5 * time.Second

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(c.maxAttempts-1)), ctx))
}

// do exécute un appel authentifié. Sur un 401, le cache de token est
// invalidé, un seul token frais est échangé et la requête est rejouée
// exactement une fois — jamais de boucle.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, raw *[]byte) error {
	token, err := c.guard.GetValidToken(ctx)
	if err != nil {
		return err
	}

	err = c.send(ctx, op, method, path, token, body, out, raw)
	if errs.IsAuth(err) {
		token, rerr := c.guard.ForceRefresh(ctx)
		if rerr != nil {
			return rerr
		}
		return c.send(ctx, op, method, path, token, body, out, raw)
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path, token string, body, out interface{}, raw *[]byte) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sérialisation requête %s: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("construction requête %s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewNetwork("courier", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetwork("courier", op, err)
	}

	if resp.StatusCode >= 400 {
		return errs.NewPartner("courier", op, resp.StatusCode,
			http.StatusText(resp.StatusCode), string(data))
	}

	if raw != nil {
		*raw = data
		return nil
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errs.NewPartner("courier", op, resp.StatusCode,
				"réponse illisible du transporteur", string(data))
		}
	}
	return nil
}
