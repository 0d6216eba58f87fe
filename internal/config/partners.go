package config

import (
	"os"
	"strconv"
	"time"
)

// Environnements partenaires
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// CourierConfig : configuration de l'API du transporteur
type CourierConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Environment  string // sandbox | production
	Timeout      time.Duration
	MaxAttempts  int

	// Expéditeur (l'entrepôt), identique pour toutes les livraisons
	SenderName     string
	SenderPhone    string
	SenderEmail    string
	SenderStreet   string
	SenderCity     string
	SenderState    string
	SenderPostcode string
	SenderCountry  string
}

// LoadCourierConfig charge la configuration transporteur depuis l'environnement
func LoadCourierConfig() CourierConfig {
	cfg := CourierConfig{
		BaseURL:      os.Getenv("COURIER_API_URL"),
		TokenURL:     os.Getenv("COURIER_TOKEN_URL"),
		ClientID:     os.Getenv("COURIER_CLIENT_ID"),
		ClientSecret: os.Getenv("COURIER_CLIENT_SECRET"),
		Environment:  os.Getenv("COURIER_ENV"),
		Timeout:      15 * time.Second,
		MaxAttempts:  3,

		SenderName:     os.Getenv("COURIER_SENDER_NAME"),
		SenderPhone:    os.Getenv("COURIER_SENDER_PHONE"),
		SenderEmail:    os.Getenv("COURIER_SENDER_EMAIL"),
		SenderStreet:   os.Getenv("COURIER_SENDER_STREET"),
		SenderCity:     os.Getenv("COURIER_SENDER_CITY"),
		SenderState:    os.Getenv("COURIER_SENDER_STATE"),
		SenderPostcode: os.Getenv("COURIER_SENDER_POSTCODE"),
		SenderCountry:  os.Getenv("COURIER_SENDER_COUNTRY"),
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvSandbox
	}
	if s := os.Getenv("COURIER_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// GatewayConfig : configuration de la passerelle de paiement.
// L'URL de base DOIT correspondre à l'environnement : pointer la prod vers le
// sandbox (ou l'inverse) est une classe de panne documentée, pas un détail.
type GatewayConfig struct {
	MerchantID     string
	SecretKey      string
	Environment    string // sandbox | production
	SandboxBaseURL string
	ProdBaseURL    string
	Currency       string
	Timeout        time.Duration
}

// LoadGatewayConfig charge la configuration passerelle depuis l'environnement
func LoadGatewayConfig() GatewayConfig {
	cfg := GatewayConfig{
		MerchantID:     os.Getenv("GATEWAY_MERCHANT_ID"),
		SecretKey:      os.Getenv("GATEWAY_SECRET_KEY"),
		Environment:    os.Getenv("GATEWAY_ENV"),
		SandboxBaseURL: os.Getenv("GATEWAY_SANDBOX_URL"),
		ProdBaseURL:    os.Getenv("GATEWAY_PROD_URL"),
		Currency:       os.Getenv("GATEWAY_CURRENCY"),
		Timeout:        15 * time.Second,
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvSandbox
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return cfg
}

// BaseURL retourne l'URL de base correspondant à l'environnement configuré
func (c GatewayConfig) BaseURL() string {
	if c.Environment == EnvProduction {
		return c.ProdBaseURL
	}
	return c.SandboxBaseURL
}

// SweeperConfig : réglages du job d'auto-complétion
type SweeperConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
}

// LoadSweeperConfig charge les réglages du sweeper depuis l'environnement
func LoadSweeperConfig() SweeperConfig {
	cfg := SweeperConfig{
		Interval:    1 * time.Hour,
		GracePeriod: 72 * time.Hour,
	}
	if s := os.Getenv("SWEEPER_INTERVAL_MINUTES"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Minute
		}
	}
	if s := os.Getenv("SWEEPER_GRACE_HOURS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.GracePeriod = time.Duration(n) * time.Hour
		}
	}
	return cfg
}
