package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

func testConfig(sandboxURL string) config.GatewayConfig {
	return config.GatewayConfig{
		MerchantID:     "velora-001",
		SecretKey:      "clé-secrète",
		Environment:    config.EnvSandbox,
		SandboxBaseURL: sandboxURL,
		ProdBaseURL:    "https://pay.example.com",
		Currency:       "EUR",
		Timeout:        5 * time.Second,
	}
}

func testOrder() models.Order {
	return models.Order{
		ID:         gocql.UUID(uuid.New()),
		OrderCode:  "CMD-1234ABCD5678EF90",
		TotalPrice: 149.99,
	}
}

func TestInitiatePaymentBuildsRedirectURL(t *testing.T) {
	client := NewClient(testConfig("https://sandbox.pay.example.com"))

	redirect, err := client.InitiatePayment(testOrder(), "tx-42", "client@example.com")
	require.NoError(t, err)

	parsed, err := url.Parse(redirect.URL)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.pay.example.com", parsed.Host)
	assert.Equal(t, "/checkout", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "velora-001", q.Get("merchant_id"))
	assert.Equal(t, "tx-42", q.Get("transaction_id"))
	assert.Equal(t, "149.99", q.Get("amount"))
	assert.Equal(t, "EUR", q.Get("currency"))
	assert.Equal(t, "Commande CMD-1234ABCD5678EF90", q.Get("description"))
	assert.Equal(t, "client@example.com", q.Get("email"))
	assert.Equal(t, "tx-42", redirect.TransactionID)
}

func TestInitiatePaymentUsesEnvironmentBaseURL(t *testing.T) {
	cfg := testConfig("https://sandbox.pay.example.com")
	cfg.Environment = config.EnvProduction

	redirect, err := NewClient(cfg).InitiatePayment(testOrder(), "tx-43", "")
	require.NoError(t, err)

	parsed, _ := url.Parse(redirect.URL)
	assert.Equal(t, "pay.example.com", parsed.Host, "production prend l'URL de production")
}

func TestInitiatePaymentRequiresConfiguration(t *testing.T) {
	cfg := testConfig("https://sandbox.pay.example.com")
	cfg.MerchantID = ""
	_, err := NewClient(cfg).InitiatePayment(testOrder(), "tx-44", "")
	assert.True(t, errs.IsValidation(err))

	cfg = testConfig("")
	_, err = NewClient(cfg).InitiatePayment(testOrder(), "tx-44", "")
	assert.True(t, errs.IsValidation(err))
}

func TestVerifyTransactionGatewayIsAuthoritative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inquiry", r.URL.Path)
		assert.Equal(t, "clé-secrète", r.Header.Get("X-Merchant-Key"))
		assert.Equal(t, "tx-50", r.URL.Query().Get("transaction_id"))
		assert.Equal(t, "ref-50", r.URL.Query().Get("reference_number"))

		json.NewEncoder(w).Encode(map[string]string{
			"transaction_id":   "tx-50",
			"reference_number": "ref-50",
			"status":           GatewayFailed,
		})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	// Le client prétend que le paiement a réussi ; la passerelle dit F
	v, err := client.VerifyTransaction(context.Background(), "tx-50", "ref-50", GatewaySuccess)
	require.NoError(t, err)
	assert.Equal(t, GatewayFailed, v.GatewayStatus)
	assert.Equal(t, models.PaymentFailed, v.PaymentStatus, "la passerelle fait foi, pas le client")
}

func TestVerifyTransactionStatusMapping(t *testing.T) {
	assert.Equal(t, models.PaymentCompleted, MapGatewayStatus(GatewaySuccess))
	assert.Equal(t, models.PaymentFailed, MapGatewayStatus(GatewayFailed))
	assert.Equal(t, models.PaymentWaitingConfirmation, MapGatewayStatus(GatewayPending))
	assert.Equal(t, models.PaymentPending, MapGatewayStatus("X"), "statut inconnu = pending")
}

func TestVerifyTransactionRequiresIdentifiers(t *testing.T) {
	client := NewClient(testConfig("https://sandbox.pay.example.com"))
	_, err := client.VerifyTransaction(context.Background(), "", "ref", "")
	assert.True(t, errs.IsValidation(err))
	_, err = client.VerifyTransaction(context.Background(), "tx", "", "")
	assert.True(t, errs.IsValidation(err))
}

func TestVerifyTransactionPartnerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).VerifyTransaction(context.Background(), "tx-51", "ref-51", "")
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}
