package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

func testGuard() *TokenGuard {
	return NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		return "tok-test", time.Now().Add(time.Hour), nil
	}, nil)
}

func testClient(baseURL, env string, guard *TokenGuard) *Client {
	return NewClient(config.CourierConfig{
		BaseURL:     baseURL,
		Environment: env,
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		SenderName:  "Entrepôt Velora",
		SenderPhone: "+3225550100",
		SenderEmail: "entrepot@velora.be",
	}, guard)
}

func validDelivery() DeliveryOrder {
	return DeliveryOrder{
		OrderCode:     "CMD-AB12CD34EF56AB78",
		CustomerName:  "Jean Dupont",
		CustomerPhone: "0470 12 34 56",
		CustomerEmail: "jean@example.com",
		Country:       "BE",
		Address: models.Address{
			Kind:     models.AddressStructured,
			Raw:      "Rue de la Loi 16, Namur, Namur, 5000",
			Address1: "Rue de la Loi 16",
			City:     "Namur",
			State:    "Namur",
			Postcode: "5000",
			Country:  "BE",
		},
		TotalQuantity: 3,
		PaymentMethod: models.MethodCard,
		AmountEUR:     59.90,
	}
}

func TestCreateDeliveryRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(DeliveryResult{TrackingNumber: "TRK-001", Carrier: "velocourier"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, testGuard())
	result, err := client.CreateDeliveryOrder(context.Background(), validDelivery())

	require.NoError(t, err)
	assert.Equal(t, "TRK-001", result.TrackingNumber)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "deux 503 puis un succès = trois tentatives")
}

func TestCreateDeliveryDoesNotRetryPermanentFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"adresse inconnue"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, testGuard())
	_, err := client.CreateDeliveryOrder(context.Background(), validDelivery())

	require.Error(t, err)
	assert.True(t, errs.IsPermanent(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "un 4xx ne se réessaie jamais")
}

func TestCreateDeliveryRefreshesTokenOnceOn401(t *testing.T) {
	var exchanges int32
	guard := NewTokenGuard(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&exchanges, 1)
		if n == 1 {
			return "tok-périmé", time.Now().Add(time.Hour), nil
		}
		return "tok-frais", time.Now().Add(time.Hour), nil
	}, nil)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer tok-frais" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(DeliveryResult{TrackingNumber: "TRK-002", Carrier: "velocourier"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, guard)
	result, err := client.CreateDeliveryOrder(context.Background(), validDelivery())

	require.NoError(t, err)
	assert.Equal(t, "TRK-002", result.TrackingNumber)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges), "exactement un refresh après le 401")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "exactement un rejeu après le refresh")
}

func TestCreateDeliveryValidationFailsBeforeAnyCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, testGuard())

	cases := []func(*DeliveryOrder){
		func(d *DeliveryOrder) { d.CustomerName = "" },
		func(d *DeliveryOrder) { d.CustomerEmail = "pas-un-email" },
		func(d *DeliveryOrder) { d.CustomerPhone = "" },
		func(d *DeliveryOrder) { d.CustomerPhone = "12" },
	}
	for _, mutate := range cases {
		d := validDelivery()
		mutate(&d)
		_, err := client.CreateDeliveryOrder(context.Background(), d)
		require.Error(t, err)
		assert.True(t, errs.IsValidation(err))
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "la validation échoue avant tout appel réseau")
}

func TestCreateDeliverySandboxProfileAndCOD(t *testing.T) {
	var got createShipmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(DeliveryResult{TrackingNumber: "TRK-003", Carrier: "velocourier"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, testGuard())
	d := validDelivery()
	d.PaymentMethod = models.MethodCOD
	d.AmountEUR = 100.00

	_, err := client.CreateDeliveryOrder(context.Background(), d)
	require.NoError(t, err)

	// Profil sandbox : localité validée imposée, ligne de rue du client conservée
	assert.Equal(t, "Rue de la Loi 16", got.To.Address.Address1)
	assert.Equal(t, "Bruxelles", got.To.Address.City)
	assert.Equal(t, "Bruxelles-Capitale", got.To.Address.State)
	assert.Equal(t, "1000", got.To.Address.Postcode)
	assert.Equal(t, "BE", got.To.Address.Country)

	// Téléphone normalisé au profil BE
	assert.Equal(t, "+32470123456", got.To.Phone)

	// COD converti en USD au taux forfaitaire sandbox
	require.NotNil(t, got.COD)
	assert.Equal(t, 110.00, got.COD.Amount)
	assert.Equal(t, "USD", got.COD.Currency)

	// 3 articles × 0.5 kg
	assert.Equal(t, 1.5, got.Parcel.WeightKg)
}

func TestCreateDeliveryProductionRejectsRawOnlyAddress(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvProduction, testGuard())
	d := validDelivery()
	d.Address = models.Address{Kind: models.AddressRawOnly, Raw: "quelque part à Bruxelles"}

	_, err := client.CreateDeliveryOrder(context.Background(), d)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

type memWaybills struct {
	store map[string][]byte
	puts  int
}

func (m *memWaybills) Get(ctx context.Context, tn string) ([]byte, error) {
	if pdf, ok := m.store[tn]; ok {
		return pdf, nil
	}
	return nil, errs.ErrNotFound
}

func (m *memWaybills) Put(ctx context.Context, tn string, pdf []byte) error {
	m.puts++
	m.store[tn] = pdf
	return nil
}

func TestGenerateWaybillServedFromArchive(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("%PDF-fake"))
	}))
	defer srv.Close()

	archive := &memWaybills{store: map[string][]byte{}}
	client := testClient(srv.URL, config.EnvSandbox, testGuard()).WithWaybillArchive(archive)

	pdf, err := client.GenerateWaybill(context.Background(), "TRK-010")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Equal(t, 1, archive.puts)

	// Deuxième demande : servie depuis l'archive, le transporteur n'est pas rappelé
	pdf, err = client.GenerateWaybill(context.Background(), "TRK-010")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type memTracking struct {
	data map[string]TrackingInfo
}

func (m *memTracking) Get(tn string, dest interface{}) bool {
	info, ok := m.data[tn]
	if !ok {
		return false
	}
	*(dest.(*TrackingInfo)) = info
	return true
}

func (m *memTracking) Set(tn string, info interface{}) {
	m.data[tn] = info.(TrackingInfo)
}

func TestGetTrackingInfoUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(TrackingInfo{TrackingNumber: "TRK-020", Status: "in_transit"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, config.EnvSandbox, testGuard()).
		WithTrackingCache(&memTracking{data: map[string]TrackingInfo{}})

	info, err := client.GetTrackingInfo(context.Background(), "TRK-020")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", info.Status)

	info, err = client.GetTrackingInfo(context.Background(), "TRK-020")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", info.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "la deuxième lecture vient du cache")
}
