package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"satchmo-store/internal/config"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaypalTestServer(t *testing.T, verification string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-1"})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		units := body["purchase_units"].([]any)
		unit := units[0].(map[string]any)
		assert.Equal(t, "42", unit["invoice_id"])
		assert.Equal(t, "12.50", unit["amount"].(map[string]any)["value"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "PP-1",
			"status": "CREATED",
			"links": []map[string]string{
				{"rel": "self", "href": "https://paypal.test/self"},
				{"rel": "approve", "href": "https://paypal.test/approve"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/PP-1/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "PP-1",
			"status": "COMPLETED",
			"payer": {"payer_id": "PAYER"},
			"purchase_units": [{
				"invoice_id": "42",
				"payments": {"captures": [{"id": "CAP-1", "status": "COMPLETED", "amount": {"currency_code": "USD", "value": "12.50"}}]}
			}]
		}`))
	})
	mux.HandleFunc("/v2/checkout/orders/PP-404/capture", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"name":"RESOURCE_NOT_FOUND"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": verification})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPaypalClient(t *testing.T) {
	srv := newPaypalTestServer(t, "SUCCESS")
	c := NewPaypalClient(&config.Paypal{BaseApiURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	ctx := context.Background()

	t.Run("create order", func(t *testing.T) {
		resp, err := c.CreateOrder(ctx, &PaypalOrderRequest{
			InvoiceID: "42",
			Amount:    decimal.RequireFromString("12.5"),
			Currency:  "USD",
		})
		require.NoError(t, err)
		assert.Equal(t, "PP-1", resp.OrderID)
		assert.Equal(t, "https://paypal.test/approve", resp.ApproveURL)
	})

	t.Run("capture order", func(t *testing.T) {
		res, err := c.CaptureOrder(ctx, "PP-1")
		require.NoError(t, err)
		assert.Equal(t, "CAP-1", res.CaptureID)
		assert.Equal(t, "42", res.InvoiceID)
		assert.Equal(t, "PAYER", res.PayerID)
		assert.True(t, decimal.RequireFromString("12.50").Equal(res.Amount))
	})

	t.Run("capture error status", func(t *testing.T) {
		_, err := c.CaptureOrder(ctx, "PP-404")
		assert.ErrorContains(t, err, "404")
	})

	t.Run("webhook verified", func(t *testing.T) {
		assert.NoError(t, c.VerifyWebhookSignature(ctx, http.Header{}, []byte(`{"id":"WH-1"}`)))
	})
}

func TestPaypalClientWebhookRejected(t *testing.T) {
	srv := newPaypalTestServer(t, "FAILURE")
	c := NewPaypalClient(&config.Paypal{BaseApiURL: srv.URL, ClientID: "id", ClientSecret: "secret"})

	err := c.VerifyWebhookSignature(context.Background(), http.Header{}, []byte(`{"id":"WH-1"}`))
	assert.ErrorIs(t, err, ErrWebhookSignature)
}
