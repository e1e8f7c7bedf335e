package paypal

import (
	"context"
	"errors"
	"net/http"
	"satchmo-store/internal/client"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	created   *client.PaypalOrderRequest
	capture   *client.CaptureResult
	verifyErr error
}

func (f *fakeGateway) CreateOrder(_ context.Context, req *client.PaypalOrderRequest) (*client.CreateOrderResponse, error) {
	f.created = req
	return &client.CreateOrderResponse{OrderID: "PP-1", ApproveURL: "https://paypal.test/approve"}, nil
}

func (f *fakeGateway) CaptureOrder(context.Context, string) (*client.CaptureResult, error) {
	return f.capture, nil
}

func (f *fakeGateway) VerifyWebhookSignature(context.Context, http.Header, []byte) error {
	return f.verifyErr
}

func newTestProcessor(t *testing.T) (*Processor, *fakeGateway) {
	t.Helper()

	repos := testutil.NewRepos(t)
	settings := testutil.NewSettings(t, repos)
	require.NoError(t, payment.RegisterSettings(settings))
	require.NoError(t, RegisterSettings(settings))

	gw := &fakeGateway{}
	return New(settings, gw, "https://shop.test"), gw
}

func TestCapturePaymentRedirects(t *testing.T) {
	p, gw := newTestProcessor(t)

	res, err := p.CapturePayment(context.Background(), &model.Order{ID: 42}, testutil.Decimal("12.50"), payment.PaymentData{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://paypal.test/approve", res.RedirectURL)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "PP-1", res.Pending.Reference)

	assert.Equal(t, "42", gw.created.InvoiceID)
	assert.Equal(t, "USD", gw.created.Currency)
	assert.Equal(t, "https://shop.test/api/paypal/success", gw.created.ReturnURL)
	assert.Equal(t, "https://shop.test/api/paypal/cancel", gw.created.CancelURL)
}

func TestComplete(t *testing.T) {
	p, gw := newTestProcessor(t)
	ctx := context.Background()

	gw.capture = &client.CaptureResult{
		PaypalOrderID: "PP-1", CaptureID: "CAP-1", Status: "COMPLETED",
		PayerID: "PAYER", InvoiceID: "42", Amount: testutil.Decimal("12.50"),
	}
	c, err := p.Complete(ctx, "PP-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), c.OrderID)
	require.True(t, c.Result.Success)
	assert.Equal(t, "CAP-1", c.Result.Payment.TransactionID)
	assert.Equal(t, uint(42), c.Result.Payment.OrderID)

	gw.capture = &client.CaptureResult{Status: "PENDING", InvoiceID: "42"}
	c, err = p.Complete(ctx, "PP-1")
	require.NoError(t, err)
	assert.False(t, c.Result.Success)

	gw.capture = &client.CaptureResult{Status: "COMPLETED", InvoiceID: "not-ours"}
	_, err = p.Complete(ctx, "PP-1")
	assert.ErrorIs(t, err, ErrUnknownInvoice)
}

func TestWebhook(t *testing.T) {
	p, gw := newTestProcessor(t)
	ctx := context.Background()

	body := []byte(`{
		"id": "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"id": "CAP-9",
			"status": "COMPLETED",
			"invoice_id": "42",
			"amount": {"currency_code": "USD", "value": "12.50"},
			"supplementary_data": {"related_ids": {"order_id": "PP-1"}}
		}
	}`)

	event, err := p.ParseWebhook(ctx, http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, "WH-1", event.ID)

	c, err := p.WebhookCompletion(event)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint(42), c.OrderID)
	assert.Equal(t, "CAP-9", c.Result.Payment.TransactionID)
	assert.True(t, testutil.Decimal("12.50").Equal(c.Result.Payment.Amount))

	event.EventType = "CHECKOUT.ORDER.APPROVED"
	c, err = p.WebhookCompletion(event)
	require.NoError(t, err)
	assert.Nil(t, c)

	gw.verifyErr = client.ErrWebhookSignature
	_, err = p.ParseWebhook(ctx, http.Header{}, body)
	assert.True(t, errors.Is(err, client.ErrWebhookSignature))
}
