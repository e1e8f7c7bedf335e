package braintree

import (
	"context"
	"satchmo-store/internal/client"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	sales   []*client.BraintreeSaleRequest
	decline bool
	vaulted int
}

func (f *fakeGateway) Sale(_ context.Context, req *client.BraintreeSaleRequest) (*client.BraintreeResult, error) {
	f.sales = append(f.sales, req)
	if f.decline {
		return &client.BraintreeResult{TransactionID: "bt-declined", Status: "processor_declined", ResponseCode: "2001", ResponseText: "Insufficient Funds"}, nil
	}
	status := "authorized"
	if req.Settle {
		status = "submitted_for_settlement"
	}
	return &client.BraintreeResult{TransactionID: "bt-1", Status: status, Approved: true, ResponseCode: "1000", AuthCode: "A1"}, nil
}

func (f *fakeGateway) SubmitForSettlement(_ context.Context, txID string, _ decimal.Decimal) (*client.BraintreeResult, error) {
	return &client.BraintreeResult{TransactionID: txID, Status: "submitted_for_settlement", Approved: true}, nil
}

func (f *fakeGateway) Void(_ context.Context, txID string) (*client.BraintreeResult, error) {
	return &client.BraintreeResult{TransactionID: txID, Status: "voided", Approved: true}, nil
}

func (f *fakeGateway) VaultPaymentMethod(context.Context, string, string, string, string) (string, error) {
	f.vaulted++
	return "token-1", nil
}

func newTestProcessor(t *testing.T) (*Processor, *fakeGateway, *repository.Repositories) {
	t.Helper()

	repos := testutil.NewRepos(t)
	settings := testutil.NewSettings(t, repos)
	require.NoError(t, payment.RegisterSettings(settings))
	require.NoError(t, RegisterSettings(settings))

	gw := &fakeGateway{}
	return New(settings, gw, repos.Vault, repos.Contacts), gw, repos
}

func TestSaleWithNonce(t *testing.T) {
	p, gw, _ := newTestProcessor(t)
	ctx := context.Background()
	order := &model.Order{ID: 9}
	data := payment.PaymentData{Nonce: "fake-valid-nonce"}

	require.NoError(t, p.Prepare(ctx, order, data))

	res, err := p.CapturePayment(ctx, order, testutil.Decimal("20"), data)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "bt-1", res.Payment.TransactionID)
	assert.True(t, gw.sales[0].Settle)
	assert.Equal(t, "fake-valid-nonce", gw.sales[0].Nonce)
	assert.Equal(t, "9", gw.sales[0].OrderID)

	auth, err := p.AuthorizePayment(ctx, order, testutil.Decimal("20"), data)
	require.NoError(t, err)
	require.NotNil(t, auth.Authorization)
	assert.False(t, gw.sales[1].Settle)

	captured, err := p.CaptureAuthorizedPayment(ctx, order, auth.Authorization)
	require.NoError(t, err)
	assert.True(t, captured.Success)
}

func TestDeclined(t *testing.T) {
	p, gw, _ := newTestProcessor(t)
	gw.decline = true

	res, err := p.CapturePayment(context.Background(), &model.Order{ID: 1}, testutil.Decimal("20"), payment.PaymentData{Nonce: "n"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "2001", res.ReasonCode)
	assert.Equal(t, "bt-declined", res.TransactionID)
}

func TestVaultedRecurringCharge(t *testing.T) {
	p, gw, repos := newTestProcessor(t)
	ctx := context.Background()

	contact := &model.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: model.RoleCustomer}
	require.NoError(t, repos.Contacts.Create(ctx, contact))
	order := &model.Order{ID: 3, ContactID: contact.ID}

	assert.ErrorIs(t, p.Prepare(ctx, order, payment.PaymentData{}), payment.ErrInvalidPaymentData)

	_, err := p.CapturePayment(ctx, order, testutil.Decimal("5"), payment.PaymentData{Nonce: "n", SaveToken: true})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.vaulted)
	assert.Equal(t, "token-1", gw.sales[0].PaymentToken)
	assert.Empty(t, gw.sales[0].Nonce)

	require.NoError(t, p.Prepare(ctx, order, payment.PaymentData{Recurring: true}))
	res, err := p.CapturePayment(ctx, order, testutil.Decimal("5"), payment.PaymentData{Recurring: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "token-1", gw.sales[1].PaymentToken)
}
