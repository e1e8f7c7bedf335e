package authorizenet

import (
	"context"
	"net/url"
	"satchmo-store/internal/client"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	live     bool
	login    string
	requests []url.Values
	response string
}

func (f *fakeGateway) Submit(_ context.Context, live bool, login, _ string, fields url.Values) (*client.AIMResponse, error) {
	f.live = live
	f.login = login
	f.requests = append(f.requests, fields)
	return client.ParseAIMResponse(f.response)
}

func newTestProcessor(t *testing.T, response string) (*Processor, *fakeGateway) {
	t.Helper()

	repos := testutil.NewRepos(t)
	settings := testutil.NewSettings(t, repos)
	require.NoError(t, payment.RegisterSettings(settings))
	require.NoError(t, RegisterSettings(settings))
	testutil.Update(t, settings, payment.GroupFor(Key), "LOGIN", "store-login")
	testutil.Update(t, settings, payment.GroupFor(Key), "TRANKEY", "secret")

	gw := &fakeGateway{response: response}
	return New(settings, gw), gw
}

func testOrder() *model.Order {
	return &model.Order{
		ID:          42,
		ContactID:   7,
		BillAddress: model.Address{Addressee: "Ada King Lovelace", Street1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"},
		Total:       testutil.Decimal("30.00"),
	}
}

func testCard() payment.PaymentData {
	return payment.PaymentData{Card: &payment.CreditCard{Number: "4111111111111111", CCV: "123", ExpireMonth: 4, ExpireYear: 2099}}
}

func TestCapture(t *testing.T) {
	p, gw := newTestProcessor(t, "1|1|1|This transaction has been approved.|ABC|Y|2149186775|42|")
	ctx := context.Background()
	require.True(t, p.Configured(ctx))

	res, err := p.CapturePayment(ctx, testOrder(), testutil.Decimal("30"), testCard())
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "2149186775", res.Payment.TransactionID)
	assert.NotNil(t, res.Card)

	require.Len(t, gw.requests, 1)
	sent := gw.requests[0]
	assert.False(t, gw.live)
	assert.Equal(t, "store-login", gw.login)
	assert.Equal(t, typeAuthCapture, sent.Get("x_type"))
	assert.Equal(t, "30.00", sent.Get("x_amount"))
	assert.Equal(t, "0499", sent.Get("x_exp_date"))
	assert.Equal(t, "42", sent.Get("x_invoice_num"))
	assert.Equal(t, "Ada King", sent.Get("x_first_name"))
	assert.Equal(t, "Lovelace", sent.Get("x_last_name"))
}

func TestResponses(t *testing.T) {
	ctx := context.Background()

	t.Run("declined", func(t *testing.T) {
		p, _ := newTestProcessor(t, "2|1|2|This transaction has been declined.||P|0|42|")
		res, err := p.CapturePayment(ctx, testOrder(), testutil.Decimal("30"), testCard())
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "2", res.ReasonCode)
		assert.Nil(t, res.Payment)
	})

	t.Run("held for review", func(t *testing.T) {
		p, _ := newTestProcessor(t, "4|1|253|Held for review.|ABC|Y|555|42|")
		res, err := p.CapturePayment(ctx, testOrder(), testutil.Decimal("30"), testCard())
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.NotNil(t, res.Pending)
		assert.Nil(t, res.Payment)
	})
}

func TestAuthorizeAndCaptureAuthorized(t *testing.T) {
	p, gw := newTestProcessor(t, "1|1|1|Approved|ABC|Y|777|42|")
	ctx := context.Background()
	order := testOrder()

	res, err := p.AuthorizePayment(ctx, order, testutil.Decimal("30"), testCard())
	require.NoError(t, err)
	require.NotNil(t, res.Authorization)
	assert.Equal(t, typeAuthOnly, gw.requests[0].Get("x_type"))

	captured, err := p.CaptureAuthorizedPayment(ctx, order, res.Authorization)
	require.NoError(t, err)
	require.True(t, captured.Success)
	assert.Equal(t, typePriorAuthCapture, gw.requests[1].Get("x_type"))
	assert.Equal(t, "777", gw.requests[1].Get("x_trans_id"))
	assert.Empty(t, gw.requests[1].Get("x_card_num"))

	released, err := p.ReleaseAuthorizedPayment(ctx, order, res.Authorization)
	require.NoError(t, err)
	assert.True(t, released.Success)
	assert.Equal(t, typeVoid, gw.requests[2].Get("x_type"))
}
