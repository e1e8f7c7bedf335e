package service

import (
	"context"
	"net/http"
	"satchmo-store/internal/client"
	"satchmo-store/internal/config"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/payment/cod"
	"satchmo-store/internal/payment/dummy"
	"satchmo-store/internal/payment/giftcertificate"
	"satchmo-store/internal/payment/paypal"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/shipping"
	"satchmo-store/internal/tax"
	"satchmo-store/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaypal struct {
	completion *paypal.Completion
	event      *client.PaypalWebhookEvent
	completes  int
}

func (f *fakePaypal) Complete(context.Context, string) (*paypal.Completion, error) {
	f.completes++
	return f.completion, nil
}

func (f *fakePaypal) ParseWebhook(context.Context, http.Header, []byte) (*client.PaypalWebhookEvent, error) {
	return f.event, nil
}

func (f *fakePaypal) WebhookCompletion(*client.PaypalWebhookEvent) (*paypal.Completion, error) {
	return f.completion, nil
}

type testEnv struct {
	repos    *repository.Repositories
	settings *livesettings.Registry
	cache    *keyedcache.Cache
	hooks    *hooks.Hooks
	money    *l10n.Formatter
	payments *payment.Service
	shipping *shipping.Service
	tax      *tax.Service
	paypal   *fakePaypal

	pricing   PricingService
	products  ProductService
	carts     CartService
	orders    OrderService
	checkout  CheckoutService
	accounts  AccountService
	store     StoreService
	recurring RecurringService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	repos := testutil.NewRepos(t)
	require.NoError(t, repos.Locations.Seed(ctx, l10n.DefaultCountries()))

	settings := testutil.NewSettings(t, repos)
	require.NoError(t, shipping.RegisterSettings(settings))
	require.NoError(t, tax.RegisterSettings(settings))
	require.NoError(t, payment.RegisterSettings(settings))
	require.NoError(t, dummy.RegisterSettings(settings))
	require.NoError(t, cod.RegisterSettings(settings))
	require.NoError(t, giftcertificate.RegisterSettings(settings))
	testutil.Update(t, settings, payment.Group, "MODULES", []string{dummy.Key, cod.Key})

	registry := payment.NewRegistry()
	registry.Register(dummy.New(settings), cod.New(settings), giftcertificate.New(settings, repos.GiftCertificates))
	recorder := payment.NewRecorder(repos, payment.NewCardVault([32]byte{3}))

	env := &testEnv{
		repos:    repos,
		settings: settings,
		cache:    testutil.NewCache(),
		hooks:    hooks.New(),
		money:    l10n.NewFormatter(settings),
		payments: payment.NewService(registry, settings, repos.Payments, recorder),
		shipping: shipping.NewService(settings, repos.Shipping),
		tax:      tax.NewService(settings, repos.Tax),
		paypal:   &fakePaypal{},
	}

	env.pricing = NewPricingService(repos.Prices, repos.Products, env.cache, env.hooks, zap.NewNop())
	env.products = NewProductService(repos.Products, env.pricing, env.money)
	env.carts = NewCartService(repos.Carts, repos.Products, env.pricing, settings, env.hooks, env.money)
	env.orders = NewOrderService(repos, env.pricing, env.shipping, env.tax, env.hooks)
	env.checkout = NewCheckoutService(repos, env.carts, env.orders, env.payments, env.shipping, env.paypal, settings, env.hooks)
	env.accounts = NewAccountService(repos.Contacts, repos.Orders, config.Auth{Secret: "test-secret", TokenTTL: time.Hour})
	env.store = NewStoreService(settings, repos.Locations, repos.GiftCertificates, env.money)
	env.recurring = NewRecurringService(repos, env.orders, env.pricing, env.payments)
	return env
}

// cartWith returns a cart key holding qty units of each product.
func (e *testEnv) cartWith(t *testing.T, qty int, products ...*model.Product) string {
	t.Helper()
	ctx := context.Background()

	cart, err := e.carts.Create(ctx, nil)
	require.NoError(t, err)
	for _, p := range products {
		_, err := e.carts.AddItem(ctx, cart.Key, p.ID, qty, nil)
		require.NoError(t, err)
	}
	return cart.Key
}

func (e *testEnv) contact(t *testing.T, email string) *model.Contact {
	t.Helper()
	c := &model.Contact{Email: email, FirstName: "Ella", LastName: "Fitzgerald", Role: model.RoleCustomer}
	require.NoError(t, e.repos.Contacts.Create(context.Background(), c))
	return c
}

func goodCard() payment.PaymentData {
	return payment.PaymentData{Card: &payment.CreditCard{
		Number: "4111111111111111", CCV: "123", ExpireMonth: 12, ExpireYear: 2099,
	}}
}

func declinedCard() payment.PaymentData {
	return payment.PaymentData{Card: &payment.CreditCard{
		Number: dummy.DeclinedCard, CCV: "123", ExpireMonth: 12, ExpireYear: 2099,
	}}
}

func usAddress() *dto.AddressRequest {
	return &dto.AddressRequest{Street1: "1 Bourbon St", City: "New Orleans", State: "LA", PostalCode: "70112", Country: "US"}
}

func statuses(order *model.Order) []model.OrderStatusCode {
	out := make([]model.OrderStatusCode, len(order.StatusHistory))
	for i, s := range order.StatusHistory {
		out[i] = s.Status
	}
	return out
}
