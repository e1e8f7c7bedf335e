package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"satchmo-store/internal/client"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/payment/paypal"
	"satchmo-store/internal/pricing"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/shipping"
	"strings"

	"go.uber.org/zap"
)

// PaypalCompleter finishes PayPal payments approved off-site.
type PaypalCompleter interface {
	Complete(ctx context.Context, paypalOrderID string) (*paypal.Completion, error)
	ParseWebhook(ctx context.Context, headers http.Header, body []byte) (*client.PaypalWebhookEvent, error)
	WebhookCompletion(event *client.PaypalWebhookEvent) (*paypal.Completion, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, req dto.CheckoutRequest, contact *model.Contact) (*dto.CheckoutResponse, error)
	// PayBalance charges what is left on one of contact's orders, e.g. after a
	// gift certificate covered only part of it.
	PayBalance(ctx context.Context, orderID uint, contact *model.Contact, req dto.BalancePaymentRequest) (*dto.CheckoutResponse, error)
	ShippingOptions(ctx context.Context, cartKey string, contact *model.Contact, ship model.Address) ([]shipping.Option, error)
	PaymentOptions(ctx context.Context) ([]payment.Option, error)
	CheckDiscount(ctx context.Context, code, cartKey string, contact *model.Contact) (*dto.DiscountCheckResponse, error)

	// staff
	SetStatus(ctx context.Context, orderID uint, status model.OrderStatusCode, notes string) (*dto.PaymentActionResponse, error)
	Capture(ctx context.Context, orderID uint) (*dto.PaymentActionResponse, error)
	PaymentReceived(ctx context.Context, orderID uint, method, transactionID string) (*dto.PaymentActionResponse, error)

	// PayPal
	PaypalReturn(ctx context.Context, paypalOrderID string) (*model.Order, error)
	PaypalWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type checkoutServiceImpl struct {
	repos    *repository.Repositories
	carts    CartService
	orders   OrderService
	payments *payment.Service
	shipping *shipping.Service
	paypal   PaypalCompleter
	settings *livesettings.Registry
	hooks    *hooks.Hooks
}

func NewCheckoutService(
	repos *repository.Repositories,
	carts CartService,
	orders OrderService,
	payments *payment.Service,
	shipping *shipping.Service,
	paypal PaypalCompleter,
	settings *livesettings.Registry,
	hooks *hooks.Hooks,
) CheckoutService {
	return &checkoutServiceImpl{
		repos:    repos,
		carts:    carts,
		orders:   orders,
		payments: payments,
		shipping: shipping,
		paypal:   paypal,
		settings: settings,
		hooks:    hooks,
	}
}

// resolveContact returns the signed-in contact, or the contact for a guest's
// email, creating it on first checkout. A guest is never bound to a
// registered account.
func (s *checkoutServiceImpl) resolveContact(ctx context.Context, req dto.CheckoutRequest, contact *model.Contact) (*model.Contact, error) {
	if contact != nil {
		return contact, nil
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrContactRequired
	}

	existing, err := s.repos.Contacts.FindByEmail(ctx, req.Email)
	if err == nil {
		if existing.PasswordHash != "" {
			return nil, ErrSignInRequired
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find contact: %w", err)
	}

	guest := &model.Contact{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleCustomer,
	}
	if err := s.repos.Contacts.Create(ctx, guest); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return guest, nil
}

func defaultAddress(contact *model.Contact, billing bool) model.Address {
	for _, a := range contact.Addresses {
		if (billing && a.IsDefaultBilling) || (!billing && a.IsDefaultShipping) {
			return a.Address
		}
	}
	return model.Address{}
}

// checkCountry rejects unknown or inactive countries, and foreign ones when
// SHOP.IN_COUNTRY_ONLY is set.
func (s *checkoutServiceImpl) checkCountry(ctx context.Context, iso2 string) error {
	country, err := s.repos.Locations.FindCountry(ctx, strings.ToUpper(iso2))
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrCountryNotAllowed, iso2)
	}
	if err != nil {
		return fmt.Errorf("find country: %w", err)
	}
	if !country.Active {
		return fmt.Errorf("%w: %s", ErrCountryNotAllowed, country.Name)
	}

	inCountryOnly, err := s.settings.Bool(ctx, livesettings.GroupShop, "IN_COUNTRY_ONLY")
	if err != nil {
		return err
	}
	if !inCountryOnly {
		return nil
	}
	storeCountry, err := s.settings.String(ctx, livesettings.GroupShop, "COUNTRY")
	if err != nil {
		return err
	}
	if !strings.EqualFold(storeCountry, country.ISO2) {
		return fmt.Errorf("%w: %s", ErrCountryNotAllowed, country.Name)
	}
	return nil
}

// orderInput fills missing addresses from the address book of a signed-in
// contact only.
func (s *checkoutServiceImpl) orderInput(ctx context.Context, req dto.CheckoutRequest, contact *model.Contact, signedIn bool, cart *model.Cart) (OrderInput, error) {
	input := OrderInput{
		ShipAddress:    req.ShipAddress.Model(),
		BillAddress:    req.BillAddress.Model(),
		ShippingMethod: req.ShippingMethod,
		DiscountCode:   req.DiscountCode,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	}
	if signedIn && input.ShipAddress.IsZero() {
		input.ShipAddress = defaultAddress(contact, false)
	}
	if signedIn && input.BillAddress.IsZero() {
		input.BillAddress = defaultAddress(contact, true)
	}
	if input.ShipAddress.Addressee == "" {
		input.ShipAddress.Addressee = contact.FullName()
	}

	if !cart.IsShippable() {
		return input, nil
	}
	if input.ShipAddress.Street1 == "" || input.ShipAddress.Country == "" {
		return input, ErrAddressRequired
	}
	if input.ShippingMethod == "" {
		return input, ErrShippingRequired
	}
	return input, s.checkCountry(ctx, input.ShipAddress.Country)
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, req dto.CheckoutRequest, contact *model.Contact) (*dto.CheckoutResponse, error) {
	cart, err := s.carts.Get(ctx, req.CartKey)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if _, err := s.payments.Processor(ctx, req.PaymentMethod); err != nil {
		return nil, err
	}

	signedIn := contact != nil
	contact, err = s.resolveContact(ctx, req, contact)
	if err != nil {
		return nil, err
	}
	input, err := s.orderInput(ctx, req, contact, signedIn, cart)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Draft(ctx, cart, contact, input)
	if err != nil {
		return nil, err
	}
	if err := s.checkMinimum(ctx, order); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	res, err := s.payments.Process(ctx, req.PaymentMethod, order, req.Payment)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return &dto.CheckoutResponse{Order: order, Result: res}, nil
	}

	if _, err := s.orders.AddStatus(ctx, order.ID, model.StatusNew, "Order placed"); err != nil {
		return nil, err
	}
	if err := s.carts.Empty(ctx, cart.Key); err != nil {
		logger.FromContext(ctx).Warn("empty cart after checkout", zap.String("cart", cart.Key), zap.Error(err))
	}

	order, err = s.afterPayment(ctx, order.ID, res)
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutResponse{Order: order, Result: res}, nil
}

func (s *checkoutServiceImpl) PayBalance(ctx context.Context, orderID uint, contact *model.Contact, req dto.BalancePaymentRequest) (*dto.CheckoutResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if contact == nil || order.ContactID != contact.ID {
		return nil, ErrForbidden
	}
	if err := s.checkPayable(ctx, order); err != nil {
		return nil, err
	}

	res, err := s.payments.Process(ctx, req.PaymentMethod, order, req.Payment)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return &dto.CheckoutResponse{Order: order, Result: res}, nil
	}

	if order.Status == model.StatusTemp {
		if _, err := s.orders.AddStatus(ctx, order.ID, model.StatusNew, "Order placed"); err != nil {
			return nil, err
		}
	}
	order, err = s.afterPayment(ctx, order.ID, res)
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutResponse{Order: order, Result: res}, nil
}

// checkPayable rejects orders with nothing left to pay, and orders whose
// balance is already covered by an open authorization or pending payment.
func (s *checkoutServiceImpl) checkPayable(ctx context.Context, order *model.Order) error {
	if order.Status == model.StatusCancelled || order.PaidInFull() {
		return ErrNoBalanceDue
	}
	for _, p := range order.Pending {
		if p.CapturePayID == nil {
			return ErrPaymentOutstanding
		}
	}
	auths, err := s.repos.Payments.OpenAuthorizations(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("load authorizations: %w", err)
	}
	if len(auths) > 0 {
		return ErrPaymentOutstanding
	}
	return nil
}

func (s *checkoutServiceImpl) checkMinimum(ctx context.Context, order *model.Order) error {
	minimum, err := s.payments.Minimum(ctx)
	if err != nil {
		return err
	}
	if order.Total.LessThan(minimum) {
		return fmt.Errorf("%w of %s", ErrBelowMinimum, minimum.StringFixed(2))
	}
	return nil
}

// afterPayment fires the payment hook for a recorded payment and completes the
// order when it is paid in full.
func (s *checkoutServiceImpl) afterPayment(ctx context.Context, orderID uint, results ...*payment.ProcessorResult) (*model.Order, error) {
	order, _, err := s.orders.CompletePayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Success && res.Payment != nil {
			s.hooks.PaymentComplete.Send(ctx, hooks.PaymentComplete{Order: order, Payment: res.Payment})
		}
	}
	return order, nil
}

func (s *checkoutServiceImpl) ShippingOptions(ctx context.Context, cartKey string, contact *model.Contact, ship model.Address) ([]shipping.Option, error) {
	cart, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		contact = &model.Contact{}
	}
	if ship.IsZero() {
		ship = defaultAddress(contact, false)
	}

	order, err := s.orders.Draft(ctx, cart, contact, OrderInput{ShipAddress: ship})
	if err != nil {
		return nil, err
	}
	return s.shipping.Options(ctx, order)
}

func (s *checkoutServiceImpl) PaymentOptions(ctx context.Context) ([]payment.Option, error) {
	return s.payments.Options(ctx)
}

func (s *checkoutServiceImpl) CheckDiscount(ctx context.Context, code, cartKey string, contact *model.Contact) (*dto.DiscountCheckResponse, error) {
	cart, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		contact = &model.Contact{}
	}

	resp := &dto.DiscountCheckResponse{Code: strings.ToUpper(strings.TrimSpace(code))}
	order, err := s.orders.Draft(ctx, cart, contact, OrderInput{DiscountCode: code})
	if errors.Is(err, pricing.ErrDiscountInvalid) {
		resp.Message = err.Error()
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	resp.Valid = true
	resp.Discount = order.Discount
	resp.ShippingDiscount = order.ShippingDiscount
	return resp, nil
}

func (s *checkoutServiceImpl) actionResponse(ctx context.Context, orderID uint, results []*payment.ProcessorResult) (*dto.PaymentActionResponse, error) {
	order, err := s.afterPayment(ctx, orderID, results...)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentActionResponse{Order: order, Results: results}, nil
}

// SetStatus records a status change. Shipping an order captures its
// authorizations; cancelling releases them.
func (s *checkoutServiceImpl) SetStatus(ctx context.Context, orderID uint, status model.OrderStatusCode, notes string) (*dto.PaymentActionResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var results []*payment.ProcessorResult
	switch status {
	case model.StatusShipped:
		results, err = s.payments.CaptureAuthorizations(ctx, order)
	case model.StatusCancelled:
		results, err = s.payments.ReleaseAuthorizations(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.AddStatus(ctx, orderID, status, notes); err != nil {
		return nil, err
	}
	return s.actionResponse(ctx, orderID, results)
}

func (s *checkoutServiceImpl) Capture(ctx context.Context, orderID uint) (*dto.PaymentActionResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	results, err := s.payments.CaptureAuthorizations(ctx, order)
	if err != nil {
		return nil, err
	}
	return s.actionResponse(ctx, orderID, results)
}

func (s *checkoutServiceImpl) PaymentReceived(ctx context.Context, orderID uint, method, transactionID string) (*dto.PaymentActionResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	results, err := s.payments.ResolvePending(ctx, order, method, transactionID)
	if err != nil {
		return nil, err
	}
	return s.actionResponse(ctx, orderID, results)
}

func (s *checkoutServiceImpl) applyCompletion(ctx context.Context, c *paypal.Completion) (*model.Order, error) {
	order, err := s.orders.Get(ctx, c.OrderID)
	if err != nil {
		return nil, err
	}
	recorded, err := s.payments.Complete(ctx, order, c.Result)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return order, nil
	}
	return s.afterPayment(ctx, order.ID, c.Result)
}

func (s *checkoutServiceImpl) PaypalReturn(ctx context.Context, paypalOrderID string) (*model.Order, error) {
	c, err := s.paypal.Complete(ctx, paypalOrderID)
	if err != nil {
		return nil, fmt.Errorf("paypal capture order: %w", err)
	}
	return s.applyCompletion(ctx, c)
}

// PaypalWebhook applies a verified notification once. The event is marked
// processed only after it was applied, so a failed delivery is retried.
func (s *checkoutServiceImpl) PaypalWebhook(ctx context.Context, headers http.Header, body []byte) error {
	event, err := s.paypal.ParseWebhook(ctx, headers, body)
	if err != nil {
		return fmt.Errorf("parse webhook: %w", err)
	}

	seen, err := s.repos.WebhookEvents.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		logger.FromContext(ctx).Info("webhook already processed", zap.String("event_id", event.ID))
		return nil
	}

	c, err := s.paypal.WebhookCompletion(event)
	if err != nil {
		return err
	}
	if c != nil {
		if _, err := s.applyCompletion(ctx, c); err != nil {
			return err
		}
	}

	if _, err := s.repos.WebhookEvents.MarkProcessed(ctx, event.ID, event.EventType); err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	return nil
}
